package additive

import "sync/atomic"

type eventKind uint8

const (
	evNoteOn eventKind = iota
	evNoteOff
	evPartialGain
)

type noteEvent struct {
	kind  eventKind
	note  int     // MIDI note, or partial index for evPartialGain
	value float64 // velocity, or gain for evPartialGain
}

// eventSlot carries one event plus a sequence number that publishes it:
// a producer claims the slot, writes the event, then bumps seq so the
// consumer never observes a half-written event.
type eventSlot struct {
	seq atomic.Uint64
	ev  noteEvent
}

// eventRing is a fixed-capacity lock-free queue carrying note and
// harmonic-content events from host goroutines to the audio goroutine.
// Any number of producers may push concurrently (the tail is claimed with a
// CAS); the single consumer is the audio goroutine. Neither side blocks or
// allocates; when the ring is full the producer drops the event and counts
// it.
type eventRing struct {
	slots   []eventSlot
	mask    uint64
	head    atomic.Uint64 // next slot to read; consumer-owned
	tail    atomic.Uint64 // next slot to claim; shared by producers
	dropped atomic.Uint64
}

func newEventRing(capacity int) *eventRing {
	n := 1
	for n < capacity {
		n <<= 1
	}
	r := &eventRing{
		slots: make([]eventSlot, n),
		mask:  uint64(n - 1),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	return r
}

// push enqueues ev, returning false if the ring was full. Safe for
// concurrent producers.
func (r *eventRing) push(ev noteEvent) bool {
	for {
		tail := r.tail.Load()
		slot := &r.slots[tail&r.mask]
		seq := slot.seq.Load()
		if seq == tail {
			if r.tail.CompareAndSwap(tail, tail+1) {
				slot.ev = ev
				slot.seq.Store(tail + 1)
				return true
			}
			continue // lost the claim race, retry
		}
		if seq < tail {
			// The slot has not been consumed since the last lap: full.
			r.dropped.Add(1)
			return false
		}
		// Another producer claimed this slot; reload the tail.
	}
}

// pop dequeues the next published event, if any. Consumer side only.
func (r *eventRing) pop() (noteEvent, bool) {
	head := r.head.Load()
	slot := &r.slots[head&r.mask]
	if slot.seq.Load() != head+1 {
		// Empty, or a producer claimed the slot but has not published yet;
		// the event will surface on a later drain.
		return noteEvent{}, false
	}
	ev := slot.ev
	slot.seq.Store(head + uint64(len(r.slots)))
	r.head.Store(head + 1)
	return ev, true
}

// droppedCount reports how many events were lost to overflow.
func (r *eventRing) droppedCount() uint64 {
	return r.dropped.Load()
}
