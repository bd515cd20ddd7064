package smooth

import (
	"math"
	"sync"
	"testing"
)

func TestLinearReachesTargetWithinRamp(t *testing.T) {
	// Variables, not constants, so the step count is computed exactly the
	// way the ramp itself computes it.
	sampleRate := 48000.0
	ramp := 0.02
	s := New(Linear, ramp, sampleRate, 0)
	s.SetTarget(1)

	steps := int(ramp*sampleRate + 0.5)
	var last float64
	for i := 0; i < steps; i++ {
		last = s.Next()
	}
	if last != 1 {
		t.Fatalf("linear ramp should land exactly on target, got %f", last)
	}
	// Holding the same target keeps the value pinned.
	for i := 0; i < 100; i++ {
		if got := s.Next(); got != 1 {
			t.Fatalf("value drifted after convergence: %f", got)
		}
	}
}

func TestLinearNoOvershoot(t *testing.T) {
	s := New(Linear, 0.01, 48000, 0.2)
	s.SetTarget(0.8)
	prev := s.Current()
	for i := 0; i < 2000; i++ {
		v := s.Next()
		if v < prev-1e-12 {
			t.Fatalf("ramp reversed direction at step %d: %f -> %f", i, prev, v)
		}
		if v > 0.8+1e-12 {
			t.Fatalf("overshoot at step %d: %f", i, v)
		}
		prev = v
	}
}

func TestExponentialConverges(t *testing.T) {
	s := New(Exponential, 0.02, 48000, 0)
	s.SetTarget(0.5)
	// Five time constants worth of samples.
	for i := 0; i < 48000; i++ {
		s.Next()
	}
	if got := s.Current(); got != 0.5 {
		t.Fatalf("exponential smoother should snap to target, got %f", got)
	}
}

func TestExponentialMonotone(t *testing.T) {
	s := New(Exponential, 0.05, 48000, 1)
	s.SetTarget(0)
	prev := s.Current()
	for i := 0; i < 10000; i++ {
		v := s.Next()
		if v > prev+1e-12 {
			t.Fatalf("downward ramp increased at step %d: %f -> %f", i, prev, v)
		}
		if v < -1e-12 {
			t.Fatalf("undershoot at step %d: %f", i, v)
		}
		prev = v
	}
}

func TestRetargetMidRamp(t *testing.T) {
	s := New(Linear, 0.02, 48000, 0)
	s.SetTarget(1)
	for i := 0; i < 300; i++ {
		s.Next()
	}
	s.SetTarget(0.1)
	for i := 0; i < 48000; i++ {
		s.Next()
	}
	if got := s.Current(); got != 0.1 {
		t.Fatalf("retarget mid-ramp should converge to new target, got %f", got)
	}
}

func TestNaNTargetIgnored(t *testing.T) {
	s := New(Linear, 0.01, 48000, 0.3)
	s.SetTarget(math.NaN())
	if got := s.Target(); got != 0.3 {
		t.Fatalf("NaN target should be dropped, target is %f", got)
	}
	for i := 0; i < 100; i++ {
		if v := s.Next(); math.IsNaN(v) {
			t.Fatal("NaN leaked into the ramp")
		}
	}
}

func TestZeroRampJumpsImmediately(t *testing.T) {
	s := New(Linear, 0, 48000, 0)
	s.SetTarget(0.7)
	if got := s.Next(); got != 0.7 {
		t.Fatalf("zero ramp should jump on the next sample, got %f", got)
	}
}

// TestConcurrentSetTarget drives SetTarget from another goroutine while the
// ramp advances, mirroring a host thread automating against the audio thread.
func TestConcurrentSetTarget(t *testing.T) {
	s := New(Exponential, 0.005, 48000, 0)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.SetTarget(float64(i%10) / 10)
		}
	}()
	for i := 0; i < 20000; i++ {
		v := s.Next()
		if math.IsNaN(v) || v < -1e-9 || v > 1+1e-9 {
			t.Fatalf("ramp left the target range: %f", v)
		}
	}
	wg.Wait()
}

func BenchmarkSmootherNext(b *testing.B) {
	s := New(Exponential, 0.02, 48000, 0)
	s.SetTarget(1)
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += s.Next()
	}
	_ = sink
}
