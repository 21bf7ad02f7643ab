package resilience

import (
	"testing"
	"time"
)

func TestBackoff_Fixed(t *testing.T) {
	for attempt := 0; attempt < 5; attempt++ {
		d := Backoff(false, 5*time.Second, attempt)
		if d != 5*time.Second {
			t.Errorf("attempt %d: expected fixed 5s, got %v", attempt, d)
		}
	}
}

func TestBackoff_FixedDefaultsBase(t *testing.T) {
	d := Backoff(false, 0, 0)
	if d != 5*time.Second {
		t.Errorf("expected default 5s base, got %v", d)
	}
}

func TestBackoff_ExponentialGrows(t *testing.T) {
	base := 1 * time.Second
	prev := time.Duration(0)
	for attempt := 0; attempt < 4; attempt++ {
		d := Backoff(true, base, attempt)
		// Jitter is ±25%, so the midpoints must still be strictly increasing
		// across attempts: 1s, 2s, 4s, 8s.
		want := base * (1 << attempt)
		lo := time.Duration(float64(want) * 0.7)
		hi := time.Duration(float64(want) * 1.3)
		if d < lo || d > hi {
			t.Errorf("attempt %d: expected within [%v,%v], got %v", attempt, lo, hi, d)
		}
		if d <= prev/2 {
			t.Errorf("attempt %d: delay %v did not grow from %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestBackoff_Capped(t *testing.T) {
	d := Backoff(true, time.Minute, 20)
	// Cap is 5 minutes before jitter.
	if d > time.Duration(float64(5*time.Minute)*1.3) {
		t.Errorf("expected capped delay, got %v", d)
	}
}
