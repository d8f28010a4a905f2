package worker

import (
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		floor   time.Duration
	}{
		{attempt: 0, floor: 2 * time.Second},
		{attempt: 1, floor: 4 * time.Second},
		{attempt: 2, floor: 8 * time.Second},
		{attempt: 3, floor: 16 * time.Second},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)
		if got < tt.floor || got > tt.floor+250*time.Millisecond {
			t.Errorf("attempt %d: got %v, want within [%v, %v+250ms]", tt.attempt, got, tt.floor, tt.floor)
		}
	}
}

func TestExponentialBackoffCaps(t *testing.T) {
	capDelay := 5 * time.Minute

	for _, attempt := range []int{10, 20, 60} {
		got := ExponentialBackoff(attempt)
		if got > capDelay+250*time.Millisecond {
			t.Errorf("attempt %d: %v exceeds cap", attempt, got)
		}
	}
}
