package backoff

import (
	"testing"
	"time"
)

func TestExponentialDoublesAndCaps(t *testing.T) {
	s := Exponential{Initial: time.Second, Max: 10 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, expected := range want {
		if got := s.Delay(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}

func TestExponentialTreatsZeroAttemptAsFirst(t *testing.T) {
	s := Exponential{Initial: time.Second}
	if got := s.Delay(0); got != time.Second {
		t.Fatalf("expected 1s, got %s", got)
	}
}

func TestJitteredStaysInBounds(t *testing.T) {
	s := Jittered{Initial: 2 * time.Second, Max: time.Minute}
	for attempt := 1; attempt <= 10; attempt++ {
		ceiling := Exponential{Initial: s.Initial, Max: s.Max}.Delay(attempt)
		for i := 0; i < 50; i++ {
			got := s.Delay(attempt)
			if got < s.Initial/2 || got > ceiling {
				t.Fatalf("attempt %d: delay %s outside [%s, %s]", attempt, got, s.Initial/2, ceiling)
			}
		}
	}
}

func TestConstant(t *testing.T) {
	s := Constant{Interval: 3 * time.Second}
	if s.Delay(1) != 3*time.Second || s.Delay(7) != 3*time.Second {
		t.Fatal("expected constant delay")
	}
}
