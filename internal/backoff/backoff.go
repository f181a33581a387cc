// Package backoff computes how long a failed notification waits before the
// queue hands it to a worker again.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy returns the delay before retry attempt n (1-indexed).
type Strategy interface {
	Delay(attempt int) time.Duration
}

type Constant struct {
	Interval time.Duration
}

func (c Constant) Delay(int) time.Duration {
	return c.Interval
}

// Exponential doubles from Initial on every attempt, capped at Max.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

func (e Exponential) Delay(attempt int) time.Duration {
	return time.Duration(capped(e.Initial, e.Max, attempt))
}

// Jittered picks a random delay in [Initial/2, exponential cap] so that a burst
// of failures does not retry in lockstep.
type Jittered struct {
	Initial time.Duration
	Max     time.Duration
}

func (j Jittered) Delay(attempt int) time.Duration {
	ceiling := capped(j.Initial, j.Max, attempt)
	floor := float64(j.Initial) / 2
	if ceiling <= floor {
		return time.Duration(ceiling)
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor)) //nolint:gosec // jitter does not need crypto rand
}

func capped(initial, maxDelay time.Duration, attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if maxDelay > 0 && d > float64(maxDelay) {
		return float64(maxDelay)
	}
	return d
}

// Default matches the worker defaults: 5s initial, 5m cap, jittered.
func Default() Strategy {
	return Jittered{Initial: 5 * time.Second, Max: 5 * time.Minute}
}
