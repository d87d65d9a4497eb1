package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Throttle produces randomized human-like delays in a fixed [min,max] window.
// Uniform random pacing is a correctness requirement for the acquisition
// loop: fixed intervals are themselves an automation signal. The window is
// set once at construction and cannot be shortened afterwards.
type Throttle struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewThrottle creates a Throttle for the given window. A max below min is
// clamped up to min so the window is always well-formed.
func NewThrottle(min, max time.Duration) *Throttle {
	if max < min {
		max = min
	}
	return &Throttle{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a random duration drawn uniformly from [min, max].
func (t *Throttle) Next() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	span := t.max - t.min
	if span <= 0 {
		return t.min
	}
	return t.min + time.Duration(t.rng.Int63n(int64(span)+1))
}

// Wait sleeps for a freshly drawn delay and returns how long it slept.
func (t *Throttle) Wait() time.Duration {
	d := t.Next()
	time.Sleep(d)
	return d
}
