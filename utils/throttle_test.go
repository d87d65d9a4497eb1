package utils

import (
	"testing"
	"time"
)

func TestThrottleNextStaysInWindow(t *testing.T) {
	th := NewThrottle(10*time.Millisecond, 30*time.Millisecond)

	for i := 0; i < 1000; i++ {
		d := th.Next()
		if d < 10*time.Millisecond || d > 30*time.Millisecond {
			t.Fatalf("Next() = %v, outside [10ms, 30ms]", d)
		}
	}
}

func TestThrottleDegenerateWindow(t *testing.T) {
	th := NewThrottle(5*time.Millisecond, 5*time.Millisecond)
	if d := th.Next(); d != 5*time.Millisecond {
		t.Errorf("Next() = %v, want 5ms for zero-width window", d)
	}
}

func TestThrottleClampsInvertedWindow(t *testing.T) {
	th := NewThrottle(20*time.Millisecond, 10*time.Millisecond)
	if d := th.Next(); d != 20*time.Millisecond {
		t.Errorf("Next() = %v, want min when max < min", d)
	}
}

func TestThrottleWaitSleepsAtLeastMin(t *testing.T) {
	th := NewThrottle(15*time.Millisecond, 25*time.Millisecond)

	start := time.Now()
	slept := th.Wait()
	elapsed := time.Since(start)

	if slept < 15*time.Millisecond {
		t.Errorf("Wait() reported %v, below window minimum", slept)
	}
	if elapsed < slept {
		t.Errorf("elapsed %v shorter than reported sleep %v", elapsed, slept)
	}
}
