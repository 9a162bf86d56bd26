package autoclicker

import (
	"runtime"
	"sync/atomic"
	"time"
)

// PhaseDurations splits one click interval into the pressed and released
// phases. The two always sum to the full interval.
func PhaseDurations(cfg Config) (interval, press, release time.Duration) {
	interval = intervalDuration(cfg.IntervalMS)
	press = time.Duration(cfg.IntervalMS * cfg.DutyCyclePercent / 100 * float64(time.Millisecond))
	if press > interval {
		press = interval
	}
	if press < 0 {
		press = 0
	}
	release = interval - press
	return interval, press, release
}

type cancelToken struct {
	flag atomic.Bool
}

func (c *cancelToken) cancel() {
	c.flag.Store(true)
}

func (c *cancelToken) cancelled() bool {
	return c.flag.Load()
}

// spinUntil busy-waits until deadline, yielding between clock reads.
// It returns false if the token was cancelled first. A deadline already in
// the past returns immediately.
func spinUntil(deadline time.Time, token *cancelToken) bool {
	for time.Now().Before(deadline) {
		if token.cancelled() {
			return false
		}
		runtime.Gosched()
	}
	return !token.cancelled()
}
