package infrastructure

import (
	"sync/atomic"
	"time"
)

// MonotonicClock hands out unix-millisecond timestamps that never decrease, even if the
// wall clock steps backwards.
type MonotonicClock struct {
	now  func() time.Time
	last atomic.Int64
}

func NewMonotonicClock(now func() time.Time) *MonotonicClock {
	if now == nil {
		now = time.Now
	}
	return &MonotonicClock{now: now}
}

func (c *MonotonicClock) NowMillis() int64 {
	current := c.now().UnixMilli()
	for {
		last := c.last.Load()
		if current < last {
			current = last
		}
		if c.last.CompareAndSwap(last, current) {
			return current
		}
	}
}
