package provider

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between outbound requests. Each client
// owns its own instance so separate adapters never share timing state.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottle builds a throttle with the given minimum call interval. A zero
// or negative interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed, or the
// context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	wait := t.interval - now.Sub(t.last)
	if wait < 0 {
		wait = 0
	}
	t.last = now.Add(wait)
	t.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
