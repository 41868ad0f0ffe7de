package provider

import (
	"context"
	"testing"
	"time"
)

func TestThrottleEnforcesInterval(t *testing.T) {
	t.Parallel()

	interval := 30 * time.Millisecond
	throttle := NewThrottle(interval)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("three calls finished in %v, want at least %v", elapsed, 2*interval)
	}
}

func TestThrottleZeroIntervalIsNoop(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := throttle.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("unexpected blocking: %v", elapsed)
	}
}

func TestThrottleHonorsCancellation(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancel()
	if err := throttle.Wait(ctx); err == nil {
		t.Fatal("expected context error on cancelled wait")
	}
}
