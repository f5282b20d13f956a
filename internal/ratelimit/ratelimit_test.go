package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"grimoire/internal/ratelimit"
)

func TestNewRejectsNonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		if _, err := ratelimit.New(rate); err == nil {
			t.Fatalf("expected error for rate %v", rate)
		}
	}
}

func TestWaitEnforcesMinimumInterval(t *testing.T) {
	limiter, err := ratelimit.New(100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	start := time.Now()
	const calls = 5
	for i := 0; i < calls; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// 5 calls at 100 req/s require at least 4 gaps of 10ms. No burst
	// allowance means the gaps cannot collapse.
	if min := 4 * 10 * time.Millisecond; elapsed < min {
		t.Fatalf("expected at least %v of pacing, got %v", min, elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	limiter, err := ratelimit.New(0.1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(cancelCtx); err == nil {
		t.Fatal("expected context deadline to abort the wait")
	}
}
