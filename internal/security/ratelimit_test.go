package security

import (
	"errors"
	"testing"
	"time"
)

func TestRateLimiterUnderLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{RequestsPerMin: 5})
	for i := 0; i < 5; i++ {
		if err := rl.Allow("key-a"); err != nil {
			t.Fatalf("request %d unexpectedly limited: %v", i, err)
		}
	}
}

func TestRateLimiterAtLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{RequestsPerMin: 3})
	for i := 0; i < 3; i++ {
		if err := rl.Allow("key-a"); err != nil {
			t.Fatalf("request %d unexpectedly limited: %v", i, err)
		}
	}
	if err := rl.Allow("key-a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiterPerCaller(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{RequestsPerMin: 1})
	if err := rl.Allow("key-a"); err != nil {
		t.Fatalf("key-a first request limited: %v", err)
	}
	if err := rl.Allow("key-b"); err != nil {
		t.Fatalf("key-b must have its own window: %v", err)
	}
	if err := rl.Allow("key-a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected key-a to be limited, got %v", err)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{RequestsPerMin: 2})
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	if err := rl.Allow("key"); err != nil {
		t.Fatalf("first request limited: %v", err)
	}
	if err := rl.Allow("key"); err != nil {
		t.Fatalf("second request limited: %v", err)
	}
	if err := rl.Allow("key"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}

	// After the window passes, the old timestamps are evicted.
	current = current.Add(61 * time.Second)
	if err := rl.Allow("key"); err != nil {
		t.Fatalf("expected window to slide, got %v", err)
	}
}

func TestRateLimiterDefaultLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	if rl.limit != defaultRequestsPerMin {
		t.Fatalf("expected default limit %d, got %d", defaultRequestsPerMin, rl.limit)
	}
}
