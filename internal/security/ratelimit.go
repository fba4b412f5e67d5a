package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a caller exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds the configurable request rate limit.
type RateLimitConfig struct {
	// RequestsPerMin is the per-caller sliding-window limit. Defaults to 60.
	RequestsPerMin int `yaml:"requests_per_min"`
}

const defaultRequestsPerMin = 60

// RateLimiter implements per-caller sliding-window rate limiting.
// Each caller (API key) gets its own window of recent request timestamps.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	callers map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// A zero or negative limit falls back to the default.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limit := cfg.RequestsPerMin
	if limit <= 0 {
		limit = defaultRequestsPerMin
	}
	return &RateLimiter{
		window:  time.Minute,
		limit:   limit,
		callers: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow checks whether a request from the given caller is allowed.
// Returns nil if allowed, ErrRateLimited if the limit is exceeded.
func (rl *RateLimiter) Allow(caller string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	events := evict(rl.callers[caller], now.Add(-rl.window))

	if len(events) >= rl.limit {
		rl.callers[caller] = events
		return ErrRateLimited
	}

	rl.callers[caller] = append(events, now)
	return nil
}

// evict drops timestamps before the cutoff. Timestamps are chronologically
// ordered, so a single scan from the front suffices.
func evict(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		events = events[i:]
	}
	return events
}
