package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Stepped delays applied before each search call, based on how many calls
// already went out in the current one-minute window.
const (
	delayBaseline = 1 * time.Second
	delayShort    = 2 * time.Second
	delayMedium   = 3 * time.Second
	delayLongest  = 5 * time.Second
	// cooldownDelay is applied after a provider-side rate limit, before the
	// single retry. Longer than the longest stepped delay.
	cooldownDelay = 10 * time.Second

	rateWindow = time.Minute
)

// RateLimiter paces outgoing search calls and rotates the configured API keys
// round-robin. All state is guarded by the mutex; there is no package-level
// state.
type RateLimiter struct {
	mu          sync.Mutex
	keys        []string
	keyIndex    int
	windowStart time.Time
	callCount   int

	// Injected for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a RateLimiter over the given API keys.
func NewRateLimiter(keys []string) (*RateLimiter, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one search API key is required")
	}

	r := &RateLimiter{
		keys:  keys,
		now:   time.Now,
		sleep: sleepCtx,
	}
	r.windowStart = r.now()

	log.Printf("[RateLimiter] Initialized with %d API key(s)", len(keys))
	return r, nil
}

// Acquire blocks for the stepped delay owed by the current window, then
// returns the next API key in rotation. The call is counted against the
// window before sleeping, so concurrent callers each pay their own delay.
func (r *RateLimiter) Acquire(ctx context.Context) (string, error) {
	r.mu.Lock()

	now := r.now()
	if now.Sub(r.windowStart) >= rateWindow {
		r.windowStart = now
		r.callCount = 0
	}
	r.callCount++

	delay := delayForCount(r.callCount)
	key := r.keys[r.keyIndex%len(r.keys)]
	r.keyIndex++

	count := r.callCount
	r.mu.Unlock()

	if count > 30 {
		log.Printf("[RateLimiter] Heavy window: call %d this minute, delaying %s", count, delay)
	}

	if err := r.sleep(ctx, delay); err != nil {
		return "", err
	}
	return key, nil
}

// Cooldown sleeps out the provider-imposed backoff after a rate-limit
// response. The current window is reset so the retry starts from the
// baseline delay.
func (r *RateLimiter) Cooldown(ctx context.Context) {
	log.Printf("[RateLimiter] Provider rate limit hit, cooling down for %s", cooldownDelay)
	_ = r.sleep(ctx, cooldownDelay)

	r.mu.Lock()
	r.windowStart = r.now()
	r.callCount = 0
	r.mu.Unlock()
}

// delayForCount maps the position of a call within the window to its delay.
func delayForCount(count int) time.Duration {
	switch {
	case count <= 10:
		return delayBaseline
	case count <= 20:
		return delayShort
	case count <= 30:
		return delayMedium
	default:
		return delayLongest
	}
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
