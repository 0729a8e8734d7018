package openrouter

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxConcurrent caps in-flight completion requests per model
	DefaultMaxConcurrent = 5
	// DefaultMinDelay spaces out consecutive requests, which keeps burst
	// spend on pay-per-token models predictable
	DefaultMinDelay = 100 * time.Millisecond
)

// Pacer throttles outbound completion calls with a concurrency semaphore
// and a minimum inter-request delay. Each Model owns one; there is no
// package-level shared state.
type Pacer struct {
	slots       chan struct{}
	minDelay    time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

// NewPacer builds a pacer. Non-positive arguments fall back to the
// package defaults.
func NewPacer(maxConcurrent int, minDelay time.Duration) *Pacer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &Pacer{
		slots:    make(chan struct{}, maxConcurrent),
		minDelay: minDelay,
	}
}

// Acquire blocks until a slot is free and the inter-request delay has
// passed, or the context ends. The returned release function must be
// called once the request completes.
func (p *Pacer) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	elapsed := time.Since(p.lastRequest)
	if elapsed < p.minDelay {
		wait := p.minDelay - elapsed
		p.mu.Unlock()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-p.slots
			return nil, ctx.Err()
		}

		p.mu.Lock()
	}
	p.lastRequest = time.Now()
	p.mu.Unlock()

	return func() { <-p.slots }, nil
}

// InFlight returns the number of slots currently held.
func (p *Pacer) InFlight() int {
	return len(p.slots)
}
