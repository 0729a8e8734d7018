package openrouter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_AcquireAndRelease(t *testing.T) {
	p := NewPacer(3, time.Nanosecond)
	ctx := context.Background()

	release1, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.InFlight())

	release2, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.InFlight())

	release1()
	release2()
	assert.Equal(t, 0, p.InFlight())
}

func TestPacer_BlocksWhenFull(t *testing.T) {
	p := NewPacer(2, time.Nanosecond)
	ctx := context.Background()

	var releases []func()
	for i := 0; i < 2; i++ {
		release, err := p.Acquire(ctx)
		require.NoError(t, err)
		releases = append(releases, release)
	}

	timed, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := p.Acquire(timed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	for _, release := range releases {
		release()
	}
	assert.Equal(t, 0, p.InFlight())
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(1, time.Nanosecond)

	release, err := p.Acquire(context.Background())
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Acquire(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	release()
}

func TestPacer_MinDelaySpacesRequests(t *testing.T) {
	p := NewPacer(10, 50*time.Millisecond)
	ctx := context.Background()

	release, err := p.Acquire(ctx)
	require.NoError(t, err)
	release()

	start := time.Now()
	release, err = p.Acquire(ctx)
	require.NoError(t, err)
	release()

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacer_ConcurrencyNeverExceedsCap(t *testing.T) {
	p := NewPacer(4, time.Nanosecond)
	ctx := context.Background()

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := p.Acquire(ctx)
			if err != nil {
				return
			}
			defer release()

			current := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(peak), 4)
	assert.Equal(t, 0, p.InFlight())
}

func TestNewPacer_Defaults(t *testing.T) {
	p := NewPacer(0, 0)
	assert.Equal(t, DefaultMaxConcurrent, cap(p.slots))
	assert.Equal(t, DefaultMinDelay, p.minDelay)
}
