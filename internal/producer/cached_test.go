package producer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"
)

type slowSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *slowSource) Acquire(ctx context.Context) (*handle, error) {
	n := s.calls.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &handle{id: int(n)}, nil
}

type stepClock struct{ now atomic.Int64 }

func (c *stepClock) Now() time.Time { return time.Unix(0, c.now.Load()) }

func (c *stepClock) Advance(d time.Duration) { c.now.Add(int64(d)) }

func TestCachedReusesHandleWithinTTL(t *testing.T) {
	src := &slowSource{}
	clock := new(stepClock)
	cached := NewCached[*handle](src, time.Minute, WithCacheClock[*handle](clock.Now))

	first, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	second, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), src.calls.Load())

	clock.Advance(time.Minute)
	third, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestCachedInvalidateForcesRebuild(t *testing.T) {
	src := &slowSource{}
	cached := NewCached[*handle](src, 0)

	first, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	cached.Invalidate()
	second, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestCachedInvalidateDuringAcquisitionStartsFresh(t *testing.T) {
	src := &slowSource{delay: 80 * time.Millisecond}
	cached := NewCached[*handle](src, 0)

	var (
		stale    *handle
		staleErr error
		wg       conc.WaitGroup
	)
	wg.Go(func() {
		stale, staleErr = cached.Acquire(context.Background())
	})
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	cached.Invalidate()
	fresh, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, staleErr)

	require.Equal(t, int32(2), src.calls.Load())
	require.NotSame(t, stale, fresh)
	require.Equal(t, 2, fresh.id)

	again, err := cached.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, fresh, again)
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	src := &slowSource{delay: 50 * time.Millisecond}
	cached := NewCached[*handle](src, time.Minute)

	results := make([]*handle, 8)
	errs := make([]error, 8)
	var wg conc.WaitGroup
	for i := range results {
		wg.Go(func() {
			results[i], errs[i] = cached.Acquire(context.Background())
		})
	}
	wg.Wait()

	require.Equal(t, int32(1), src.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	boom := errors.New("boom")
	src := &slowSource{err: boom}
	cached := NewCached[*handle](src, time.Minute)

	_, err := cached.Acquire(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = cached.Acquire(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestCachedOverProducer(t *testing.T) {
	var calls atomic.Int32
	p, err := New(2, countingFactory(&calls))
	require.NoError(t, err)
	cached := NewCached[*handle](p, time.Minute)

	for i := 0; i < 3; i++ {
		h, err := cached.Acquire(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, h.id)
	}
	require.Equal(t, int32(1), calls.Load(), "cached handles skip further admission")
}

func TestCachedHonoursCallerCancellation(t *testing.T) {
	src := &slowSource{delay: time.Second}
	cached := NewCached[*handle](src, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := cached.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
