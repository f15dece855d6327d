package producer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cached memoizes handles from a Source for a fixed time to live.
//
// A zero TTL keeps a handle until Invalidate is called. Concurrent misses
// share a single acquisition, so the source sees one admission per refresh.
// Acquisitions are keyed by invalidation epoch: a miss after Invalidate never
// joins an acquisition that started before it.
type Cached[T any] struct {
	source Source[T]
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	handle    T
	expiresAt time.Time
	valid     bool
	epoch     uint64
}

// CachedOption configures a Cached source.
type CachedOption[T any] func(*Cached[T])

// WithCacheClock overrides the time source, primarily for testing.
func WithCacheClock[T any](now func() time.Time) CachedOption[T] {
	return func(c *Cached[T]) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCached wraps source with a memoization layer.
func NewCached[T any](source Source[T], ttl time.Duration, opts ...CachedOption[T]) *Cached[T] {
	c := &Cached[T]{source: source, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Acquire returns the memoized handle or acquires a new one from the source.
// Failed acquisitions are not cached. A shared acquisition runs under the
// context of the caller that started it; if that context ends, waiters whose
// own context is still live start a new one.
func (c *Cached[T]) Acquire(ctx context.Context) (T, error) {
	var zero T
	for {
		if h, ok := c.lookup(); ok {
			return h, nil
		}
		c.mu.Lock()
		epoch := c.epoch
		c.mu.Unlock()

		ch := c.group.DoChan(strconv.FormatUint(epoch, 10), func() (any, error) {
			h, err := c.source.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			c.store(epoch, h)
			return h, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				h, _ := res.Val.(T)
				return h, nil
			}
			if ctx.Err() == nil && (errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded)) {
				continue
			}
			return zero, res.Err
		}
	}
}

func (c *Cached[T]) lookup() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && (c.ttl <= 0 || c.now().Before(c.expiresAt)) {
		return c.handle, true
	}
	var zero T
	return zero, false
}

func (c *Cached[T]) store(epoch uint64, h T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.handle = h
	c.valid = true
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate drops the memoized handle so the next Acquire builds a new one.
func (c *Cached[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.handle = zero
	c.valid = false
	c.epoch++
}
