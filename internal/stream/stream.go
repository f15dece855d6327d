// Package stream provides cold, composable result streams.
//
// Nothing runs until a consumer subscribes, and every subscription runs the
// whole pipeline again from scratch. Cancellation flows through the context
// passed to the consumer.
package stream

import (
	"context"
	"iter"
)

// Stream is a lazy, finite, restartable sequence of elements.
type Stream[T any] struct {
	run func(ctx context.Context, emit func(T) bool) error
}

// New builds a stream from a producer function. run must stop emitting once emit returns false.
func New[T any](run func(ctx context.Context, emit func(T) bool) error) Stream[T] {
	return Stream[T]{run: run}
}

// Empty returns a stream that completes without elements.
func Empty[T any]() Stream[T] {
	return Stream[T]{}
}

// Of returns a stream emitting the given items in order.
func Of[T any](items ...T) Stream[T] {
	return FromList(func(context.Context) ([]T, error) { return items, nil })
}

// Fail returns a stream that fails with err on every subscription.
func Fail[T any](err error) Stream[T] {
	return New(func(context.Context, func(T) bool) error { return err })
}

// FromList defers fetch until subscription and emits each list element in order.
// An empty list completes immediately.
func FromList[T any](fetch func(ctx context.Context) ([]T, error)) Stream[T] {
	return New(func(ctx context.Context, emit func(T) bool) error {
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		for _, item := range items {
			if !emit(item) {
				return nil
			}
		}
		return nil
	})
}

// Subscribe runs the stream and hands each element to fn.
// It returns the first error from the stream, from fn, or from ctx.
func (s Stream[T]) Subscribe(ctx context.Context, fn func(T) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.run == nil {
		return nil
	}
	var fnErr error
	stopped := false
	err := s.run(ctx, func(item T) bool {
		if stopped {
			return false
		}
		if ctx.Err() != nil {
			stopped = true
			return false
		}
		if e := fn(item); e != nil {
			fnErr = e
			stopped = true
			return false
		}
		return true
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return err
	case stopped:
		return ctx.Err()
	}
	return nil
}

// Collect gathers every element into a slice.
func (s Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	err := s.Subscribe(ctx, func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All adapts the stream to a range-over-func iterator. A failure is yielded
// once as the final pair with a zero element.
func (s Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		halted := false
		err := s.Subscribe(ctx, func(item T) error {
			if !yield(item, nil) {
				halted = true
				return errHalted
			}
			return nil
		})
		if halted || err == nil {
			return
		}
		var zero T
		yield(zero, err)
	}
}

// Chan runs the stream in a goroutine and delivers elements over a channel.
// The error channel receives exactly one value (nil on success) after the
// element channel is closed.
func (s Stream[T]) Chan(ctx context.Context, buffer int) (<-chan T, <-chan error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan T, buffer)
	errc := make(chan error, 1)
	go func() {
		err := s.Subscribe(ctx, func(item T) error {
			select {
			case out <- item:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(out)
		errc <- err
		close(errc)
	}()
	return out, errc
}

// Map transforms each element.
func Map[T, U any](s Stream[T], fn func(T) U) Stream[U] {
	return New(func(ctx context.Context, emit func(U) bool) error {
		if s.run == nil {
			return nil
		}
		return s.run(ctx, func(item T) bool { return emit(fn(item)) })
	})
}

// Filter keeps the elements for which keep returns true.
func Filter[T any](s Stream[T], keep func(T) bool) Stream[T] {
	return New(func(ctx context.Context, emit func(T) bool) error {
		if s.run == nil {
			return nil
		}
		return s.run(ctx, func(item T) bool {
			if !keep(item) {
				return true
			}
			return emit(item)
		})
	})
}

// Take emits at most n elements and then stops the upstream.
func Take[T any](s Stream[T], n int) Stream[T] {
	return New(func(ctx context.Context, emit func(T) bool) error {
		if s.run == nil || n <= 0 {
			return nil
		}
		seen := 0
		return s.run(ctx, func(item T) bool {
			seen++
			if !emit(item) {
				return false
			}
			return seen < n
		})
	})
}

// FlatMap subscribes to the stream returned by fn for each element, in order.
func FlatMap[T, U any](s Stream[T], fn func(T) Stream[U]) Stream[U] {
	return New(func(ctx context.Context, emit func(U) bool) error {
		if s.run == nil {
			return nil
		}
		var innerErr error
		halted := false
		err := s.run(ctx, func(item T) bool {
			inner := fn(item)
			if inner.run == nil {
				return true
			}
			innerErr = inner.run(ctx, func(u U) bool {
				if !emit(u) {
					halted = true
					return false
				}
				return true
			})
			return innerErr == nil && !halted
		})
		if innerErr != nil {
			return innerErr
		}
		return err
	})
}

// Concat emits every element of each stream, one stream after another.
func Concat[T any](streams ...Stream[T]) Stream[T] {
	return FlatMap(Of(streams...), func(s Stream[T]) Stream[T] { return s })
}
