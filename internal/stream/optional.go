package stream

import "context"

// Optional is a deferred value that may be absent. Absence is a successful
// empty result, not an error.
type Optional[T any] struct {
	run func(ctx context.Context) (T, bool, error)
}

// FromPointer defers fetch until the value is requested. A nil pointer means absent.
func FromPointer[T any](fetch func(ctx context.Context) (*T, error)) Optional[T] {
	return Optional[T]{run: func(ctx context.Context) (T, bool, error) {
		var zero T
		v, err := fetch(ctx)
		if err != nil {
			return zero, false, err
		}
		if v == nil {
			return zero, false, nil
		}
		return *v, true, nil
	}}
}

// FromValue defers fetch until the value is requested. A successful fetch is always present.
func FromValue[T any](fetch func(ctx context.Context) (T, error)) Optional[T] {
	return Optional[T]{run: func(ctx context.Context) (T, bool, error) {
		v, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		return v, true, nil
	}}
}

// None returns an Optional that is always absent.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get runs the pipeline and reports the value and whether it was present.
func (o Optional[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if o.run == nil {
		return zero, false, nil
	}
	return o.run(ctx)
}

// Stream views the optional as a stream of zero or one element.
func (o Optional[T]) Stream() Stream[T] {
	return New(func(ctx context.Context, emit func(T) bool) error {
		v, ok, err := o.Get(ctx)
		if err != nil || !ok {
			return err
		}
		emit(v)
		return nil
	})
}

// MapOptional transforms a present value.
func MapOptional[T, U any](o Optional[T], fn func(T) U) Optional[U] {
	return Optional[U]{run: func(ctx context.Context) (U, bool, error) {
		var zero U
		v, ok, err := o.Get(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		return fn(v), true, nil
	}}
}

// Flatten emits the elements of the list extracted from a present value.
// An absent value completes without elements.
func Flatten[T, U any](o Optional[T], list func(T) []U) Stream[U] {
	return FromList(func(ctx context.Context) ([]U, error) {
		v, ok, err := o.Get(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return list(v), nil
	})
}
