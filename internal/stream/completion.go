package stream

import "context"

// Completion is a deferred action that yields no value.
type Completion struct {
	run func(ctx context.Context) error
}

// FromAction defers fn until the completion is awaited.
func FromAction(fn func(ctx context.Context) error) Completion {
	return Completion{run: fn}
}

// Await runs the action and returns its error.
func (c Completion) Await(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.run == nil {
		return nil
	}
	return c.run(ctx)
}

// Stream views the completion as a stream that never emits.
func (c Completion) Stream() Stream[struct{}] {
	return New(func(ctx context.Context, _ func(struct{}) bool) error {
		return c.Await(ctx)
	})
}
