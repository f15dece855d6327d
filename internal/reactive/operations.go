package reactive

import (
	"context"
	"time"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// Operations streams the operations journal.
type Operations struct {
	handles handleSource[openapi.OperationsContext]
}

// NewOperations binds an operations adapter to the client's operations handle factory.
func NewOperations(api openapi.Client, opts ...Option) (*Operations, error) {
	if err := requireClient(api, DomainOperations); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.OperationsContext](DomainOperations, DefaultOperationsRate, api.Operations, opts)
	if err != nil {
		return nil, err
	}
	return &Operations{handles: hs}, nil
}

// Operations streams past operations between from and to. An empty figi
// matches every instrument.
func (o *Operations) Operations(from, to time.Time, figi, brokerAccountID string) stream.Stream[openapi.Operation] {
	return list(o.handles, func(ctx context.Context, h openapi.OperationsContext) ([]openapi.Operation, error) {
		ops, err := h.Operations(ctx, from, to, figi, brokerAccountID)
		if err != nil {
			return nil, err
		}
		return ops.Operations, nil
	})
}

// Invalidate drops a cached operations handle.
func (o *Operations) Invalidate() {
	o.handles.invalidate()
}
