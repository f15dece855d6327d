package reactive

import (
	"context"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// OrdersList streams active orders. It has its own producer so listing does
// not compete with order placement for admissions.
type OrdersList struct {
	handles handleSource[openapi.OrdersContext]
}

// NewOrdersList binds an orders list adapter to the client's orders handle factory.
func NewOrdersList(api openapi.Client, opts ...Option) (*OrdersList, error) {
	if err := requireClient(api, DomainOrdersList); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.OrdersContext](DomainOrdersList, DefaultOrdersListRate, api.Orders, opts)
	if err != nil {
		return nil, err
	}
	return &OrdersList{handles: hs}, nil
}

// Orders streams the active orders of the given account.
func (o *OrdersList) Orders(brokerAccountID string) stream.Stream[openapi.Order] {
	return list(o.handles, func(ctx context.Context, h openapi.OrdersContext) ([]openapi.Order, error) {
		return h.Orders(ctx, brokerAccountID)
	})
}

// Invalidate drops a cached orders handle.
func (o *OrdersList) Invalidate() {
	o.handles.invalidate()
}
