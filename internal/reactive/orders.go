package reactive

import (
	"context"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// Orders places and cancels orders. Each subscription sends a new request;
// retrying after an unclear outcome may place the order twice.
type Orders struct {
	handles handleSource[openapi.OrdersContext]
}

// NewOrders binds an orders adapter to the client's orders handle factory.
func NewOrders(api openapi.Client, opts ...Option) (*Orders, error) {
	if err := requireClient(api, DomainOrders); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.OrdersContext](DomainOrders, DefaultOrdersRate, api.Orders, opts)
	if err != nil {
		return nil, err
	}
	return &Orders{handles: hs}, nil
}

// PlaceLimitOrder places a limit order on the given account.
func (o *Orders) PlaceLimitOrder(figi string, req openapi.LimitOrderRequest, brokerAccountID string) stream.Optional[openapi.PlacedLimitOrder] {
	return value(o.handles, func(ctx context.Context, h openapi.OrdersContext) (openapi.PlacedLimitOrder, error) {
		return h.PlaceLimitOrder(ctx, figi, req, brokerAccountID)
	})
}

// PlaceMarketOrder places a market order on the given account.
func (o *Orders) PlaceMarketOrder(figi string, req openapi.MarketOrderRequest, brokerAccountID string) stream.Optional[openapi.PlacedMarketOrder] {
	return value(o.handles, func(ctx context.Context, h openapi.OrdersContext) (openapi.PlacedMarketOrder, error) {
		return h.PlaceMarketOrder(ctx, figi, req, brokerAccountID)
	})
}

// CancelOrder withdraws an active order.
func (o *Orders) CancelOrder(orderID, brokerAccountID string) stream.Completion {
	return action(o.handles, func(ctx context.Context, h openapi.OrdersContext) error {
		return h.CancelOrder(ctx, orderID, brokerAccountID)
	})
}

// Invalidate drops a cached orders handle.
func (o *Orders) Invalidate() {
	o.handles.invalidate()
}
