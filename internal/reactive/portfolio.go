package reactive

import (
	"context"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// Portfolio streams held positions and cash balances.
type Portfolio struct {
	handles handleSource[openapi.PortfolioContext]
}

// NewPortfolio binds a portfolio adapter to the client's portfolio handle factory.
func NewPortfolio(api openapi.Client, opts ...Option) (*Portfolio, error) {
	if err := requireClient(api, DomainPortfolio); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.PortfolioContext](DomainPortfolio, DefaultPortfolioRate, api.Portfolio, opts)
	if err != nil {
		return nil, err
	}
	return &Portfolio{handles: hs}, nil
}

// Positions streams the instrument positions of the given account.
func (p *Portfolio) Positions(brokerAccountID string) stream.Stream[openapi.PortfolioPosition] {
	return list(p.handles, func(ctx context.Context, h openapi.PortfolioContext) ([]openapi.PortfolioPosition, error) {
		portfolio, err := h.Portfolio(ctx, brokerAccountID)
		if err != nil {
			return nil, err
		}
		return portfolio.Positions, nil
	})
}

// Currencies streams the cash balances of the given account.
func (p *Portfolio) Currencies(brokerAccountID string) stream.Stream[openapi.CurrencyPosition] {
	return list(p.handles, func(ctx context.Context, h openapi.PortfolioContext) ([]openapi.CurrencyPosition, error) {
		currencies, err := h.PortfolioCurrencies(ctx, brokerAccountID)
		if err != nil {
			return nil, err
		}
		return currencies.Currencies, nil
	})
}

// Invalidate drops a cached portfolio handle.
func (p *Portfolio) Invalidate() {
	p.handles.invalidate()
}
