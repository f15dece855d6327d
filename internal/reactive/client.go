package reactive

import (
	"fmt"

	"github.com/coachpo/investflow/internal/config"
	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/producer"
)

// Client groups the seven domain adapters built over one API client.
type Client struct {
	Market     *Market
	Orders     *Orders
	OrdersList *OrdersList
	Portfolio  *Portfolio
	Operations *Operations
	Sandbox    *Sandbox
	User       *User
}

// NewClient builds every adapter from api. cfg supplies per-domain rates,
// caching and retry timing; opts apply to all adapters after cfg.
func NewClient(api openapi.Client, cfg config.Producers, opts ...Option) (*Client, error) {
	if err := requireClient(api, "client"); err != nil {
		return nil, err
	}
	withDomain := func(d config.DomainConfig) []Option {
		out := []Option{WithRate(d.Rate)}
		var popts []producer.Option
		if cfg.RetryDelay > 0 {
			popts = append(popts, producer.WithRetryDelay(cfg.RetryDelay))
		}
		if cfg.MaxWait > 0 {
			popts = append(popts, producer.WithMaxWait(cfg.MaxWait))
		}
		if len(popts) > 0 {
			out = append(out, WithProducerOptions(popts...))
		}
		if d.Cache.Enabled {
			out = append(out, WithHandleCache(d.Cache.TTL))
		}
		return append(out, opts...)
	}

	var (
		c   Client
		err error
	)
	if c.Market, err = NewMarket(api, withDomain(cfg.Market)...); err != nil {
		return nil, fmt.Errorf("market adapter: %w", err)
	}
	if c.Orders, err = NewOrders(api, withDomain(cfg.Orders)...); err != nil {
		return nil, fmt.Errorf("orders adapter: %w", err)
	}
	if c.OrdersList, err = NewOrdersList(api, withDomain(cfg.OrdersList)...); err != nil {
		return nil, fmt.Errorf("orders list adapter: %w", err)
	}
	if c.Portfolio, err = NewPortfolio(api, withDomain(cfg.Portfolio)...); err != nil {
		return nil, fmt.Errorf("portfolio adapter: %w", err)
	}
	if c.Operations, err = NewOperations(api, withDomain(cfg.Operations)...); err != nil {
		return nil, fmt.Errorf("operations adapter: %w", err)
	}
	if c.Sandbox, err = NewSandbox(api, withDomain(cfg.Sandbox)...); err != nil {
		return nil, fmt.Errorf("sandbox adapter: %w", err)
	}
	if c.User, err = NewUser(api, withDomain(cfg.User)...); err != nil {
		return nil, fmt.Errorf("user adapter: %w", err)
	}
	return &c, nil
}
