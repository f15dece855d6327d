// Package openapi describes the remote trading API consumed by investflow.
//
// A Client hands out one handle per API domain. Handle methods block until
// the remote call finishes or ctx ends. An empty broker account id selects
// the default account. Methods returning a pointer use nil for "not found".
package openapi

import (
	"context"
	"time"
)

// Client builds per-domain handles. Each factory may be expensive and may fail.
type Client interface {
	Market() (MarketContext, error)
	Orders() (OrdersContext, error)
	Portfolio() (PortfolioContext, error)
	Operations() (OperationsContext, error)
	Sandbox() (SandboxContext, error)
	User() (UserContext, error)
}

// MarketContext serves instrument catalogues and market data.
type MarketContext interface {
	MarketStocks(ctx context.Context) (InstrumentList, error)
	MarketBonds(ctx context.Context) (InstrumentList, error)
	MarketEtfs(ctx context.Context) (InstrumentList, error)
	MarketCurrencies(ctx context.Context) (InstrumentList, error)
	MarketOrderbook(ctx context.Context, figi string, depth int) (*Orderbook, error)
	MarketCandles(ctx context.Context, figi string, from, to time.Time, interval CandleResolution) (*Candles, error)
	SearchMarketInstrumentsByTicker(ctx context.Context, ticker string) (InstrumentList, error)
	SearchMarketInstrumentByFigi(ctx context.Context, figi string) (*SearchMarketInstrument, error)
}

// OrdersContext places, lists and cancels orders.
type OrdersContext interface {
	Orders(ctx context.Context, brokerAccountID string) ([]Order, error)
	PlaceLimitOrder(ctx context.Context, figi string, req LimitOrderRequest, brokerAccountID string) (PlacedLimitOrder, error)
	PlaceMarketOrder(ctx context.Context, figi string, req MarketOrderRequest, brokerAccountID string) (PlacedMarketOrder, error)
	CancelOrder(ctx context.Context, orderID, brokerAccountID string) error
}

// PortfolioContext reports held positions.
type PortfolioContext interface {
	Portfolio(ctx context.Context, brokerAccountID string) (Portfolio, error)
	PortfolioCurrencies(ctx context.Context, brokerAccountID string) (Currencies, error)
}

// OperationsContext reports the operations journal.
type OperationsContext interface {
	Operations(ctx context.Context, from, to time.Time, figi, brokerAccountID string) (Operations, error)
}

// SandboxContext manages sandbox accounts and balances.
type SandboxContext interface {
	Register(ctx context.Context, req SandboxRegisterRequest) (SandboxAccount, error)
	SetCurrencyBalance(ctx context.Context, req SandboxSetCurrencyBalanceRequest, brokerAccountID string) error
	SetPositionBalance(ctx context.Context, req SandboxSetPositionBalanceRequest, brokerAccountID string) error
	RemoveAccount(ctx context.Context, brokerAccountID string) error
	ClearAll(ctx context.Context, brokerAccountID string) error
}

// UserContext lists the user's broker accounts.
type UserContext interface {
	Accounts(ctx context.Context) (UserAccounts, error)
}
