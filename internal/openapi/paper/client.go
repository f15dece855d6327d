// Package paper implements an in-memory trading client for local runs and tests.
//
// Prices are fixed per instrument, so order books and candles are
// deterministic. Orders fill immediately when marketable and rest otherwise.
package paper

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
)

const component = "paper"

// Client is an in-memory openapi.Client.
type Client struct {
	opts Options

	mu          sync.Mutex
	instruments []Instrument
	byFigi      map[string]Instrument
	accounts    map[string]*account
	accountSeq  []string
	failures    map[Handle]error
	built       map[Handle]int
}

type position struct {
	balance      decimal.Decimal
	averagePrice decimal.Decimal
}

type account struct {
	id         string
	kind       openapi.BrokerAccountType
	currencies map[openapi.Currency]decimal.Decimal
	positions  map[string]*position
	orders     []openapi.Order
	operations []openapi.Operation
}

var _ openapi.Client = (*Client)(nil)

// New constructs a paper client with a funded default account.
func New(opts Options) *Client {
	opts = withDefaults(opts)
	c := &Client{
		opts:        opts,
		instruments: append([]Instrument(nil), opts.Instruments...),
		byFigi:      make(map[string]Instrument, len(opts.Instruments)),
		accounts:    make(map[string]*account),
		failures:    make(map[Handle]error, len(opts.HandleFailures)),
		built:       make(map[Handle]int),
	}
	for _, inst := range c.instruments {
		c.byFigi[inst.Figi] = inst
	}
	for h, err := range opts.HandleFailures {
		c.failures[h] = err
	}
	def := newAccount(opts.DefaultAccountID, openapi.BrokerAccountTinkoff)
	for cur, bal := range opts.InitialBalances {
		def.currencies[cur] = bal
	}
	c.accounts[def.id] = def
	c.accountSeq = append(c.accountSeq, def.id)
	return c
}

func newAccount(id string, kind openapi.BrokerAccountType) *account {
	return &account{
		id:         id,
		kind:       kind,
		currencies: make(map[openapi.Currency]decimal.Decimal),
		positions:  make(map[string]*position),
	}
}

// DefaultAccountID returns the account used when callers pass an empty id.
func (c *Client) DefaultAccountID() string {
	return c.opts.DefaultAccountID
}

// SetHandleFailure makes the named handle factory fail with err. A nil err clears the failure.
func (c *Client) SetHandleFailure(h Handle, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, h)
		return
	}
	c.failures[h] = err
}

// Built reports how many handles of the given kind have been constructed.
func (c *Client) Built(h Handle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built[h]
}

func (c *Client) build(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failures[h]; err != nil {
		return err
	}
	c.built[h]++
	return nil
}

// Market returns a market data handle.
func (c *Client) Market() (openapi.MarketContext, error) {
	if err := c.build(HandleMarket); err != nil {
		return nil, err
	}
	return marketHandle{c: c}, nil
}

// Orders returns an orders handle.
func (c *Client) Orders() (openapi.OrdersContext, error) {
	if err := c.build(HandleOrders); err != nil {
		return nil, err
	}
	return ordersHandle{c: c}, nil
}

// Portfolio returns a portfolio handle.
func (c *Client) Portfolio() (openapi.PortfolioContext, error) {
	if err := c.build(HandlePortfolio); err != nil {
		return nil, err
	}
	return portfolioHandle{c: c}, nil
}

// Operations returns an operations journal handle.
func (c *Client) Operations() (openapi.OperationsContext, error) {
	if err := c.build(HandleOperations); err != nil {
		return nil, err
	}
	return operationsHandle{c: c}, nil
}

// Sandbox returns a sandbox handle.
func (c *Client) Sandbox() (openapi.SandboxContext, error) {
	if err := c.build(HandleSandbox); err != nil {
		return nil, err
	}
	return sandboxHandle{c: c}, nil
}

// User returns a user accounts handle.
func (c *Client) User() (openapi.UserContext, error) {
	if err := c.build(HandleUser); err != nil {
		return nil, err
	}
	return userHandle{c: c}, nil
}

// call simulates network latency and honours cancellation.
func (c *Client) call(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.opts.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// accountLocked resolves an account id; empty selects the default account.
func (c *Client) accountLocked(id string) (*account, error) {
	if id == "" {
		id = c.opts.DefaultAccountID
	}
	acct, ok := c.accounts[id]
	if !ok {
		return nil, errs.New(component, errs.CodeNotFound,
			errs.WithMessage("broker account not found"),
			errs.WithField("broker_account_id", id))
	}
	return acct, nil
}

func (c *Client) instrumentsOf(kind openapi.InstrumentType) openapi.InstrumentList {
	out := make([]openapi.MarketInstrument, 0, len(c.instruments))
	for _, inst := range c.instruments {
		if inst.Type == kind {
			out = append(out, inst.MarketInstrument)
		}
	}
	return openapi.InstrumentList{Total: len(out), Instruments: out}
}

func newID() string {
	return uuid.NewString()
}

func sortedCurrencies(m map[openapi.Currency]decimal.Decimal) []openapi.Currency {
	keys := make([]openapi.Currency, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
