package paper

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/internal/openapi"
)

type portfolioHandle struct {
	c *Client
}

func (h portfolioHandle) Portfolio(ctx context.Context, brokerAccountID string) (openapi.Portfolio, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.Portfolio{}, err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return openapi.Portfolio{}, err
	}
	figis := make([]string, 0, len(acct.positions))
	for figi := range acct.positions {
		figis = append(figis, figi)
	}
	sort.Strings(figis)

	out := openapi.Portfolio{Positions: make([]openapi.PortfolioPosition, 0, len(figis))}
	for _, figi := range figis {
		pos := acct.positions[figi]
		inst := h.c.byFigi[figi]
		lots := 0
		if inst.Lot > 0 {
			lots = int(pos.balance.IntPart()) / inst.Lot
		}
		out.Positions = append(out.Positions, openapi.PortfolioPosition{
			Figi:           figi,
			Ticker:         inst.Ticker,
			Isin:           inst.Isin,
			InstrumentType: inst.Type,
			Balance:        pos.balance,
			Blocked:        blockedUnits(acct, figi, inst.Lot),
			ExpectedYield: &openapi.MoneyAmount{
				Currency: inst.Currency,
				Value:    inst.LastPrice.Sub(pos.averagePrice).Mul(pos.balance).Round(2),
			},
			Lots:                 lots,
			AveragePositionPrice: &openapi.MoneyAmount{Currency: inst.Currency, Value: pos.averagePrice.Round(4)},
			Name:                 inst.Name,
		})
	}
	return out, nil
}

func (h portfolioHandle) PortfolioCurrencies(ctx context.Context, brokerAccountID string) (openapi.Currencies, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.Currencies{}, err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return openapi.Currencies{}, err
	}
	out := openapi.Currencies{Currencies: make([]openapi.CurrencyPosition, 0, len(acct.currencies))}
	for _, cur := range sortedCurrencies(acct.currencies) {
		out.Currencies = append(out.Currencies, openapi.CurrencyPosition{
			Currency: cur,
			Balance:  acct.currencies[cur],
			Blocked:  h.c.blockedCash(acct, cur),
		})
	}
	return out, nil
}

// blockedUnits counts units reserved by resting sell orders.
func blockedUnits(acct *account, figi string, lot int) decimal.Decimal {
	units := 0
	for _, o := range acct.orders {
		if o.Figi == figi && o.Operation == openapi.OperationSell {
			units += o.RequestedLots * lot
		}
	}
	return decimal.NewFromInt(int64(units))
}

// blockedCash sums the notional reserved by resting buy orders in cur.
func (c *Client) blockedCash(acct *account, cur openapi.Currency) decimal.Decimal {
	total := decimal.Zero
	for _, o := range acct.orders {
		inst := c.byFigi[o.Figi]
		if o.Operation != openapi.OperationBuy || inst.Currency != cur {
			continue
		}
		total = total.Add(o.Price.Mul(decimal.NewFromInt(int64(o.RequestedLots * inst.Lot))))
	}
	return total
}

type operationsHandle struct {
	c *Client
}

// Operations returns journal entries dated in [from, to). An empty figi matches all.
func (h operationsHandle) Operations(ctx context.Context, from, to time.Time, figi string, brokerAccountID string) (openapi.Operations, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.Operations{}, err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return openapi.Operations{}, err
	}
	out := openapi.Operations{Operations: []openapi.Operation{}}
	for _, op := range acct.operations {
		if op.Date.Before(from) || !op.Date.Before(to) {
			continue
		}
		if figi != "" && op.Figi != figi {
			continue
		}
		out.Operations = append(out.Operations, op)
	}
	return out, nil
}
