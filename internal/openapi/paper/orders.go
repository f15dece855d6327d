package paper

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
)

const (
	rejectInsufficientBalance = "InsufficientBalance"
	rejectInsufficientAssets  = "InsufficientAssets"
)

type ordersHandle struct {
	c *Client
}

func (h ordersHandle) Orders(ctx context.Context, brokerAccountID string) ([]openapi.Order, error) {
	if err := h.c.call(ctx); err != nil {
		return nil, err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return nil, err
	}
	out := make([]openapi.Order, 0, len(acct.orders))
	return append(out, acct.orders...), nil
}

func (h ordersHandle) PlaceLimitOrder(ctx context.Context, figi string, req openapi.LimitOrderRequest, brokerAccountID string) (openapi.PlacedLimitOrder, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.PlacedLimitOrder{}, err
	}
	if !req.Price.IsPositive() {
		return openapi.PlacedLimitOrder{}, errs.New(component, errs.CodeInvalid,
			errs.WithMessage("limit price must be positive"),
			errs.WithField("figi", figi))
	}
	res, err := h.c.place(figi, req.Operation, req.Lots, req.Price, openapi.OrderTypeLimit, brokerAccountID)
	if err != nil {
		return openapi.PlacedLimitOrder{}, err
	}
	return openapi.PlacedLimitOrder(res), nil
}

func (h ordersHandle) PlaceMarketOrder(ctx context.Context, figi string, req openapi.MarketOrderRequest, brokerAccountID string) (openapi.PlacedMarketOrder, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.PlacedMarketOrder{}, err
	}
	res, err := h.c.place(figi, req.Operation, req.Lots, decimal.Zero, openapi.OrderTypeMarket, brokerAccountID)
	if err != nil {
		return openapi.PlacedMarketOrder{}, err
	}
	return openapi.PlacedMarketOrder(res), nil
}

func (h ordersHandle) CancelOrder(ctx context.Context, orderID string, brokerAccountID string) error {
	if err := h.c.call(ctx); err != nil {
		return err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return err
	}
	for i, o := range acct.orders {
		if o.OrderID == orderID {
			acct.orders = append(acct.orders[:i], acct.orders[i+1:]...)
			return nil
		}
	}
	return errs.New(component, errs.CodeNotFound,
		errs.WithMessage("order not found"),
		errs.WithField("order_id", orderID),
		errs.WithField("broker_account_id", acct.id))
}

// place fills marketable orders at the reference price and rests the rest.
// A zero limit means a market order.
func (c *Client) place(figi string, side openapi.OperationType, lots int, limit decimal.Decimal, kind openapi.OrderType, brokerAccountID string) (openapi.PlacedMarketOrder, error) {
	if lots <= 0 {
		return openapi.PlacedMarketOrder{}, errs.New(component, errs.CodeInvalid,
			errs.WithMessage("lots must be positive"),
			errs.WithField("figi", figi))
	}
	if side != openapi.OperationBuy && side != openapi.OperationSell {
		return openapi.PlacedMarketOrder{}, errs.New(component, errs.CodeInvalid,
			errs.WithMessage("unknown operation"),
			errs.WithField("operation", string(side)))
	}
	inst, ok := c.byFigi[figi]
	if !ok {
		return openapi.PlacedMarketOrder{}, errs.New(component, errs.CodeNotFound,
			errs.WithMessage("instrument not found"),
			errs.WithField("figi", figi))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	acct, err := c.accountLocked(brokerAccountID)
	if err != nil {
		return openapi.PlacedMarketOrder{}, err
	}

	placed := openapi.PlacedMarketOrder{
		OrderID:       newID(),
		Operation:     side,
		Status:        openapi.OrderNew,
		RequestedLots: lots,
	}
	marketable := limit.IsZero() ||
		(side == openapi.OperationBuy && limit.GreaterThanOrEqual(inst.LastPrice)) ||
		(side == openapi.OperationSell && limit.LessThanOrEqual(inst.LastPrice))
	if !marketable {
		acct.orders = append(acct.orders, openapi.Order{
			OrderID:       placed.OrderID,
			Figi:          figi,
			Operation:     side,
			Status:        openapi.OrderNew,
			RequestedLots: lots,
			Type:          kind,
			Price:         limit,
		})
		return placed, nil
	}

	units := decimal.NewFromInt(int64(lots * inst.Lot))
	notional := inst.LastPrice.Mul(units)
	commission := notional.Mul(c.opts.CommissionRate).Round(2)
	cash := acct.currencies[inst.Currency]
	pos := acct.positions[figi]

	switch side {
	case openapi.OperationBuy:
		if cash.LessThan(notional.Add(commission)) {
			placed.Status = openapi.OrderRejected
			placed.RejectReason = rejectInsufficientBalance
			placed.Message = "not enough cash to cover the order"
			return placed, nil
		}
		if pos == nil {
			pos = &position{}
			acct.positions[figi] = pos
		}
		total := pos.balance.Add(units)
		pos.averagePrice = pos.averagePrice.Mul(pos.balance).Add(notional).Div(total)
		pos.balance = total
		acct.currencies[inst.Currency] = cash.Sub(notional).Sub(commission)
	case openapi.OperationSell:
		if pos == nil || pos.balance.LessThan(units) {
			placed.Status = openapi.OrderRejected
			placed.RejectReason = rejectInsufficientAssets
			placed.Message = "not enough units to sell"
			return placed, nil
		}
		pos.balance = pos.balance.Sub(units)
		if pos.balance.IsZero() {
			delete(acct.positions, figi)
		}
		acct.currencies[inst.Currency] = cash.Add(notional).Sub(commission)
	}

	placed.Status = openapi.OrderFilled
	placed.ExecutedLots = lots
	placed.Commission = &openapi.MoneyAmount{Currency: inst.Currency, Value: commission}
	acct.operations = append(acct.operations, fillOperation(inst, side, placed, units, notional, c.opts.Now()))
	return placed, nil
}

func fillOperation(inst Instrument, side openapi.OperationType, placed openapi.PlacedMarketOrder, units, notional decimal.Decimal, at time.Time) openapi.Operation {
	payment := notional.Neg()
	if side == openapi.OperationSell {
		payment = notional
	}
	return openapi.Operation{
		ID:     newID(),
		Status: "Done",
		Trades: []openapi.OperationTrade{{
			TradeID:  newID(),
			Date:     at,
			Price:    inst.LastPrice,
			Quantity: int(units.IntPart()),
		}},
		Commission:     placed.Commission,
		Currency:       inst.Currency,
		Payment:        payment,
		Price:          inst.LastPrice,
		Quantity:       int(units.IntPart()),
		Figi:           inst.Figi,
		InstrumentType: inst.Type,
		Date:           at,
		OperationType:  side,
	}
}
