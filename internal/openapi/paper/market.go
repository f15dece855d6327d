package paper

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
)

type marketHandle struct {
	c *Client
}

func (h marketHandle) MarketStocks(ctx context.Context) (openapi.InstrumentList, error) {
	return h.catalogue(ctx, openapi.InstrumentStock)
}

func (h marketHandle) MarketBonds(ctx context.Context) (openapi.InstrumentList, error) {
	return h.catalogue(ctx, openapi.InstrumentBond)
}

func (h marketHandle) MarketEtfs(ctx context.Context) (openapi.InstrumentList, error) {
	return h.catalogue(ctx, openapi.InstrumentEtf)
}

func (h marketHandle) MarketCurrencies(ctx context.Context) (openapi.InstrumentList, error) {
	return h.catalogue(ctx, openapi.InstrumentCurrency)
}

func (h marketHandle) catalogue(ctx context.Context, kind openapi.InstrumentType) (openapi.InstrumentList, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.InstrumentList{}, err
	}
	return h.c.instrumentsOf(kind), nil
}

func (h marketHandle) MarketOrderbook(ctx context.Context, figi string, depth int) (*openapi.Orderbook, error) {
	if err := h.c.call(ctx); err != nil {
		return nil, err
	}
	inst, ok := h.c.byFigi[figi]
	if !ok {
		return nil, nil
	}
	if depth <= 0 {
		depth = defaultBookDepth
	}
	if depth > maxBookDepth {
		depth = maxBookDepth
	}
	book := &openapi.Orderbook{
		Figi:              figi,
		Depth:             depth,
		Bids:              make([]openapi.OrderResponse, 0, depth),
		Asks:              make([]openapi.OrderResponse, 0, depth),
		TradeStatus:       "NormalTrading",
		MinPriceIncrement: inst.MinPriceIncrement,
		LastPrice:         inst.LastPrice,
		ClosePrice:        inst.LastPrice,
	}
	for i := 1; i <= depth; i++ {
		offset := inst.MinPriceIncrement.Mul(decimal.NewFromInt(int64(i)))
		qty := defaultBookLevelSize * i
		book.Bids = append(book.Bids, openapi.OrderResponse{Price: inst.LastPrice.Sub(offset), Quantity: qty})
		book.Asks = append(book.Asks, openapi.OrderResponse{Price: inst.LastPrice.Add(offset), Quantity: qty})
	}
	return book, nil
}

// MarketCandles generates bars aligned to from. The close oscillates around
// the reference price by a few price increments.
func (h marketHandle) MarketCandles(ctx context.Context, figi string, from, to time.Time, interval openapi.CandleResolution) (*openapi.Candles, error) {
	if err := h.c.call(ctx); err != nil {
		return nil, err
	}
	step := interval.Duration()
	if step <= 0 {
		return nil, errs.New(component, errs.CodeInvalid,
			errs.WithMessage("unsupported candle interval"),
			errs.WithField("interval", string(interval)))
	}
	inst, ok := h.c.byFigi[figi]
	if !ok {
		return nil, nil
	}
	out := &openapi.Candles{Figi: figi, Interval: interval, Candles: []openapi.Candle{}}
	open := inst.LastPrice
	for i, ts := 0, from; ts.Before(to) && i < maxCandles; i, ts = i+1, ts.Add(step) {
		ticks := int64(i%7 - 3)
		closePrice := inst.LastPrice.Add(inst.MinPriceIncrement.Mul(decimal.NewFromInt(ticks)))
		high := decimal.Max(open, closePrice).Add(inst.MinPriceIncrement)
		low := decimal.Min(open, closePrice).Sub(inst.MinPriceIncrement)
		out.Candles = append(out.Candles, openapi.Candle{
			Figi:     figi,
			Interval: interval,
			Open:     open,
			Close:    closePrice,
			High:     high,
			Low:      low,
			Volume:   int64(100 + 10*(i%5)),
			Time:     ts,
		})
		open = closePrice
	}
	return out, nil
}

func (h marketHandle) SearchMarketInstrumentsByTicker(ctx context.Context, ticker string) (openapi.InstrumentList, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.InstrumentList{}, err
	}
	out := []openapi.MarketInstrument{}
	for _, inst := range h.c.instruments {
		if strings.EqualFold(inst.Ticker, strings.TrimSpace(ticker)) {
			out = append(out, inst.MarketInstrument)
		}
	}
	return openapi.InstrumentList{Total: len(out), Instruments: out}, nil
}

func (h marketHandle) SearchMarketInstrumentByFigi(ctx context.Context, figi string) (*openapi.SearchMarketInstrument, error) {
	if err := h.c.call(ctx); err != nil {
		return nil, err
	}
	inst, ok := h.c.byFigi[figi]
	if !ok {
		return nil, nil
	}
	found := openapi.SearchMarketInstrument(inst.MarketInstrument)
	return &found, nil
}
