package reactive

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// Market streams instrument catalogues and market data.
type Market struct {
	handles handleSource[openapi.MarketContext]
}

// NewMarket binds a market adapter to the client's market handle factory.
func NewMarket(api openapi.Client, opts ...Option) (*Market, error) {
	if err := requireClient(api, DomainMarket); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.MarketContext](DomainMarket, DefaultMarketRate, api.Market, opts)
	if err != nil {
		return nil, err
	}
	return &Market{handles: hs}, nil
}

// Stocks streams the stocks available for trading.
func (m *Market) Stocks() stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		return instruments(h.MarketStocks(ctx))
	})
}

// Bonds streams the bonds available for trading.
func (m *Market) Bonds() stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		return instruments(h.MarketBonds(ctx))
	})
}

// Etfs streams the funds available for trading.
func (m *Market) Etfs() stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		return instruments(h.MarketEtfs(ctx))
	})
}

// Currencies streams the currencies available for trading.
func (m *Market) Currencies() stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		return instruments(h.MarketCurrencies(ctx))
	})
}

// Instruments streams the whole catalogue: stocks, bonds, etfs, then currencies.
// It acquires one handle and fetches the four lists concurrently.
func (m *Market) Instruments() stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		fetchers := []func(context.Context) (openapi.InstrumentList, error){
			h.MarketStocks,
			h.MarketBonds,
			h.MarketEtfs,
			h.MarketCurrencies,
		}
		lists, err := iter.MapErr(fetchers, func(fetch *func(context.Context) (openapi.InstrumentList, error)) (openapi.InstrumentList, error) {
			return (*fetch)(ctx)
		})
		if err != nil {
			return nil, err
		}
		total := 0
		for _, l := range lists {
			total += len(l.Instruments)
		}
		out := make([]openapi.MarketInstrument, 0, total)
		for _, l := range lists {
			out = append(out, l.Instruments...)
		}
		return out, nil
	})
}

// Orderbook returns the current order book, or nothing if the instrument is unknown.
func (m *Market) Orderbook(figi string, depth int) stream.Optional[openapi.Orderbook] {
	return optional(m.handles, func(ctx context.Context, h openapi.MarketContext) (*openapi.Orderbook, error) {
		return h.MarketOrderbook(ctx, figi, depth)
	})
}

// Candles streams historical bars in [from, to). An unknown instrument yields no bars.
func (m *Market) Candles(figi string, from, to time.Time, interval openapi.CandleResolution) stream.Stream[openapi.Candle] {
	candles := optional(m.handles, func(ctx context.Context, h openapi.MarketContext) (*openapi.Candles, error) {
		return h.MarketCandles(ctx, figi, from, to, interval)
	})
	return stream.Flatten(candles, func(c openapi.Candles) []openapi.Candle { return c.Candles })
}

// SearchByTicker streams the instruments matching ticker.
func (m *Market) SearchByTicker(ticker string) stream.Stream[openapi.MarketInstrument] {
	return list(m.handles, func(ctx context.Context, h openapi.MarketContext) ([]openapi.MarketInstrument, error) {
		return instruments(h.SearchMarketInstrumentsByTicker(ctx, ticker))
	})
}

// SearchByFigi returns the instrument with the given FIGI, or nothing if unknown.
func (m *Market) SearchByFigi(figi string) stream.Optional[openapi.SearchMarketInstrument] {
	return optional(m.handles, func(ctx context.Context, h openapi.MarketContext) (*openapi.SearchMarketInstrument, error) {
		return h.SearchMarketInstrumentByFigi(ctx, figi)
	})
}

// Invalidate drops a cached market handle.
func (m *Market) Invalidate() {
	m.handles.invalidate()
}

func instruments(l openapi.InstrumentList, err error) ([]openapi.MarketInstrument, error) {
	if err != nil {
		return nil, err
	}
	return l.Instruments, nil
}
