package reactive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/producer"
)

type admitAll struct{ calls atomic.Int32 }

func (a *admitAll) TryAdmit() bool {
	a.calls.Add(1)
	return true
}

func fastOptions(extra ...Option) []Option {
	opts := []Option{WithProducerOptions(producer.WithAdmitter(&admitAll{}), producer.WithRetryDelay(time.Millisecond))}
	return append(opts, extra...)
}

func instrument(figi string) openapi.MarketInstrument {
	return openapi.MarketInstrument{Figi: figi, Ticker: figi, Type: openapi.InstrumentStock}
}

// stubMarket serves fixed results and counts calls.
type stubMarket struct {
	openapi.MarketContext

	stocks    openapi.InstrumentList
	bonds     openapi.InstrumentList
	etfs      openapi.InstrumentList
	curr      openapi.InstrumentList
	err       error
	orderbook *openapi.Orderbook
	candles   *openapi.Candles
	calls     atomic.Int32
}

func (m *stubMarket) list(l openapi.InstrumentList) (openapi.InstrumentList, error) {
	m.calls.Add(1)
	if m.err != nil {
		return openapi.InstrumentList{}, m.err
	}
	return l, nil
}

func (m *stubMarket) MarketStocks(context.Context) (openapi.InstrumentList, error) {
	return m.list(m.stocks)
}

func (m *stubMarket) MarketBonds(context.Context) (openapi.InstrumentList, error) {
	return m.list(m.bonds)
}

func (m *stubMarket) MarketEtfs(context.Context) (openapi.InstrumentList, error) {
	return m.list(m.etfs)
}

func (m *stubMarket) MarketCurrencies(context.Context) (openapi.InstrumentList, error) {
	return m.list(m.curr)
}

func (m *stubMarket) MarketOrderbook(context.Context, string, int) (*openapi.Orderbook, error) {
	m.calls.Add(1)
	return m.orderbook, m.err
}

func (m *stubMarket) MarketCandles(context.Context, string, time.Time, time.Time, openapi.CandleResolution) (*openapi.Candles, error) {
	m.calls.Add(1)
	return m.candles, m.err
}

// stubAPI hands out the stub market handle; other factories are not used.
type stubAPI struct {
	openapi.Client

	market     *stubMarket
	factoryErr error
	built      atomic.Int32
}

func (a *stubAPI) Market() (openapi.MarketContext, error) {
	if a.factoryErr != nil {
		return nil, a.factoryErr
	}
	a.built.Add(1)
	return a.market, nil
}

func TestNilClientIsRejected(t *testing.T) {
	_, err := NewMarket(nil)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
	_, err = NewUser(nil)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
}

func TestListEmitsElementsInOrder(t *testing.T) {
	api := &stubAPI{market: &stubMarket{stocks: openapi.InstrumentList{
		Total:       3,
		Instruments: []openapi.MarketInstrument{instrument("A"), instrument("B"), instrument("C")},
	}}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	got, err := market.Stocks().Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, figis(got))
}

func TestEmptyListCompletesWithoutElements(t *testing.T) {
	api := &stubAPI{market: &stubMarket{}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	got, err := market.Bonds().Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestOperationsAreLazyAndRebuildHandles(t *testing.T) {
	stub := &stubMarket{etfs: openapi.InstrumentList{Instruments: []openapi.MarketInstrument{instrument("E")}}}
	api := &stubAPI{market: stub}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	etfs := market.Etfs()
	require.Zero(t, api.built.Load())
	require.Zero(t, stub.calls.Load())

	for i := 0; i < 2; i++ {
		got, err := etfs.Collect(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	require.Equal(t, int32(2), api.built.Load())
	require.Equal(t, int32(2), stub.calls.Load())
}

func TestHandleCacheReusesHandle(t *testing.T) {
	stub := &stubMarket{}
	api := &stubAPI{market: stub}
	market, err := NewMarket(api, fastOptions(WithHandleCache(0))...)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := market.Currencies().Collect(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), api.built.Load())

	market.Invalidate()
	_, err = market.Currencies().Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), api.built.Load())
}

func TestAbsentOptionalIsEmpty(t *testing.T) {
	api := &stubAPI{market: &stubMarket{}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	_, ok, err := market.Orderbook("X", 5).Get(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	bars, err := market.Candles("X", time.Time{}, time.Now(), openapi.CandleDay).Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, bars)
}

func TestPresentOptionalEmitsOnce(t *testing.T) {
	book := &openapi.Orderbook{Figi: "X", Depth: 1, LastPrice: decimal.NewFromInt(10)}
	candles := &openapi.Candles{Figi: "X", Candles: []openapi.Candle{{Figi: "X"}, {Figi: "X"}}}
	api := &stubAPI{market: &stubMarket{orderbook: book, candles: candles}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	got, ok, err := market.Orderbook("X", 1).Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "X", got.Figi)

	books, err := market.Orderbook("X", 1).Stream().Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)

	bars, err := market.Candles("X", time.Time{}, time.Now(), openapi.CandleDay).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, bars, 2)
}

func TestDomainErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("remote unavailable")
	api := &stubAPI{market: &stubMarket{err: boom}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	_, err = market.Stocks().Collect(context.Background())
	require.Same(t, boom, err)

	_, _, err = market.Orderbook("X", 1).Get(context.Background())
	require.Same(t, boom, err)
}

func TestFactoryErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("login failed")
	api := &stubAPI{market: &stubMarket{}, factoryErr: boom}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	_, err = market.Stocks().Collect(context.Background())
	require.Same(t, boom, err)
}

func TestInstrumentsConcatenatesCatalogues(t *testing.T) {
	stub := &stubMarket{
		stocks: openapi.InstrumentList{Instruments: []openapi.MarketInstrument{instrument("S1"), instrument("S2")}},
		bonds:  openapi.InstrumentList{Instruments: []openapi.MarketInstrument{instrument("B1")}},
		etfs:   openapi.InstrumentList{},
		curr:   openapi.InstrumentList{Instruments: []openapi.MarketInstrument{instrument("C1")}},
	}
	api := &stubAPI{market: stub}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	got, err := market.Instruments().Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2", "B1", "C1"}, figis(got))
	require.Equal(t, int32(1), api.built.Load())
	require.Equal(t, int32(4), stub.calls.Load())
}

func TestInstrumentsSurfacesFetchError(t *testing.T) {
	boom := errors.New("catalogue down")
	api := &stubAPI{market: &stubMarket{err: boom}}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	_, err = market.Instruments().Collect(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestCanceledContextSkipsRemoteCall(t *testing.T) {
	stub := &stubMarket{}
	api := &stubAPI{market: stub}
	market, err := NewMarket(api, fastOptions()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = market.Stocks().Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, api.built.Load())
	require.Zero(t, stub.calls.Load())
}

func TestAdmissionPacesSubscriptions(t *testing.T) {
	api := &stubAPI{market: &stubMarket{}}
	market, err := NewMarket(api, WithRate(10), WithProducerOptions(producer.WithRetryDelay(20*time.Millisecond)))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := market.Stocks().Collect(context.Background())
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func figis(instruments []openapi.MarketInstrument) []string {
	out := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, inst.Figi)
	}
	return out
}
