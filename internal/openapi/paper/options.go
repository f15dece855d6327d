package paper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/internal/openapi"
)

const (
	defaultAccountID     = "paper-default"
	defaultBookDepth     = 10
	maxBookDepth         = 20
	maxCandles           = 5000
	defaultBookLevelSize = 10
)

var defaultCommissionRate = decimal.New(5, -4)

// Handle names a handle factory of the paper client.
type Handle string

const (
	HandleMarket     Handle = "market"
	HandleOrders     Handle = "orders"
	HandlePortfolio  Handle = "portfolio"
	HandleOperations Handle = "operations"
	HandleSandbox    Handle = "sandbox"
	HandleUser       Handle = "user"
)

// Instrument is a catalogue entry with its reference price.
type Instrument struct {
	openapi.MarketInstrument
	LastPrice decimal.Decimal
}

// DefaultInstruments is the built-in catalogue used when callers do not supply one.
var DefaultInstruments = []Instrument{
	stock("BBG000B9XRY4", "AAPL", "US0378331005", "Apple", openapi.CurrencyUSD, 1, "0.01", "189.50"),
	stock("BBG000BPH459", "MSFT", "US5949181045", "Microsoft Corporation", openapi.CurrencyUSD, 1, "0.01", "402.10"),
	stock("BBG004730N88", "SBER", "RU0009029540", "Сбер Банк", openapi.CurrencyRUB, 10, "0.01", "271.30"),
	bond("BBG00T22WKV5", "SU26234RMFS3", "RU000A101QE0", "ОФЗ 26234", openapi.CurrencyRUB, "0.001", "95.412"),
	etf("BBG333333333", "TMOS", "RU000A101X76", "Тинькофф iMOEX", openapi.CurrencyRUB, "0.002", "5.964"),
	etf("BBG00QPYJ5H0", "TGLD", "RU000A101X50", "Тинькофф Золото", openapi.CurrencyRUB, "0.01", "8.82"),
	currency("BBG0013HGFT4", "USD000UTSTOM", "Доллар США", "0.0025", "92.5025"),
	currency("BBG0013HJJ31", "EUR_RUB__TOM", "Евро", "0.0025", "100.1150"),
}

// Options configures the paper client.
type Options struct {
	Instruments      []Instrument
	DefaultAccountID string
	InitialBalances  map[openapi.Currency]decimal.Decimal
	CommissionRate   decimal.Decimal
	// Latency delays every remote call.
	Latency time.Duration
	// HandleFailures makes the named handle factories fail with the given error.
	HandleFailures map[Handle]error
	Now            func() time.Time
}

func withDefaults(in Options) Options {
	if len(in.Instruments) == 0 {
		in.Instruments = DefaultInstruments
	}
	if in.DefaultAccountID == "" {
		in.DefaultAccountID = defaultAccountID
	}
	if in.InitialBalances == nil {
		in.InitialBalances = map[openapi.Currency]decimal.Decimal{
			openapi.CurrencyRUB: decimal.NewFromInt(1_000_000),
			openapi.CurrencyUSD: decimal.NewFromInt(10_000),
		}
	}
	if in.CommissionRate.IsZero() {
		in.CommissionRate = defaultCommissionRate
	}
	if in.Latency < 0 {
		in.Latency = 0
	}
	if in.Now == nil {
		in.Now = time.Now
	}
	return in
}

func stock(figi, ticker, isin, name string, cur openapi.Currency, lot int, increment, price string) Instrument {
	return newInstrument(figi, ticker, isin, name, openapi.InstrumentStock, cur, lot, increment, price)
}

func bond(figi, ticker, isin, name string, cur openapi.Currency, increment, price string) Instrument {
	return newInstrument(figi, ticker, isin, name, openapi.InstrumentBond, cur, 1, increment, price)
}

func etf(figi, ticker, isin, name string, cur openapi.Currency, increment, price string) Instrument {
	return newInstrument(figi, ticker, isin, name, openapi.InstrumentEtf, cur, 1, increment, price)
}

func currency(figi, ticker, name, increment, price string) Instrument {
	return newInstrument(figi, ticker, "", name, openapi.InstrumentCurrency, openapi.CurrencyRUB, 1000, increment, price)
}

func newInstrument(figi, ticker, isin, name string, typ openapi.InstrumentType, cur openapi.Currency, lot int, increment, price string) Instrument {
	return Instrument{
		MarketInstrument: openapi.MarketInstrument{
			Figi:              figi,
			Ticker:            ticker,
			Isin:              isin,
			MinPriceIncrement: decimal.RequireFromString(increment),
			Lot:               lot,
			Currency:          cur,
			Name:              name,
			Type:              typ,
		},
		LastPrice: decimal.RequireFromString(price),
	}
}
