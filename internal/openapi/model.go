package openapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-like currency code.
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// InstrumentType classifies tradable instruments.
type InstrumentType string

const (
	InstrumentStock    InstrumentType = "Stock"
	InstrumentBond     InstrumentType = "Bond"
	InstrumentEtf      InstrumentType = "Etf"
	InstrumentCurrency InstrumentType = "Currency"
)

// OperationType is the direction of an order.
type OperationType string

const (
	OperationBuy  OperationType = "Buy"
	OperationSell OperationType = "Sell"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderNew             OrderStatus = "New"
	OrderPartiallyFilled OrderStatus = "PartiallyFill"
	OrderFilled          OrderStatus = "Fill"
	OrderCancelled       OrderStatus = "Cancelled"
	OrderRejected        OrderStatus = "Rejected"
)

// OrderType distinguishes limit and market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "Limit"
	OrderTypeMarket OrderType = "Market"
)

// BrokerAccountType names a kind of broker account.
type BrokerAccountType string

const (
	BrokerAccountTinkoff    BrokerAccountType = "Tinkoff"
	BrokerAccountTinkoffIis BrokerAccountType = "TinkoffIis"
)

// CandleResolution is the width of a candle.
type CandleResolution string

const (
	Candle1Min  CandleResolution = "1min"
	Candle5Min  CandleResolution = "5min"
	Candle15Min CandleResolution = "15min"
	CandleHour  CandleResolution = "hour"
	CandleDay   CandleResolution = "day"
	CandleWeek  CandleResolution = "week"
	CandleMonth CandleResolution = "month"
)

// Duration returns the nominal span of the resolution. Month is approximated as 30 days.
func (r CandleResolution) Duration() time.Duration {
	switch r {
	case Candle1Min:
		return time.Minute
	case Candle5Min:
		return 5 * time.Minute
	case Candle15Min:
		return 15 * time.Minute
	case CandleHour:
		return time.Hour
	case CandleDay:
		return 24 * time.Hour
	case CandleWeek:
		return 7 * 24 * time.Hour
	case CandleMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// MoneyAmount is a value in a currency.
type MoneyAmount struct {
	Currency Currency        `json:"currency"`
	Value    decimal.Decimal `json:"value"`
}

// MarketInstrument describes a tradable instrument.
type MarketInstrument struct {
	Figi              string          `json:"figi"`
	Ticker            string          `json:"ticker"`
	Isin              string          `json:"isin,omitempty"`
	MinPriceIncrement decimal.Decimal `json:"minPriceIncrement"`
	Lot               int             `json:"lot"`
	Currency          Currency        `json:"currency,omitempty"`
	Name              string          `json:"name"`
	Type              InstrumentType  `json:"type"`
}

// InstrumentList wraps an instrument catalogue page.
type InstrumentList struct {
	Total       int                `json:"total"`
	Instruments []MarketInstrument `json:"instruments"`
}

// SearchMarketInstrument is the result of a lookup by FIGI.
type SearchMarketInstrument struct {
	Figi              string          `json:"figi"`
	Ticker            string          `json:"ticker"`
	Isin              string          `json:"isin,omitempty"`
	MinPriceIncrement decimal.Decimal `json:"minPriceIncrement"`
	Lot               int             `json:"lot"`
	Currency          Currency        `json:"currency,omitempty"`
	Name              string          `json:"name"`
	Type              InstrumentType  `json:"type"`
}

// OrderResponse is one price level of an order book.
type OrderResponse struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Orderbook is a snapshot of bids and asks for an instrument.
type Orderbook struct {
	Figi              string          `json:"figi"`
	Depth             int             `json:"depth"`
	Bids              []OrderResponse `json:"bids"`
	Asks              []OrderResponse `json:"asks"`
	TradeStatus       string          `json:"tradeStatus"`
	MinPriceIncrement decimal.Decimal `json:"minPriceIncrement"`
	LastPrice         decimal.Decimal `json:"lastPrice"`
	ClosePrice        decimal.Decimal `json:"closePrice"`
}

// Candle is one historical bar.
type Candle struct {
	Figi     string           `json:"figi"`
	Interval CandleResolution `json:"interval"`
	Open     decimal.Decimal  `json:"o"`
	Close    decimal.Decimal  `json:"c"`
	High     decimal.Decimal  `json:"h"`
	Low      decimal.Decimal  `json:"l"`
	Volume   int64            `json:"v"`
	Time     time.Time        `json:"time"`
}

// Candles wraps the bars for one instrument and resolution.
type Candles struct {
	Figi     string           `json:"figi"`
	Interval CandleResolution `json:"interval"`
	Candles  []Candle         `json:"candles"`
}

// LimitOrderRequest describes a limit order to place.
type LimitOrderRequest struct {
	Lots      int             `json:"lots"`
	Operation OperationType   `json:"operation"`
	Price     decimal.Decimal `json:"price"`
}

// MarketOrderRequest describes a market order to place.
type MarketOrderRequest struct {
	Lots      int           `json:"lots"`
	Operation OperationType `json:"operation"`
}

// PlacedLimitOrder is the acknowledgement of a limit order.
type PlacedLimitOrder struct {
	OrderID       string        `json:"orderId"`
	Operation     OperationType `json:"operation"`
	Status        OrderStatus   `json:"status"`
	RejectReason  string        `json:"rejectReason,omitempty"`
	Message       string        `json:"message,omitempty"`
	RequestedLots int           `json:"requestedLots"`
	ExecutedLots  int           `json:"executedLots"`
	Commission    *MoneyAmount  `json:"commission,omitempty"`
}

// PlacedMarketOrder is the acknowledgement of a market order.
type PlacedMarketOrder struct {
	OrderID       string        `json:"orderId"`
	Operation     OperationType `json:"operation"`
	Status        OrderStatus   `json:"status"`
	RejectReason  string        `json:"rejectReason,omitempty"`
	Message       string        `json:"message,omitempty"`
	RequestedLots int           `json:"requestedLots"`
	ExecutedLots  int           `json:"executedLots"`
	Commission    *MoneyAmount  `json:"commission,omitempty"`
}

// Order is an active order.
type Order struct {
	OrderID       string          `json:"orderId"`
	Figi          string          `json:"figi"`
	Operation     OperationType   `json:"operation"`
	Status        OrderStatus     `json:"status"`
	RequestedLots int             `json:"requestedLots"`
	ExecutedLots  int             `json:"executedLots"`
	Type          OrderType       `json:"type"`
	Price         decimal.Decimal `json:"price"`
}

// PortfolioPosition is one holding.
type PortfolioPosition struct {
	Figi                 string          `json:"figi"`
	Ticker               string          `json:"ticker,omitempty"`
	Isin                 string          `json:"isin,omitempty"`
	InstrumentType       InstrumentType  `json:"instrumentType"`
	Balance              decimal.Decimal `json:"balance"`
	Blocked              decimal.Decimal `json:"blocked"`
	ExpectedYield        *MoneyAmount    `json:"expectedYield,omitempty"`
	Lots                 int             `json:"lots"`
	AveragePositionPrice *MoneyAmount    `json:"averagePositionPrice,omitempty"`
	Name                 string          `json:"name"`
}

// Portfolio wraps the held positions.
type Portfolio struct {
	Positions []PortfolioPosition `json:"positions"`
}

// CurrencyPosition is a cash balance.
type CurrencyPosition struct {
	Currency Currency        `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Blocked  decimal.Decimal `json:"blocked"`
}

// Currencies wraps the cash balances.
type Currencies struct {
	Currencies []CurrencyPosition `json:"currencies"`
}

// OperationTrade is one fill that contributed to an operation.
type OperationTrade struct {
	TradeID  string          `json:"tradeId"`
	Date     time.Time       `json:"date"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Operation is one entry in the operations journal.
type Operation struct {
	ID             string           `json:"id"`
	Status         string           `json:"status"`
	Trades         []OperationTrade `json:"trades,omitempty"`
	Commission     *MoneyAmount     `json:"commission,omitempty"`
	Currency       Currency         `json:"currency"`
	Payment        decimal.Decimal  `json:"payment"`
	Price          decimal.Decimal  `json:"price"`
	Quantity       int              `json:"quantity"`
	Figi           string           `json:"figi,omitempty"`
	InstrumentType InstrumentType   `json:"instrumentType,omitempty"`
	IsMarginCall   bool             `json:"isMarginCall"`
	Date           time.Time        `json:"date"`
	OperationType  OperationType    `json:"operationType"`
}

// Operations wraps a slice of the operations journal.
type Operations struct {
	Operations []Operation `json:"operations"`
}

// SandboxRegisterRequest registers a sandbox account.
type SandboxRegisterRequest struct {
	BrokerAccountType BrokerAccountType `json:"brokerAccountType"`
}

// SandboxAccount is a registered sandbox account.
type SandboxAccount struct {
	BrokerAccountType BrokerAccountType `json:"brokerAccountType"`
	BrokerAccountID   string            `json:"brokerAccountId"`
}

// SandboxSetCurrencyBalanceRequest sets a cash balance.
type SandboxSetCurrencyBalanceRequest struct {
	Currency Currency        `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// SandboxSetPositionBalanceRequest sets an instrument holding.
type SandboxSetPositionBalanceRequest struct {
	Figi    string          `json:"figi"`
	Balance decimal.Decimal `json:"balance"`
}

// UserAccount is a broker account.
type UserAccount struct {
	BrokerAccountType BrokerAccountType `json:"brokerAccountType"`
	BrokerAccountID   string            `json:"brokerAccountId"`
}

// UserAccounts wraps the broker accounts.
type UserAccounts struct {
	Accounts []UserAccount `json:"accounts"`
}
