package reactive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/config"
	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/openapi/paper"
)

const figiApple = "BBG000B9XRY4"

func newPaperClient(t *testing.T, cfg config.Producers) (*paper.Client, *Client) {
	t.Helper()
	api := paper.New(paper.Options{})
	client, err := NewClient(api, cfg, fastOptions()...)
	require.NoError(t, err)
	return api, client
}

func TestClientRejectsNilAPI(t *testing.T) {
	_, err := NewClient(nil, config.Producers{})
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
}

func TestClientRejectsTypedNilAPI(t *testing.T) {
	var api *paper.Client
	_, err := NewClient(api, config.Producers{})
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
	_, err = NewOrders(api)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
	_, err = NewSandbox(api)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
}

func TestClientIgnoresNonPositiveRates(t *testing.T) {
	_, err := NewClient(paper.New(paper.Options{}), config.Producers{Market: config.DomainConfig{Rate: -1}})
	require.NoError(t, err)
}

func TestOrderLifecycleAcrossAdapters(t *testing.T) {
	ctx := context.Background()
	_, client := newPaperClient(t, config.Producers{})

	placed, ok, err := client.Orders.PlaceLimitOrder(figiApple, openapi.LimitOrderRequest{
		Lots:      1,
		Operation: openapi.OperationBuy,
		Price:     decimal.RequireFromString("100"),
	}, "").Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, openapi.OrderNew, placed.Status)

	active, err := client.OrdersList.Orders("").Collect(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, placed.OrderID, active[0].OrderID)

	require.NoError(t, client.Orders.CancelOrder(placed.OrderID, "").Await(ctx))

	active, err = client.OrdersList.Orders("").Collect(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	err = client.Orders.CancelOrder(placed.OrderID, "").Await(ctx)
	require.True(t, errs.HasCode(err, errs.CodeNotFound))
}

func TestMarketOrderIsSentOncePerSubscription(t *testing.T) {
	ctx := context.Background()
	_, client := newPaperClient(t, config.Producers{})
	buy := client.Orders.PlaceMarketOrder(figiApple, openapi.MarketOrderRequest{Lots: 1, Operation: openapi.OperationBuy}, "")

	for i := 0; i < 2; i++ {
		placed, ok, err := buy.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, openapi.OrderFilled, placed.Status)
	}

	positions, err := client.Portfolio.Positions("").Collect(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.True(t, positions[0].Balance.Equal(decimal.NewFromInt(2)))

	ops, err := client.Operations.Operations(time.Now().Add(-time.Hour), time.Now().Add(time.Hour), "", "").Collect(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
}

func TestSandboxAndUserAdapters(t *testing.T) {
	ctx := context.Background()
	api, client := newPaperClient(t, config.Producers{})

	acct, ok, err := client.Sandbox.Register(openapi.SandboxRegisterRequest{BrokerAccountType: openapi.BrokerAccountTinkoffIis}).Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, client.Sandbox.SetCurrencyBalance(openapi.SandboxSetCurrencyBalanceRequest{
		Currency: openapi.CurrencyEUR,
		Balance:  decimal.NewFromInt(250),
	}, acct.BrokerAccountID).Await(ctx))

	require.NoError(t, client.Sandbox.SetPositionBalance(openapi.SandboxSetPositionBalanceRequest{
		Figi:    figiApple,
		Balance: decimal.NewFromInt(3),
	}, acct.BrokerAccountID).Await(ctx))

	positions, err := client.Portfolio.Positions(acct.BrokerAccountID).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, 3, positions[0].Lots)

	cash, err := client.Portfolio.Currencies(acct.BrokerAccountID).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, cash, 1)
	require.Equal(t, openapi.CurrencyEUR, cash[0].Currency)

	accounts, err := client.User.Accounts().Collect(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, api.DefaultAccountID(), accounts[0].BrokerAccountID)

	require.NoError(t, client.Sandbox.ClearAll(acct.BrokerAccountID).Await(ctx))
	require.NoError(t, client.Sandbox.RemoveAccount(acct.BrokerAccountID).Await(ctx))

	accounts, err = client.User.Accounts().Collect(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestMarketAdapterOverPaper(t *testing.T) {
	ctx := context.Background()
	_, client := newPaperClient(t, config.Producers{})

	all, err := client.Market.Instruments().Collect(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(paper.DefaultInstruments))
	require.Equal(t, openapi.InstrumentStock, all[0].Type)
	require.Equal(t, openapi.InstrumentCurrency, all[len(all)-1].Type)

	found, err := client.Market.SearchByTicker("AAPL").Collect(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, ok, err := client.Market.SearchByFigi("UNKNOWN").Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := client.Market.Candles(figiApple, from, from.Add(3*24*time.Hour), openapi.CandleDay).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, bars, 3)
}

func TestHandleFailurePropagatesThroughAdapter(t *testing.T) {
	boom := errors.New("token rejected")
	api, client := newPaperClient(t, config.Producers{})
	api.SetHandleFailure(paper.HandlePortfolio, boom)

	_, err := client.Portfolio.Positions("").Collect(context.Background())
	require.Same(t, boom, err)
	require.Zero(t, api.Built(paper.HandlePortfolio))
}

func TestConfiguredCacheReusesHandles(t *testing.T) {
	ctx := context.Background()
	api, client := newPaperClient(t, config.Producers{
		User: config.DomainConfig{Cache: config.CacheConfig{Enabled: true}},
	})

	for i := 0; i < 3; i++ {
		_, err := client.User.Accounts().Collect(ctx)
		require.NoError(t, err)
		_, err = client.Market.Stocks().Collect(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 1, api.Built(paper.HandleUser))
	require.Equal(t, 3, api.Built(paper.HandleMarket))
}
