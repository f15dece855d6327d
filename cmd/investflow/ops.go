package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/reactive"
	"github.com/coachpo/investflow/internal/stream"
)

// lineWriter encodes one JSON document per line and is safe for concurrent use.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (w *lineWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// tagged labels output lines of the demo, which interleaves several domains.
type tagged struct {
	Domain string `json:"domain"`
	Item   any    `json:"item"`
}

type operation func(ctx context.Context, client *reactive.Client, flags cliFlags, out *lineWriter) error

var operations = map[string]operation{
	"stocks": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Market.Stocks(), out)
	},
	"bonds": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Market.Bonds(), out)
	},
	"etfs": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Market.Etfs(), out)
	},
	"currencies": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Market.Currencies(), out)
	},
	"instruments": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Market.Instruments(), out)
	},
	"orderbook": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("figi", f.figi); err != nil {
			return err
		}
		return emit(ctx, c.Market.Orderbook(f.figi, f.depth).Stream(), out)
	},
	"candles": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("figi", f.figi); err != nil {
			return err
		}
		from, to := window(f.days)
		return emit(ctx, c.Market.Candles(f.figi, from, to, openapi.CandleResolution(f.interval)), out)
	},
	"search-ticker": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("ticker", f.ticker); err != nil {
			return err
		}
		return emit(ctx, c.Market.SearchByTicker(f.ticker), out)
	},
	"search-figi": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("figi", f.figi); err != nil {
			return err
		}
		return emit(ctx, c.Market.SearchByFigi(f.figi).Stream(), out)
	},
	"orders": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		return emit(ctx, c.OrdersList.Orders(f.account), out)
	},
	"place-limit": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("figi", f.figi); err != nil {
			return err
		}
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return fmt.Errorf("-price: %w", err)
		}
		req := openapi.LimitOrderRequest{Lots: f.lots, Operation: openapi.OperationType(f.side), Price: price}
		return emit(ctx, c.Orders.PlaceLimitOrder(f.figi, req, f.account).Stream(), out)
	},
	"place-market": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		if err := requireFlag("figi", f.figi); err != nil {
			return err
		}
		req := openapi.MarketOrderRequest{Lots: f.lots, Operation: openapi.OperationType(f.side)}
		return emit(ctx, c.Orders.PlaceMarketOrder(f.figi, req, f.account).Stream(), out)
	},
	"cancel": func(ctx context.Context, c *reactive.Client, f cliFlags, _ *lineWriter) error {
		if err := requireFlag("order-id", f.orderID); err != nil {
			return err
		}
		return c.Orders.CancelOrder(f.orderID, f.account).Await(ctx)
	},
	"positions": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		return emit(ctx, c.Portfolio.Positions(f.account), out)
	},
	"cash": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		return emit(ctx, c.Portfolio.Currencies(f.account), out)
	},
	"operations": func(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
		from, to := window(f.days)
		return emit(ctx, c.Operations.Operations(from, to, f.figi, f.account), out)
	},
	"register": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.Sandbox.Register(openapi.SandboxRegisterRequest{BrokerAccountType: openapi.BrokerAccountTinkoff}).Stream(), out)
	},
	"accounts": func(ctx context.Context, c *reactive.Client, _ cliFlags, out *lineWriter) error {
		return emit(ctx, c.User.Accounts(), out)
	},
	"demo": runDemo,
}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func emit[T any](ctx context.Context, s stream.Stream[T], out *lineWriter) error {
	return s.Subscribe(ctx, func(item T) error { return out.Write(item) })
}

func emitTagged[T any](ctx context.Context, domain string, s stream.Stream[T], out *lineWriter) error {
	return s.Subscribe(ctx, func(item T) error { return out.Write(tagged{Domain: domain, Item: item}) })
}

// runDemo streams several domains concurrently. The first failure cancels the rest.
func runDemo(ctx context.Context, c *reactive.Client, f cliFlags, out *lineWriter) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return emitTagged(ctx, reactive.DomainMarket, c.Market.Instruments(), out)
	})
	p.Go(func(ctx context.Context) error {
		return emitTagged(ctx, reactive.DomainUser, c.User.Accounts(), out)
	})
	p.Go(func(ctx context.Context) error {
		return emitTagged(ctx, reactive.DomainPortfolio, c.Portfolio.Currencies(f.account), out)
	})
	p.Go(func(ctx context.Context) error {
		return emitTagged(ctx, reactive.DomainOrdersList, c.OrdersList.Orders(f.account), out)
	})
	return p.Wait()
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func window(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 1
	}
	to := time.Now()
	return to.AddDate(0, 0, -days), to
}
