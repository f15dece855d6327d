// Command investflow runs trading API operations against the paper client
// and prints the results as JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/investflow/internal/config"
	"github.com/coachpo/investflow/internal/observability"
	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/openapi/paper"
	"github.com/coachpo/investflow/internal/producer"
	"github.com/coachpo/investflow/internal/reactive"
	"github.com/coachpo/investflow/internal/telemetry"
)

const defaultConfigPath = "config/investflow.yaml"

type cliFlags struct {
	configPath string
	op         string
	figi       string
	ticker     string
	depth      int
	account    string
	lots       int
	side       string
	price      string
	orderID    string
	interval   string
	days       int
}

func main() {
	flags := parseFlags(os.Args[1:])
	ctx, cancel := newSignalContext()
	defer cancel()

	if err := run(ctx, flags, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "investflow: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func parseFlags(args []string) cliFlags {
	var f cliFlags
	fs := flag.NewFlagSet("investflow", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", fmt.Sprintf("Path to configuration file (default: %s)", defaultConfigPath))
	fs.StringVar(&f.op, "op", "instruments", "Operation to run: "+strings.Join(operationNames(), ", "))
	fs.StringVar(&f.figi, "figi", "", "Instrument FIGI")
	fs.StringVar(&f.ticker, "ticker", "", "Instrument ticker")
	fs.IntVar(&f.depth, "depth", 10, "Order book depth")
	fs.StringVar(&f.account, "account", "", "Broker account id (empty selects the default account)")
	fs.IntVar(&f.lots, "lots", 1, "Order size in lots")
	fs.StringVar(&f.side, "side", string(openapi.OperationBuy), "Order side: Buy or Sell")
	fs.StringVar(&f.price, "price", "", "Limit price")
	fs.StringVar(&f.orderID, "order-id", "", "Order id to cancel")
	fs.StringVar(&f.interval, "interval", string(openapi.CandleDay), "Candle interval")
	fs.IntVar(&f.days, "days", 7, "Look-back window in days for candles and operations")
	_ = fs.Parse(args)
	return f
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func run(ctx context.Context, flags cliFlags, stdout, stderr io.Writer) error {
	op, ok := operations[flags.op]
	if !ok {
		return fmt.Errorf("unknown operation %q", flags.op)
	}

	cfg, err := config.LoadOrDefault(ctx, resolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogrus(observability.NewLogrusWriter(stderr, cfg.Logging.Level, cfg.Logging.Format), "investflow")
	observability.SetLogger(logger)
	logger.Info("configuration initialised",
		observability.F("env", cfg.Environment),
		observability.F("op", flags.op))

	tp, err := initTelemetry(ctx, logger, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tp.ShutdownTimeout())
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", observability.F("error", err))
		}
	}()

	api, err := newPaperClient(cfg.Paper)
	if err != nil {
		return err
	}
	client, err := reactive.NewClient(api, cfg.Producers,
		reactive.WithLogger(logger),
		reactive.WithProducerOptions(producer.WithMeterProvider(tp.MeterProvider())))
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	start := time.Now()
	err = op(ctx, client, flags, newLineWriter(stdout))
	if err != nil {
		logger.Error("operation failed", observability.F("op", flags.op), observability.F("error", err))
		return err
	}
	logger.Info("operation completed", observability.F("op", flags.op), observability.F("elapsed", time.Since(start)))
	return nil
}

func initTelemetry(ctx context.Context, logger observability.Logger, cfg telemetry.Config) (*telemetry.Provider, error) {
	provider, err := telemetry.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if cfg.Enabled {
		logger.Info("telemetry initialized",
			observability.F("endpoint", cfg.OTLPEndpoint),
			observability.F("service", cfg.ServiceName))
	} else {
		logger.Debug("telemetry disabled")
	}
	return provider, nil
}

func newPaperClient(cfg config.PaperConfig) (*paper.Client, error) {
	balances, err := cfg.DecimalBalances()
	if err != nil {
		return nil, err
	}
	opts := paper.Options{
		DefaultAccountID: cfg.DefaultAccountID,
		Latency:          cfg.Latency,
	}
	if balances != nil {
		opts.InitialBalances = make(map[openapi.Currency]decimal.Decimal, len(balances))
		for cur, amount := range balances {
			opts.InitialBalances[openapi.Currency(cur)] = amount
		}
	}
	return paper.New(opts), nil
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return defaultConfigPath
}
