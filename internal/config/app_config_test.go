package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/investflow/errs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "investflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv(EnvVar, "")
	path := writeConfig(t, `
environment: STAGING
logging:
  level: DEBUG
  format: json
telemetry:
  enabled: true
  otlp_endpoint: " localhost:4318 "
  service_name: investflow-test
producers:
  retry_delay: 250ms
  max_wait: 30s
  orders:
    rate: 0.5
    cache:
      enabled: true
      ttl: 1m
paper:
  default_account_id: " acct-1 "
  latency: 5ms
  balances:
    rub: "1000.50"
`)

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, EnvStaging, cfg.Environment)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "localhost:4318", cfg.Telemetry.OTLPEndpoint)
	require.Equal(t, "staging", cfg.Telemetry.Environment)
	require.Equal(t, 250*time.Millisecond, cfg.Producers.RetryDelay)
	require.Equal(t, 30*time.Second, cfg.Producers.MaxWait)
	require.InDelta(t, 0.5, cfg.Producers.Orders.Rate, 1e-9)
	require.True(t, cfg.Producers.Orders.Cache.Enabled)
	require.Equal(t, time.Minute, cfg.Producers.Orders.Cache.TTL)
	require.Zero(t, cfg.Producers.Market.Rate)
	require.Equal(t, "acct-1", cfg.Paper.DefaultAccountID)
	require.Equal(t, 5*time.Millisecond, cfg.Paper.Latency)

	balances, err := cfg.Paper.DecimalBalances()
	require.NoError(t, err)
	require.Equal(t, "1000.5", balances["RUB"].String())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv(EnvVar, "prod")
	path := writeConfig(t, "environment: dev\n")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, EnvProd, cfg.Environment)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv(EnvVar, "")
	cases := map[string]string{
		"environment":   "environment: qa\n",
		"negative rate": "producers:\n  market:\n    rate: -1\n",
		"negative wait": "producers:\n  max_wait: -1s\n",
		"log format":    "logging:\n  format: xml\n",
		"balance":       "paper:\n  balances:\n    usd: lots\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, body))
			require.True(t, errs.HasCode(err, errs.CodeInvalid), "got %v", err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := LoadOrDefault(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, EnvDev, cfg.Environment)
	require.Equal(t, time.Second, cfg.Producers.RetryDelay)

	cfg, err = LoadOrDefault(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, EnvDev, cfg.Environment)

	_, err = LoadOrDefault(context.Background(), writeConfig(t, "environment: qa\n"))
	require.Error(t, err)
}

func TestProducersDomains(t *testing.T) {
	p := Producers{OrdersList: DomainConfig{Rate: 1.65}}
	domains := p.Domains()
	require.Len(t, domains, 7)
	require.InDelta(t, 1.65, domains["orders_list"].Rate, 1e-9)
}
