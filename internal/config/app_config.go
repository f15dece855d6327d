// Package config manages application configuration loading and validation.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/telemetry"
)

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PaperConfig seeds the in-memory paper trading client.
type PaperConfig struct {
	DefaultAccountID string            `yaml:"default_account_id"`
	Latency          time.Duration     `yaml:"latency"`
	Balances         map[string]string `yaml:"balances"`
}

// DecimalBalances parses the configured cash balances.
func (p PaperConfig) DecimalBalances() (map[string]decimal.Decimal, error) {
	if len(p.Balances) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(p.Balances))
	for cur, raw := range p.Balances {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("paper balance %s: %w", cur, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("paper balance %s must be >= 0", cur)
		}
		out[cur] = amount
	}
	return out, nil
}

// AppConfig is the unified investflow configuration sourced from YAML.
type AppConfig struct {
	Environment Environment      `yaml:"environment"`
	Logging     LoggingConfig    `yaml:"logging"`
	Telemetry   telemetry.Config `yaml:"telemetry"`
	Producers   Producers        `yaml:"producers"`
	Paper       PaperConfig      `yaml:"paper"`
}

// Default returns a configuration that runs against the paper client with default rates.
func Default() AppConfig {
	cfg := AppConfig{
		Environment: EnvDev,
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Telemetry:   telemetry.DefaultConfig(),
		Producers:   Producers{RetryDelay: time.Second},
	}
	cfg.normalise()
	return cfg
}

// Load reads and validates an AppConfig from the provided YAML file.
func Load(ctx context.Context, configPath string) (AppConfig, error) {
	_ = ctx

	reader, closer, err := openConfigFile(configPath)
	if err != nil {
		return AppConfig{}, err
	}
	defer closer()

	bytes, err := io.ReadAll(reader)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// LoadOrDefault loads configPath, falling back to Default when the path is
// empty or the file does not exist.
func LoadOrDefault(ctx context.Context, configPath string) (AppConfig, error) {
	if strings.TrimSpace(configPath) == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	cfg, err := Load(ctx, configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func (c *AppConfig) normalise() {
	c.Environment = Environment(normalizeName(string(c.Environment)))
	if env := normalizeName(os.Getenv(EnvVar)); env != "" {
		c.Environment = Environment(env)
	}
	if c.Environment == "" {
		c.Environment = EnvDev
	}

	c.Logging.Level = normalizeName(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = normalizeName(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	c.Telemetry.Environment = string(c.Environment)

	if c.Producers.RetryDelay == 0 {
		c.Producers.RetryDelay = time.Second
	}

	c.Paper.DefaultAccountID = strings.TrimSpace(c.Paper.DefaultAccountID)
	if len(c.Paper.Balances) > 0 {
		balances := make(map[string]string, len(c.Paper.Balances))
		for cur, amount := range c.Paper.Balances {
			balances[strings.ToUpper(strings.TrimSpace(cur))] = strings.TrimSpace(amount)
		}
		c.Paper.Balances = balances
	}
}

// Validate performs semantic validation on the configuration.
func (c AppConfig) Validate() error {
	switch c.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return invalid("environment", "environment must be one of dev, staging, prod")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return invalid("logging.format", "logging format must be text or json")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.OTLPEndpoint == "" {
			return invalid("telemetry.otlp_endpoint", "telemetry otlp_endpoint required when enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return invalid("telemetry.service_name", "telemetry service_name required when enabled")
		}
	}

	if err := c.Producers.Validate(); err != nil {
		return errs.New("config", errs.CodeInvalid, errs.WithMessage(err.Error()), errs.WithField("section", "producers"))
	}

	if c.Paper.Latency < 0 {
		return invalid("paper.latency", "paper latency must be >= 0")
	}
	if _, err := c.Paper.DecimalBalances(); err != nil {
		return errs.New("config", errs.CodeInvalid, errs.WithMessage(err.Error()), errs.WithField("section", "paper"))
	}

	return nil
}

func invalid(section, message string) error {
	return errs.New("config", errs.CodeInvalid, errs.WithMessage(message), errs.WithField("section", section))
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
