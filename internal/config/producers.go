package config

import (
	"fmt"
	"math"
	"time"
)

// CacheConfig enables handle reuse for one domain.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// DomainConfig tunes the producer of one API domain. A zero rate keeps the domain default.
type DomainConfig struct {
	Rate  float64     `yaml:"rate"`
	Cache CacheConfig `yaml:"cache"`
}

// Producers configures handle acquisition for every domain.
type Producers struct {
	RetryDelay time.Duration `yaml:"retry_delay"`
	// MaxWait bounds how long an acquisition waits for admission. Zero waits indefinitely.
	MaxWait    time.Duration `yaml:"max_wait"`
	Market     DomainConfig  `yaml:"market"`
	Orders     DomainConfig  `yaml:"orders"`
	OrdersList DomainConfig  `yaml:"orders_list"`
	Portfolio  DomainConfig  `yaml:"portfolio"`
	Operations DomainConfig  `yaml:"operations"`
	Sandbox    DomainConfig  `yaml:"sandbox"`
	User       DomainConfig  `yaml:"user"`
}

// Domains returns the per-domain settings keyed by domain name.
func (p Producers) Domains() map[string]DomainConfig {
	return map[string]DomainConfig{
		"market":      p.Market,
		"orders":      p.Orders,
		"orders_list": p.OrdersList,
		"portfolio":   p.Portfolio,
		"operations":  p.Operations,
		"sandbox":     p.Sandbox,
		"user":        p.User,
	}
}

// Validate checks delays and per-domain rates.
func (p Producers) Validate() error {
	if p.RetryDelay < 0 {
		return fmt.Errorf("producers retry_delay must be >= 0")
	}
	if p.MaxWait < 0 {
		return fmt.Errorf("producers max_wait must be >= 0")
	}
	for name, d := range p.Domains() {
		if d.Rate < 0 || math.IsNaN(d.Rate) || math.IsInf(d.Rate, 0) {
			return fmt.Errorf("producers %s rate must be a finite value >= 0", name)
		}
		if d.Cache.TTL < 0 {
			return fmt.Errorf("producers %s cache ttl must be >= 0", name)
		}
	}
	return nil
}
