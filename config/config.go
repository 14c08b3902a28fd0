package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"realestate-ledger/domain"
	"realestate-ledger/rates"
)

// Config is the complete application configuration.
type Config struct {
	Rates     RatesConfig  `json:"rates" yaml:"rates"`
	Ledger    LedgerConfig `json:"ledger" yaml:"ledger"`
	Sample    SampleConfig `json:"sample" yaml:"sample"`
	Countries []string     `json:"countries,omitempty" yaml:"countries,omitempty"`
	// OfflineRates, when non-empty, replaces the HTTP rate source with a fixed
	// table keyed "FROM/TO", e.g. "EUR/USD": "1.10".
	OfflineRates map[string]string `json:"offline_rates,omitempty" yaml:"offline_rates,omitempty"`
}

// RatesConfig controls the rate source and the retry policy the ledger
// wraps around it.
type RatesConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	Timeout      string `json:"timeout" yaml:"timeout"`             // e.g. "10s"
	Retries      int    `json:"retries" yaml:"retries"`             // extra attempts after a transport failure
	RetryBackoff string `json:"retry_backoff" yaml:"retry_backoff"` // e.g. "500ms"
	Historical   bool   `json:"historical" yaml:"historical"`       // convert at each sale's date instead of the latest rate
}

// LedgerConfig holds the initial display settings.
type LedgerConfig struct {
	DisplayCurrency string `json:"display_currency" yaml:"display_currency"`
	BeginDate       string `json:"begin_date" yaml:"begin_date"`                 // YYYY-MM-DD
	EndDate         string `json:"end_date,omitempty" yaml:"end_date,omitempty"` // YYYY-MM-DD, empty means today
}

// SampleConfig controls the generated demonstration data.
type SampleConfig struct {
	Count int   `json:"count" yaml:"count"`
	Seed  int64 `json:"seed" yaml:"seed"` // 0 picks a time-based seed
}

// LoadFromFile loads configuration from a YAML or JSON file, filling unset
// fields from Default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON based on extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := rates.ParseCurrency(c.Ledger.DisplayCurrency); err != nil {
		return fmt.Errorf("ledger.display_currency: %w", err)
	}
	if _, err := c.BeginDate(); err != nil {
		return fmt.Errorf("ledger.begin_date: %w", err)
	}
	if c.Ledger.EndDate != "" {
		if _, err := domain.ParseDate(c.Ledger.EndDate); err != nil {
			return fmt.Errorf("ledger.end_date: %w", err)
		}
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("rates.timeout: %w", err)
	}
	if _, err := c.Backoff(); err != nil {
		return fmt.Errorf("rates.retry_backoff: %w", err)
	}
	if c.Rates.Retries < 0 {
		return fmt.Errorf("rates.retries cannot be negative")
	}
	if c.Sample.Count < 0 {
		return fmt.Errorf("sample.count cannot be negative")
	}
	if len(c.Countries) > 0 && domain.NewCountrySet(c.Countries...).Len() == 0 {
		return fmt.Errorf("countries must list at least one region code")
	}
	for pair, rate := range c.OfflineRates {
		if _, _, err := SplitPair(pair); err != nil {
			return fmt.Errorf("offline_rates: %w", err)
		}
		if _, err := parsePositive(rate); err != nil {
			return fmt.Errorf("offline_rates[%s]: %w", pair, err)
		}
	}
	return nil
}

func (c *Config) BeginDate() (time.Time, error) {
	return domain.ParseDate(c.Ledger.BeginDate)
}

// EndDate returns the configured end bound, or today's date in now's zone
// when none is set.
func (c *Config) EndDate(now time.Time) (time.Time, error) {
	if c.Ledger.EndDate == "" {
		return domain.Day(now), nil
	}
	return domain.ParseDate(c.Ledger.EndDate)
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	return parseDuration(c.Rates.Timeout)
}

func (c *Config) Backoff() (time.Duration, error) {
	return parseDuration(c.Rates.RetryBackoff)
}

// CountrySet returns the configured supported countries, or the default set.
func (c *Config) CountrySet() domain.CountrySet {
	if len(c.Countries) == 0 {
		return domain.DefaultCountrySet()
	}
	return domain.NewCountrySet(c.Countries...)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", s)
	}
	return d, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Rates: RatesConfig{
			BaseURL:      rates.DefaultBaseURL,
			Timeout:      "10s",
			Retries:      1,
			RetryBackoff: "500ms",
		},
		Ledger: LedgerConfig{
			DisplayCurrency: "USD",
			BeginDate:       "1980-01-01",
		},
		Sample: SampleConfig{
			Count: 20,
		},
	}
}
