package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"realestate-ledger/rates"
	"realestate-ledger/shared"
)

// SplitPair parses an offline rate key of the form "EUR/USD".
func SplitPair(pair string) (from, to shared.Currency, err error) {
	parts := strings.SplitN(pair, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid pair %q, want FROM/TO", pair)
	}
	if from, err = rates.ParseCurrency(parts[0]); err != nil {
		return "", "", err
	}
	if to, err = rates.ParseCurrency(parts[1]); err != nil {
		return "", "", err
	}
	return from, to, nil
}

func parsePositive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %v", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate must be positive: %s", s)
	}
	return d, nil
}

// Resolver builds the rate source described by the configuration: a
// static table when offline rates are configured, the HTTP client otherwise.
func (c *Config) Resolver() (rates.Resolver, error) {
	if len(c.OfflineRates) > 0 {
		table := rates.NewStatic()
		for pair, raw := range c.OfflineRates {
			from, to, err := SplitPair(pair)
			if err != nil {
				return nil, err
			}
			rate, err := parsePositive(raw)
			if err != nil {
				return nil, err
			}
			table.Set(from, to, rate)
		}
		return table, nil
	}

	timeout, err := c.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return rates.NewClient(c.Rates.BaseURL, timeout), nil
}
