package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-ledger/config"
	"realestate-ledger/rates"
	"realestate-ledger/shared"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	begin, err := cfg.BeginDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), begin)

	now := time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC)
	end, err := cfg.EndDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), end)

	timeout, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	assert.Equal(t, 98, cfg.CountrySet().Len())

	r, err := cfg.Resolver()
	require.NoError(t, err)
	client, ok := r.(*rates.Client)
	require.True(t, ok, "got %T", r)
	assert.Equal(t, rates.DefaultBaseURL, client.BaseURL())
}

func TestLoadFromFile(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		path := writeFile(t, "ledger.yaml", `
rates:
  base_url: http://localhost:8080
  timeout: 2s
  retries: 3
  historical: true
ledger:
  display_currency: eur
  begin_date: "2000-01-01"
  end_date: "2020-12-31"
countries: [de, fr]
sample:
  count: 0
`)
		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080", cfg.Rates.BaseURL)
		assert.Equal(t, 3, cfg.Rates.Retries)
		assert.True(t, cfg.Rates.Historical)
		assert.Equal(t, "500ms", cfg.Rates.RetryBackoff, "unset keys keep their defaults")
		assert.Equal(t, 0, cfg.Sample.Count)
		assert.Equal(t, 2, cfg.CountrySet().Len())
		assert.True(t, cfg.CountrySet().Contains("FR"))

		end, err := cfg.EndDate(time.Now())
		require.NoError(t, err)
		assert.Equal(t, 2020, end.Year())
	})

	t.Run("JSON", func(t *testing.T) {
		path := writeFile(t, "ledger.json", `{"ledger":{"display_currency":"GBP","begin_date":"1999-05-05"},"offline_rates":{"EUR/GBP":"0.85"}}`)
		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "GBP", cfg.Ledger.DisplayCurrency)
		assert.Equal(t, "10s", cfg.Rates.Timeout)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "ledger:\n  display_currency: EURO\n")
		_, err := config.LoadFromFile(path)
		assert.ErrorContains(t, err, "display_currency")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"BadBeginDate", func(c *config.Config) { c.Ledger.BeginDate = "2020-02-30" }, "begin_date"},
		{"BadEndDate", func(c *config.Config) { c.Ledger.EndDate = "tomorrow" }, "end_date"},
		{"BadTimeout", func(c *config.Config) { c.Rates.Timeout = "soon" }, "rates.timeout"},
		{"NegativeBackoff", func(c *config.Config) { c.Rates.RetryBackoff = "-1s" }, "retry_backoff"},
		{"NegativeRetries", func(c *config.Config) { c.Rates.Retries = -1 }, "retries"},
		{"NegativeSample", func(c *config.Config) { c.Sample.Count = -5 }, "sample.count"},
		{"BlankCountries", func(c *config.Config) { c.Countries = []string{" ", ""} }, "countries"},
		{"BadPair", func(c *config.Config) { c.OfflineRates = map[string]string{"EURUSD": "1.1"} }, "offline_rates"},
		{"ZeroRate", func(c *config.Config) { c.OfflineRates = map[string]string{"EUR/USD": "0"} }, "offline_rates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.field)
		})
	}
}

func TestOfflineResolver(t *testing.T) {
	cfg := config.Default()
	cfg.OfflineRates = map[string]string{"eur/usd": "1.10", "GBP/USD": "1.30"}
	require.NoError(t, cfg.Validate())

	r, err := cfg.Resolver()
	require.NoError(t, err)
	_, ok := r.(*rates.Static)
	require.True(t, ok, "got %T", r)

	got, err := r.Resolve(context.Background(), shared.EUR, shared.USD, decimal.NewFromInt(100), nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(110)))

	_, err = r.Resolve(context.Background(), shared.EUR, shared.GBP, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, rates.ErrNoRate)
}

func TestSplitPair(t *testing.T) {
	from, to, err := config.SplitPair("jpy/chf")
	require.NoError(t, err)
	assert.Equal(t, shared.JPY, from)
	assert.Equal(t, shared.CHF, to)

	_, _, err = config.SplitPair("JPY/")
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.DisplayCurrency = "JPY"

	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := config.LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}
