package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offlineConfig = `
rates:
  retries: 0
ledger:
  display_currency: USD
  begin_date: "1980-01-01"
  end_date: "2030-12-31"
sample:
  count: 0
offline_rates:
  EUR/USD: "1.10"
`

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(offlineConfig), 0644))

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		resetFlags(rootCmd)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute(), out.String())
		return out.String()
	}

	out := run("--config", path, "-q", "sales", "add", "--country", "de", "--price", "100", "--date", "2020-01-01")
	assert.Contains(t, out, "Recorded 2020-01-01 DE 100.00 = 110.00 USD")

	assert.Contains(t, run("total"), "Total 1980-01-01..2030-12-31: 110.00 USD")
	assert.Contains(t, run("sales", "list", "--sort", "price"), "1 sales listed")
	assert.Contains(t, run("range", "--begin", "2020-06-01"), "Total: 0.00 USD")
	assert.Contains(t, run("currency", "set", "eur"), "Display currency is EUR")
	assert.Contains(t, run("convert", "--from", "EUR", "--to", "USD", "--amount", "10"), "10.00 EUR = 11.00 USD")
	assert.Contains(t, run("history", "--limit", "2"), "Ledger history (2 events)")

	for _, date := range []string{"2020-02-30", "2020-01-011"} {
		resetFlags(rootCmd)
		rootCmd.SetArgs([]string{"sales", "add", "--country", "DE", "--price", "1", "--date", date})
		assert.Error(t, rootCmd.Execute(), date)
	}
	assert.Contains(t, run("sales", "list"), "1 sales listed")
}
