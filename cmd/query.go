package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"realestate-ledger/app"
	"realestate-ledger/domain"
	"realestate-ledger/events"
)

var (
	historySkip  int
	historyLimit int
)

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Show the total of sales inside the date filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		view := ledgerService.Snapshot()
		unconverted := 0
		for _, row := range view.Sales {
			if !row.IsConverted {
				unconverted++
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total %s..%s: %s\n",
			view.BeginDate.Format(domain.DateLayout), view.EndDate.Format(domain.DateLayout), view.Total)
		if unconverted > 0 {
			fmt.Fprintf(out, "%d of %d sales could not be converted and are excluded.\n", unconverted, len(view.Sales))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the journal of ledger changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := ledgerService.GetHistory(app.GetHistoryQuery{Skip: historySkip, Limit: historyLimit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ledger history (%d events):\n", len(history))
		for _, event := range history {
			base := event.GetBase()
			fmt.Fprintf(out, "  v%d [%s] %s\n", base.Version, base.Timestamp.Format(time.RFC3339), base.Type)
			switch e := event.(type) {
			case events.LedgerOpenedEvent:
				fmt.Fprintf(out, "     Currency: %s, Range: %s..%s\n", e.DisplayCurrency,
					e.BeginDate.Format(domain.DateLayout), e.EndDate.Format(domain.DateLayout))
			case events.SaleAddedEvent:
				fmt.Fprintf(out, "     %s %s %s -> %s\n", e.Date.Format(domain.DateLayout), e.Country,
					e.Price.StringFixed(2), describePrice(e.Result, string(e.Currency)))
			case events.DisplayCurrencyChangedEvent:
				fmt.Fprintf(out, "     %s -> %s, %d prices, Total: %s\n",
					e.PreviousCurrency, e.Currency, len(e.Prices), e.Total.StringFixed(2))
			case events.DateFilterChangedEvent:
				fmt.Fprintf(out, "     Range: %s..%s, Total: %s\n",
					e.BeginDate.Format(domain.DateLayout), e.EndDate.Format(domain.DateLayout), e.Total.StringFixed(2))
			case events.SalesReresolvedEvent:
				fmt.Fprintf(out, "     %d sales converted into %s, Total: %s\n", len(e.Prices), e.Currency, e.Total.StringFixed(2))
			default:
				fmt.Fprintf(out, "     (Details not displayed for this event type)\n")
			}
		}
		return nil
	},
}

func describePrice(p events.ConvertedPrice, currency string) string {
	if !p.Converted {
		return "unconverted (" + p.Failure + ")"
	}
	return p.Amount.StringFixed(2) + " " + currency
}

func init() {
	rootCmd.AddCommand(totalCmd, historyCmd)

	historyCmd.Flags().IntVar(&historySkip, "skip", 0, "Number of events to skip")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of events to show (0 for all)")
}
