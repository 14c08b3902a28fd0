package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"realestate-ledger/domain"
	"realestate-ledger/shared"
)

var (
	convertFrom   string
	convertTo     string
	convertAmount string
	convertDate   string

	rangeBegin string
	rangeEnd   string
)

// currencyCmd represents the currency command group
var currencyCmd = &cobra.Command{
	Use:   "currency",
	Short: "Change the display currency",
}

var currencySetCmd = &cobra.Command{
	Use:   "set CODE",
	Short: "Display prices and the total in the given ISO 4217 currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		currency, err := parseCurrencyArg(args[0])
		if err != nil {
			return err
		}
		if err := ledgerService.SetDisplayCurrency(cmd.Context(), currency); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Display currency is %s. Total: %s\n", currency, ledgerService.Total())
		return nil
	},
}

var currencyCountryCmd = &cobra.Command{
	Use:   "country CODE",
	Short: "Display prices in the currency of a two-letter country code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ledgerService.SetDisplayCountry(cmd.Context(), shared.Country(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Display currency is %s. Total: %s\n",
			ledgerService.DisplayCurrency(), ledgerService.Total())
		return nil
	},
}

var currencyRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry conversion of sales that could not be converted",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := ledgerService.Reresolve(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d sales converted. Total: %s\n", n, ledgerService.Total())
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an amount between two currencies",
	Long: `Looks up a single conversion through the configured rate source,
at the latest rate or, with --date, at the rate of that day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseCurrencyArg(convertFrom)
		if err != nil {
			return err
		}
		to, err := parseCurrencyArg(convertTo)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(convertAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %v", convertAmount, err)
		}

		var asOf *time.Time
		if convertDate != "" {
			d, err := domain.ParseDate(convertDate)
			if err != nil {
				return err
			}
			asOf = &d
		}

		converted, err := resolver.Resolve(cmd.Context(), from, to, amount, asOf)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", amount.StringFixed(2), from, converted.StringFixed(2), to)
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Set the inclusive date filter of the total",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rangeBegin == "" && rangeEnd == "" {
			begin, end := ledgerService.DateRange()
			fmt.Fprintf(cmd.OutOrStdout(), "Range: %s..%s\n", begin.Format(domain.DateLayout), end.Format(domain.DateLayout))
			return nil
		}
		if rangeBegin != "" {
			d, err := domain.ParseDate(rangeBegin)
			if err != nil {
				return err
			}
			if err := ledgerService.SetBeginDate(d); err != nil {
				return err
			}
		}
		if rangeEnd != "" {
			d, err := domain.ParseDate(rangeEnd)
			if err != nil {
				return err
			}
			if err := ledgerService.SetEndDate(d); err != nil {
				return err
			}
		}
		begin, end := ledgerService.DateRange()
		fmt.Fprintf(cmd.OutOrStdout(), "Range: %s..%s. Total: %s\n",
			begin.Format(domain.DateLayout), end.Format(domain.DateLayout), ledgerService.Total())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(currencyCmd, convertCmd, rangeCmd)
	currencyCmd.AddCommand(currencySetCmd, currencyCountryCmd, currencyRetryCmd)

	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source currency code")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target currency code")
	convertCmd.Flags().StringVar(&convertAmount, "amount", "1", "Amount to convert")
	convertCmd.Flags().StringVar(&convertDate, "date", "", "Use the rate of this day (YYYY-MM-DD) instead of the latest")

	rangeCmd.Flags().StringVar(&rangeBegin, "begin", "", "First day included in the total (YYYY-MM-DD)")
	rangeCmd.Flags().StringVar(&rangeEnd, "end", "", "Last day included in the total (YYYY-MM-DD)")
}
