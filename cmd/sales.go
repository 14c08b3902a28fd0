package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"realestate-ledger/app"
	"realestate-ledger/domain"
)

var (
	saleCountry string
	salePrice   string
	saleDate    string

	listSort    string
	listInRange bool

	seedCount int
	seedValue int64
)

// salesCmd represents the sales command group
var salesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Record and list sales",
}

var salesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new sale",
	Long: `Records a sale given its two-letter country code, its price in the
country's local currency and its date, e.g.

  sales add --country DE --price 250000 --date 2020-01-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if saleCountry == "" || salePrice == "" || saleDate == "" {
			return fmt.Errorf("--country, --price and --date are required")
		}
		price, err := decimal.NewFromString(salePrice)
		if err != nil {
			return fmt.Errorf("invalid price %q: %v", salePrice, err)
		}
		year, month, day, err := parseSaleDate(saleDate)
		if err != nil {
			return err
		}

		sale, err := ledgerService.RecordSale(cmd.Context(), app.RecordSaleCommand{
			Country: saleCountry,
			Price:   price,
			Year:    year,
			Month:   month,
			Day:     day,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ledgerService.IsConverted(sale) {
			fmt.Fprintf(out, "Recorded %s = %s %s\n", sale,
				ledgerService.ConvertedPrice(sale).StringFixed(2), ledgerService.DisplayCurrency())
		} else {
			fmt.Fprintf(out, "Recorded %s (not converted, excluded from total)\n", sale)
		}
		return nil
	},
}

var salesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sales with their converted prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := domain.ParseSortKey(listSort)
		if err != nil {
			return err
		}

		view := ledgerService.Snapshot()
		sorted := view.Sorted(key)
		printed := make([]domain.SaleView, 0, len(sorted))
		for _, row := range sorted {
			if listInRange && !row.InRange {
				continue
			}
			printed = append(printed, row)
		}
		printSales(cmd.OutOrStdout(), view, printed)
		return nil
	},
}

var salesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add randomly generated sample sales",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := seedValue
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		sample := app.GenerateSampleSales(rand.New(rand.NewSource(seed)), ledgerService.Countries(), seedCount)
		if err := ledgerService.SeedSales(cmd.Context(), sample); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d sample sales. Total: %s\n", len(sample), ledgerService.Total())
		return nil
	},
}

// parseSaleDate splits a YYYY-MM-DD date into its fields. Month and day may
// drop the leading zero. Calendar checks are left to domain.NewSale.
func parseSaleDate(s string) (year, month, day int, err error) {
	invalid := fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return 0, 0, 0, invalid
	}
	fields := [3]int{}
	for i, part := range parts {
		width := len(part)
		if (i == 0 && width != 4) || (i > 0 && (width < 1 || width > 2)) {
			return 0, 0, 0, invalid
		}
		if strings.TrimLeft(part, "0123456789") != "" {
			return 0, 0, 0, invalid
		}
		if fields[i], err = strconv.Atoi(part); err != nil {
			return 0, 0, 0, invalid
		}
	}
	return fields[0], fields[1], fields[2], nil
}

func printSales(w io.Writer, view domain.LedgerView, rows []domain.SaleView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "DATE\tCOUNTRY\tLOCAL PRICE\t%s\t\n", view.DisplayCurrency)
	for _, row := range rows {
		converted := row.Converted.StringFixed(2)
		if !row.IsConverted {
			converted = "n/a"
		}
		marker := ""
		if !row.InRange {
			marker = " (out of range)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Sale.Date().Format(domain.DateLayout), row.Sale.Country(), row.Sale.Price().StringFixed(2), converted, marker)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d sales listed. Total in range: %s\n", len(rows), view.Total)
}

func init() {
	rootCmd.AddCommand(salesCmd)
	salesCmd.AddCommand(salesAddCmd, salesListCmd, salesSeedCmd)

	salesAddCmd.Flags().StringVar(&saleCountry, "country", "", "Two-letter country code of the sale")
	salesAddCmd.Flags().StringVar(&salePrice, "price", "", "Sale price in the country's local currency")
	salesAddCmd.Flags().StringVar(&saleDate, "date", "", "Sale date, YYYY-MM-DD")

	salesListCmd.Flags().StringVarP(&listSort, "sort", "s", "date", "Sort by date, price or country")
	salesListCmd.Flags().BoolVar(&listInRange, "in-range", false, "Only list sales inside the date filter")

	salesSeedCmd.Flags().IntVarP(&seedCount, "count", "n", 20, "Number of sales to generate")
	salesSeedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed (0 picks one from the clock)")
}
