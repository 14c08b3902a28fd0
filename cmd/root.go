package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"realestate-ledger/app"
	"realestate-ledger/config"
	"realestate-ledger/rates"
	"realestate-ledger/shared"
	"realestate-ledger/store"
)

var (
	// Shared application service instance, built once per process
	ledgerService *app.LedgerService
	// Rate source behind ledgerService, also used by the convert command
	resolver rates.Resolver
	cfg      *config.Config

	configPath string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "realestate-ledger",
	Short: "Record real-estate sales and total them in any currency",
	Long: `realestate-ledger keeps an in-memory ledger of real-estate sales
(country, price, date) and reports their total converted into a chosen
display currency, restricted to an inclusive date range.

The ledger starts seeded with generated sample sales. Nothing is persisted:
use the repl command to keep one session alive across several commands.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")

	rootCmd.AddCommand(replCmd)
}

// setup loads configuration and builds the ledger the first time any command
// runs. Later runs inside the REPL reuse it.
func setup(cmd *cobra.Command, args []string) error {
	if quiet {
		log.SetOutput(io.Discard)
	}
	if ledgerService != nil {
		return nil
	}

	loaded := config.Default()
	if configPath != "" {
		var err error
		loaded, err = config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
	}

	svc, r, err := newService(cmd.Context(), loaded, time.Now())
	if err != nil {
		return err
	}
	cfg, resolver, ledgerService = loaded, r, svc
	return nil
}

func newService(ctx context.Context, c *config.Config, now time.Time) (*app.LedgerService, rates.Resolver, error) {
	r, err := c.Resolver()
	if err != nil {
		return nil, nil, fmt.Errorf("build rate source: %w", err)
	}
	begin, err := c.BeginDate()
	if err != nil {
		return nil, nil, err
	}
	end, err := c.EndDate(now)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := c.RequestTimeout()
	if err != nil {
		return nil, nil, err
	}
	backoff, err := c.Backoff()
	if err != nil {
		return nil, nil, err
	}
	currency, err := rates.ParseCurrency(c.Ledger.DisplayCurrency)
	if err != nil {
		return nil, nil, err
	}

	svc, err := app.NewLedgerService(r, store.NewInMemoryEventStore(), app.Options{
		DisplayCurrency: currency,
		BeginDate:       begin,
		EndDate:         end,
		Countries:       c.CountrySet(),
		Historical:      c.Rates.Historical,
		Policy: app.ResolvePolicy{
			Retries: c.Rates.Retries,
			Backoff: backoff,
			Timeout: timeout,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	if c.Sample.Count > 0 {
		seed := c.Sample.Seed
		if seed == 0 {
			seed = now.UnixNano()
		}
		if ctx == nil {
			ctx = context.Background()
		}
		sample := app.GenerateSampleSales(rand.New(rand.NewSource(seed)), svc.Countries(), c.Sample.Count)
		if err := svc.SeedSales(ctx, sample); err != nil {
			return nil, nil, fmt.Errorf("seed sample sales: %w", err)
		}
	}
	return svc, r, nil
}

func parseCurrencyArg(s string) (shared.Currency, error) {
	c, err := rates.ParseCurrency(s)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q", s)
	}
	return c, nil
}

// resetFlags restores every flag to its default so one REPL line does not
// leak values into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive REPL session",
	Long: `Starts an interactive Read-Eval-Print Loop over one ledger, so sales
added and settings changed in one line are visible to the next.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting ledger REPL. Type 'exit' or 'quit' to exit.")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())

			if input == "exit" || input == "quit" {
				break
			}
			if input == "" {
				continue
			}

			commandArgs := strings.Fields(input)
			if commandArgs[0] == "repl" {
				fmt.Fprintln(out, "Already in a REPL session.")
				continue
			}

			resetFlags(rootCmd)
			rootCmd.SetArgs(commandArgs)
			if err := rootCmd.Execute(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		}

		fmt.Fprintln(out, "Exiting REPL.")
		return scanner.Err()
	},
}
