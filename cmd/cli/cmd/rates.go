// Package cmd - exchange rate commands
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxmap/core/currency"
	"taxmap/core/output"
	"taxmap/core/types"
	"taxmap/internal/config"
)

var (
	ratesSave  string
	ratesCodes []string
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the exchange rates calculations would use",
	Long: `Fetch the current exchange rate table (or use the built-in fallback
table with --offline) and print it.

With --save the table is written as {"base", "rates"} JSON, the same format
the remote source serves, so it can be hosted and used as rates.url.`,
	Args: cobra.NoArgs,
	RunE: runRates,
}

func init() {
	ratesCmd.Flags().BoolVar(&offline, "offline", false, "show the built-in fallback table")
	ratesCmd.Flags().StringVar(&ratesSave, "save", "", "write the table as JSON to this file")
	ratesCmd.Flags().StringSliceVar(&ratesCodes, "currency", nil, "only show these currency codes")

	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	ctx, cancel := commandContext()
	defer cancel()

	provider := newProvider(cfg, offline)
	// Refresh reports a fetch failure while still installing the fallback
	table, fetchErr := provider.Refresh(ctx)
	if table == nil {
		return fetchErr
	}

	w := newWriter()
	if fetchErr != nil {
		w.Warning("Live rates unavailable (%v); showing fallback rates", fetchErr)
	}

	w.Header(fmt.Sprintf("Exchange rates (%s)", table.Origin()))
	w.Info("Base %s, %d currencies, snapshot %s, fetched %s",
		table.Base(), table.Len(), table.ID(), table.FetchedAt().Format("2006-01-02 15:04 MST"))
	w.Println("")

	codes := table.Codes()
	if len(ratesCodes) > 0 {
		codes = codes[:0:0]
		for _, c := range ratesCodes {
			codes = append(codes, types.NormalizeCurrency(c))
		}
	}

	t := w.NewTable("Currency", "Per "+string(table.Base()))
	for _, code := range codes {
		rate, err := table.Lookup(table.Base(), code)
		if err != nil {
			t.AddRow(string(code), "missing")
			continue
		}
		t.AddRow(string(code), output.Rate(rate))
	}
	t.Render()

	if ratesSave != "" {
		if err := saveRates(ratesSave, table); err != nil {
			return err
		}
		w.Success("Saved %d rates to %s", table.Len(), ratesSave)
	}
	return nil
}

func saveRates(path string, table *currency.RateTable) error {
	data, err := json.MarshalIndent(map[string]interface{}{
		"base":  table.Base(),
		"rates": table.Rates(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
