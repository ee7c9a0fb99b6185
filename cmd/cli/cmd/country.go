// Package cmd - country command
package cmd

import (
	"github.com/spf13/cobra"

	"taxmap/core/engine"
	"taxmap/core/explanation"
	"taxmap/core/output"
	"taxmap/internal/config"
)

var explain bool

var countryCmd = &cobra.Command{
	Use:   "country <key>",
	Short: "Show one country's tax breakdown",
	Long: `Calculate a single country and show income tax per bracket, special
levies, VAT and the effective rate.

Examples:
  taxmap country germany --salary 5000 --input-currency EUR
  taxmap country "united kingdom" --salary 4000 --display-currency USD`,
	Args: cobra.ExactArgs(1),
	RunE: runCountry,
}

func init() {
	countryCmd.Flags().Float64VarP(&salary, "salary", "s", 0, "monthly gross salary [REQUIRED]")
	addCurrencyFlags(countryCmd)
	countryCmd.Flags().BoolVar(&explain, "explain", false, "show how each amount was derived")
	_ = countryCmd.MarkFlagRequired("salary")

	rootCmd.AddCommand(countryCmd)
}

func runCountry(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	profile, err := cat.Get(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	cc, err := engine.NewCalculationContext(ctx, cat, newProvider(cfg, offline))
	if err != nil {
		return err
	}
	req := buildRequest(cfg)
	res, err := newOrchestrator(cfg).CalculateCountry(cc, profile.Key, req)
	if err != nil {
		return err
	}

	w := newWriter()
	output.NewTableFormatter(cfg.Output.NoColor).RenderCountry(w.Out(), res, profile)
	if res.RateDegraded {
		w.Warning("%s is missing from the %s rate table; a rate of 1 was used", profile.Currency, cc.Rates.Origin())
	}
	if explain {
		w.SubHeader("How it was calculated")
		for _, e := range explanation.Explain(res, profile, req.MonthlySalary, req.InputCurrency) {
			w.Println("%s", e.ToNarrative())
		}
	}
	return nil
}
