// Package cmd - calculate command
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taxmap/core/engine"
	"taxmap/core/output"
	"taxmap/core/types"
	"taxmap/core/ui"
	"taxmap/internal/config"
	"taxmap/internal/logging"
)

var (
	salary          float64
	inputCurrency   string
	displayCurrency string
	outputFormat    string
	outputFile      string
	catalogPath     string
	offline         bool
	topN            int
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate and rank the tax burden in every country",
	Long: `Convert a monthly salary into each country's currency, compute income
tax, special levies and VAT, and rank the countries by total tax in the
display currency.

Examples:
  taxmap calculate --salary 5000
  taxmap calculate --salary 5000 --display-currency EUR --format csv --output taxes.csv
  taxmap calculate --salary 3000 --catalog overrides.yaml --offline`,
	Args: cobra.NoArgs,
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().Float64VarP(&salary, "salary", "s", 0, "monthly gross salary [REQUIRED]")
	addCurrencyFlags(calculateCmd)
	calculateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, json, csv)")
	calculateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write output to a file instead of stdout")
	calculateCmd.Flags().IntVar(&topN, "top", 0, "only show the N highest-taxed countries in table output")
	_ = calculateCmd.MarkFlagRequired("salary")

	rootCmd.AddCommand(calculateCmd)
}

// addCurrencyFlags registers the flags shared by calculating commands
func addCurrencyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputCurrency, "input-currency", "i", "", "currency of the salary (default from config, USD)")
	cmd.Flags().StringVarP(&displayCurrency, "display-currency", "d", "", "currency of the results (default from config, USD)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (yaml, json or hcl) layered over the built-in catalog")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in exchange rates instead of fetching")
}

func buildRequest(cfg *config.Config) engine.Request {
	req := engine.Request{
		MonthlySalary:   salary,
		InputCurrency:   types.NormalizeCurrency(inputCurrency),
		DisplayCurrency: types.NormalizeCurrency(displayCurrency),
	}
	if req.InputCurrency == "" {
		req.InputCurrency = cfg.Engine.DefaultInputCurrency
	}
	if req.DisplayCurrency == "" {
		req.DisplayCurrency = cfg.Engine.DefaultDisplayCurrency
	}
	return req
}

func runCalculate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	req := buildRequest(cfg)
	if err := req.Validate(); err != nil {
		return err
	}

	format := output.ParseFormat(outputFormat)
	if outputFormat == "" {
		format = output.ParseFormat(cfg.Output.DefaultFormat)
	}
	formatter, err := output.NewRegistry(cfg.Output.NoColor || outputFile != "").Get(format)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	w := newWriter()
	// spinners only make sense on an interactive table
	runner := ui.NewCalculationRunner(ui.NewWriter(os.Stderr, cfg.Output.NoColor), newOrchestrator(cfg), format == output.FormatTable && outputFile == "")
	batch, err := runner.Run(ctx, cat, newProvider(cfg, offline), req)
	if err != nil {
		return err
	}
	logging.Debug("rendering calculation", zap.String("format", string(format)), zap.String("run_id", batch.RunID))

	var out io.Writer = w.Out()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputFile, err)
		}
		defer f.Close()
		out = f
	}

	report := output.NewReport(batch)
	report.Top = topN
	if err := formatter.Render(out, report); err != nil {
		return err
	}

	if outputFile != "" {
		w.Success("Wrote %d countries to %s", len(batch.Results), outputFile)
	}
	return nil
}
