// Package cmd - catalog commands
package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"taxmap/core/catalog"
	"taxmap/core/output"
	"taxmap/core/types"
)

var (
	catalogSystem string
	catalogJSON   bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the country catalog",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the countries in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a catalog file, or the built-in catalog",
	Long: `Run every validation rule over a catalog. With a file argument the
file is checked on its own and then merged over the built-in catalog.

Rules: currency present, brackets ascending and non-overlapping, open-ended
top bracket, rates within 0-100, flat systems have a bracket, VAT standard
rate present when VAT applies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file layered over the built-in catalog")
	catalogListCmd.Flags().StringVar(&catalogSystem, "system", "", "only list one tax system (progressive, flat, zero)")
	catalogListCmd.Flags().BoolVar(&catalogJSON, "json", false, "print profiles as JSON")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	var filter types.SystemKind
	if catalogSystem != "" {
		kind, ok := types.ParseSystemKind(catalogSystem)
		if !ok {
			return fmt.Errorf("unknown tax system %q", catalogSystem)
		}
		filter = kind
	}

	profiles := make([]*types.CountryTaxProfile, 0, cat.Len())
	for _, p := range cat.Profiles() {
		if filter == "" || p.System == filter {
			profiles = append(profiles, p)
		}
	}

	if catalogJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	w := newWriter()
	w.Header(fmt.Sprintf("Catalog (%d countries)", len(profiles)))

	t := w.NewTable("Key", "Country", "Currency", "System", "Brackets", "Top rate", "VAT", "Levies")
	for _, p := range profiles {
		top := ""
		if n := len(p.Brackets); n > 0 {
			top = output.Percent(p.Brackets[n-1].Rate) + "%"
		}
		vat := "-"
		if p.VAT != nil && p.VAT.HasVAT {
			vat = output.Percent(p.VAT.StandardRate()) + "%"
		}
		levies := "-"
		if len(p.SpecialTaxes) > 0 {
			levies = fmt.Sprint(len(p.SpecialTaxes))
		}
		t.AddRow(p.Key, p.Name, string(p.Currency), p.System.String(), fmt.Sprint(len(p.Brackets)), top, vat, levies)
	}
	t.Render()

	stats := cat.Stats()
	systems := make([]string, 0, len(stats.BySystem))
	for kind, n := range stats.BySystem {
		systems = append(systems, fmt.Sprintf("%s %d", kind, n))
	}
	sort.Strings(systems)

	box := w.NewSummaryBox("Catalog statistics")
	box.Add("Countries", fmt.Sprint(stats.Total))
	box.Add("Systems", fmt.Sprint(systems))
	box.Add("With VAT", fmt.Sprint(stats.WithVAT))
	box.Add("With levies", fmt.Sprint(stats.WithSpecialTaxes))
	box.Add("Currencies", fmt.Sprint(stats.Currencies))
	box.Render()
	return nil
}

type validationTarget struct {
	label string
	cat   *catalog.Catalog
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	w := newWriter()
	rules := catalog.DefaultValidationRules()

	base, err := catalog.Default()
	if err != nil {
		return err
	}

	targets := []validationTarget{{"built-in catalog", base}}
	if len(args) == 1 {
		file, err := catalog.LoadFile(args[0])
		if err != nil {
			w.Error("%s: %v", args[0], err)
			return err
		}
		targets = []validationTarget{
			{args[0], file},
			{args[0] + " merged with built-in catalog", base.Merge(file)},
		}
	}

	failed := 0
	for _, target := range targets {
		errs := target.cat.Validate(rules)
		if len(errs) == 0 {
			w.Success("%s: %d countries valid", target.label, target.cat.Len())
			continue
		}
		failed += len(errs)
		w.Error("%s: %d problems", target.label, len(errs))
		for _, e := range errs {
			w.Println("    %s", e)
		}
	}

	if failed > 0 {
		return fmt.Errorf("catalog validation failed with %d problems", failed)
	}
	return nil
}
