package output

import (
	"fmt"
	"io"

	"taxmap/core/tax"
	"taxmap/core/types"
	"taxmap/core/ui"
)

// TableFormatter renders a coloured terminal table
type TableFormatter struct {
	noColor bool
}

// NewTableFormatter creates a table formatter
func NewTableFormatter(noColor bool) *TableFormatter {
	return &TableFormatter{noColor: noColor}
}

// Format returns FormatTable
func (f *TableFormatter) Format() Format { return FormatTable }

// Render writes the ranking table followed by the summary
func (f *TableFormatter) Render(w io.Writer, report *Report) error {
	out := ui.NewWriter(w, f.noColor)
	batch := report.Batch
	if batch.Empty() {
		out.Warning("no results")
		return nil
	}

	display := batch.Request.DisplayCurrency
	out.Header(fmt.Sprintf("Tax comparison: %s %s / month", Money(batch.Request.MonthlySalary), batch.Request.InputCurrency))

	maxTax := batch.Results[0].Display.TotalTax
	table := out.NewTable("#", "Country", "Total tax", "Income tax", "Levies", "VAT", "Effective", "Net income", "Local")
	shown := batch.Results
	if report.Top > 0 && report.Top < len(shown) {
		shown = shown[:report.Top]
	}
	for _, r := range shown {
		if r.Failed() {
			table.AddStyledRow(ui.Red,
				fmt.Sprint(r.Rank), r.CountryName, "error", "", "", "", "", "", string(r.Local.Currency))
			continue
		}
		local := string(r.Local.Currency)
		if r.RateDegraded {
			local += " (rate 1)"
		}
		table.AddStyledRow(tierColor(ClassifyTier(r.Display.TotalTax, maxTax)),
			fmt.Sprint(r.Rank),
			r.CountryName,
			Money(r.Display.TotalTax),
			Money(r.Display.IncomeTax),
			Money(r.Display.SpecialTaxAmount),
			Money(r.Display.VATAmount),
			Percent(r.EffectiveRate)+"%",
			Money(r.Display.NetIncome),
			local,
		)
	}
	table.Render()

	s := report.Summary
	box := out.NewSummaryBox(fmt.Sprintf("Summary (%s)", display))
	box.Add("Average tax", s.Average.StringFixed(2))
	box.Add("Highest", fmt.Sprintf("%s (%s)", s.Max.StringFixed(2), s.MaxCountry))
	box.Add("Lowest", fmt.Sprintf("%s (%s)", s.Min.StringFixed(2), s.MinCountry))
	box.Add("Countries", fmt.Sprint(s.Count))
	box.Add("Rates", fmt.Sprintf("%s (%s)", batch.RateOrigin, batch.RateSnapshotID))
	box.Render()

	if batch.Degraded > 0 {
		out.Warning("%d countries used an exchange rate of 1 (currency missing from rate table)", batch.Degraded)
	}
	if batch.Failed > 0 {
		out.Error("%d countries failed to calculate", batch.Failed)
	}
	return nil
}

// RenderCountry writes a single-country detail view with the bracket fill
func (f *TableFormatter) RenderCountry(w io.Writer, r types.TaxResult, profile *types.CountryTaxProfile) {
	out := ui.NewWriter(w, f.noColor)
	out.Header(r.CountryName)

	box := out.NewSummaryBox(fmt.Sprintf("Annual, %s", r.Local.Currency))
	box.Add("Gross income", Money(r.Local.GrossIncome))
	box.Add("Income tax", Money(r.Local.IncomeTax))
	for _, item := range r.Local.SpecialTaxes {
		label := item.Type
		if item.TargetIgnored {
			label += " (charged on gross)"
		}
		box.Add(label, fmt.Sprintf("%s @ %s%%", Money(item.Amount), Percent(item.Rate)))
	}
	if r.HasVAT {
		box.Add("VAT on spending", fmt.Sprintf("%s @ %s%%", Money(r.Local.VATAmount), Percent(r.VATRate)))
	}
	box.Add("Total tax", Money(r.Local.TotalTax))
	box.Add("Net income", Money(r.Local.NetIncome))
	box.Add("Effective rate", Percent(r.EffectiveRate)+"%")
	if r.Display.Currency != r.Local.Currency {
		box.Add("Total tax ("+string(r.Display.Currency)+")", Money(r.Display.TotalTax))
	}
	box.Render()

	if profile == nil || profile.System != types.SystemProgressive {
		return
	}

	out.SubHeader("Brackets")
	table := out.NewTable("From", "To", "Rate", "Taxable", "Tax", "Fill")
	for _, fill := range tax.Breakdown(r.Local.GrossIncome, profile.Brackets) {
		to := "∞"
		if fill.Bracket.Max != nil {
			to = Money(*fill.Bracket.Max)
		}
		style := ui.Dim
		if fill.Taxable > 0 {
			style = ""
		}
		table.AddStyledRow(style,
			Money(fill.Bracket.Min), to, Percent(fill.Bracket.Rate)+"%",
			Money(fill.Taxable), Money(fill.Tax), out.Bar(fill.FillPct, 10))
	}
	table.Render()
}

func tierColor(t Tier) string {
	switch t {
	case TierHaven, TierLow:
		return ui.Green
	case TierMediumLow, TierMedium:
		return ui.Yellow
	case TierHigh:
		return ui.Magenta
	default:
		return ui.Red
	}
}
