package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"taxmap/core/types"
)

// CSVFormatter writes one row per country. Currency amounts and
// percentages carry two decimals, exchange rates four. Failed countries keep
// their zeroed amounts and carry the failure in the Error column.
type CSVFormatter struct{}

// Format returns FormatCSV
func (CSVFormatter) Format() Format { return FormatCSV }

// Header returns the column names for a display currency
func (CSVFormatter) Header(display types.CurrencyCode) []string {
	return []string{
		"Rank",
		"Country",
		"Currency",
		fmt.Sprintf("Total Tax (%s)", display),
		fmt.Sprintf("Income Tax (%s)", display),
		fmt.Sprintf("Special Taxes (%s)", display),
		fmt.Sprintf("VAT (%s)", display),
		"VAT Rate (%)",
		"Effective Rate (%)",
		fmt.Sprintf("Gross Income (%s)", display),
		fmt.Sprintf("Net Income (%s)", display),
		"Local Gross Income",
		"Local Total Tax",
		"Local Income Tax",
		"Local Special Taxes",
		"Local VAT",
		"Local Net Income",
		"Exchange Rate",
		"Error",
	}
}

// Row returns the cells for one result
func (CSVFormatter) Row(r types.TaxResult) []string {
	return []string{
		strconv.Itoa(r.Rank),
		r.CountryName,
		string(r.Local.Currency),
		Money(r.Display.TotalTax),
		Money(r.Display.IncomeTax),
		Money(r.Display.SpecialTaxAmount),
		Money(r.Display.VATAmount),
		Percent(r.VATRate),
		Percent(r.EffectiveRate),
		Money(r.Display.GrossIncome),
		Money(r.Display.NetIncome),
		Money(r.Local.GrossIncome),
		Money(r.Local.TotalTax),
		Money(r.Local.IncomeTax),
		Money(r.Local.SpecialTaxAmount),
		Money(r.Local.VATAmount),
		Money(r.Local.NetIncome),
		Rate(r.ExchangeRate),
		r.Error,
	}
}

// Render writes the batch as CSV
func (f CSVFormatter) Render(w io.Writer, report *Report) error {
	if report == nil || report.Batch == nil {
		return fmt.Errorf("nothing to export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header(report.Batch.Request.DisplayCurrency)); err != nil {
		return err
	}
	for _, r := range report.Batch.Results {
		if err := cw.Write(f.Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
