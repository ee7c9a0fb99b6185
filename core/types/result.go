package types

// SpecialTaxItem is one line of a special tax breakdown
type SpecialTaxItem struct {
	Type        string   `json:"type"`
	Rate        float64  `json:"rate"`
	Target      LevyBase `json:"target"`
	Description string   `json:"description,omitempty"`
	Amount      float64  `json:"amount"`

	// TargetIgnored is set when the rule declares a base other than the
	// gross income it was actually charged on.
	TargetIgnored bool `json:"target_ignored,omitempty"`
}

// Amounts holds the monetary fields of a result in one currency
type Amounts struct {
	Currency         CurrencyCode     `json:"currency"`
	GrossIncome      float64          `json:"gross_income"`
	IncomeTax        float64          `json:"income_tax"`
	SpecialTaxAmount float64          `json:"special_tax_amount"`
	SpecialTaxes     []SpecialTaxItem `json:"special_taxes,omitempty"`
	VATAmount        float64          `json:"vat_amount"`
	TotalTax         float64          `json:"total_tax"`
	NetIncome        float64          `json:"net_income"`
}

// Scale returns a copy with every monetary field multiplied by rate
func (a Amounts) Scale(rate float64, currency CurrencyCode) Amounts {
	out := Amounts{
		Currency:         currency,
		GrossIncome:      a.GrossIncome * rate,
		IncomeTax:        a.IncomeTax * rate,
		SpecialTaxAmount: a.SpecialTaxAmount * rate,
		VATAmount:        a.VATAmount * rate,
		TotalTax:         a.TotalTax * rate,
		NetIncome:        a.NetIncome * rate,
	}
	if a.SpecialTaxes != nil {
		out.SpecialTaxes = make([]SpecialTaxItem, len(a.SpecialTaxes))
		for i, item := range a.SpecialTaxes {
			item.Amount *= rate
			out.SpecialTaxes[i] = item
		}
	}
	return out
}

// TaxResult is the outcome of one country calculation.
// Local amounts are in the country's currency; Display mirrors them in the
// caller's display currency once the orchestrator has normalized the result.
type TaxResult struct {
	// CountryKey is the catalog key
	CountryKey string `json:"country_key"`

	// CountryName is the display name
	CountryName string `json:"country_name"`

	// CountryCode is the ISO 3166 alpha-2 code
	CountryCode string `json:"country_code,omitempty"`

	// System is the income tax system used
	System SystemKind `json:"system"`

	// Local holds amounts in the country's currency
	Local Amounts `json:"local"`

	// Display holds amounts in the display currency
	Display Amounts `json:"display"`

	// VATRate is the applied standard VAT rate in percent
	VATRate float64 `json:"vat_rate"`

	// HasVAT is true when VAT was applied
	HasVAT bool `json:"has_vat"`

	// HasSpecialTaxes is true when at least one levy was charged
	HasSpecialTaxes bool `json:"has_special_taxes"`

	// EffectiveRate is total tax as a percentage of gross income
	EffectiveRate float64 `json:"effective_rate"`

	// ExchangeRate is the applied input -> local currency rate
	ExchangeRate float64 `json:"exchange_rate"`

	// RateDegraded is set when a currency was missing and rate 1 was used
	RateDegraded bool `json:"rate_degraded,omitempty"`

	// Rank is the 1-based position after sorting
	Rank int `json:"rank"`

	// Coordinates locate the country on a map
	Coordinates Coordinates `json:"coordinates"`

	// Error is set when the country's pipeline failed; amounts are zero
	Error string `json:"error,omitempty"`
}

// Failed reports whether the result is an error placeholder
func (r *TaxResult) Failed() bool {
	return r.Error != ""
}
