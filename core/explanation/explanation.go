// Package explanation - Tax explanation tree
// Exposes how each tax amount was derived, not just totals.
package explanation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"taxmap/core/tax"
	"taxmap/core/types"
)

// Component names
const (
	ComponentGross     = "gross_income"
	ComponentIncomeTax = "income_tax"
	ComponentVAT       = "vat"
	ComponentTotal     = "total_tax"
)

// Input sources
const (
	SourceInput      = "input"
	SourceCatalog    = "catalog"
	SourceRateTable  = "rate_table"
	SourceCalculated = "calculated"
	SourceDefault    = "default"
)

// TaxExplanation explains one component of a country's tax result
type TaxExplanation struct {
	// Identity
	Country   string `json:"country"`
	Component string `json:"component"`

	// Formula breakdown
	Formula string  `json:"formula"`
	Inputs  []Input `json:"inputs"`

	// Result in the country's currency
	Amount   string             `json:"amount"`
	Currency types.CurrencyCode `json:"currency"`

	Notes []string `json:"notes,omitempty"`
}

// Input represents an input to the formula
type Input struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// NewExplanation creates an explanation for one component
func NewExplanation(country, component string) *TaxExplanation {
	return &TaxExplanation{
		Country:   country,
		Component: component,
		Inputs:    make([]Input, 0),
	}
}

// WithFormula sets the formula description
func (e *TaxExplanation) WithFormula(formula string) *TaxExplanation {
	e.Formula = formula
	return e
}

// AddInput adds an input to the explanation
func (e *TaxExplanation) AddInput(name, value, source string) *TaxExplanation {
	e.Inputs = append(e.Inputs, Input{
		Name:   name,
		Value:  value,
		Source: source,
	})
	return e
}

// WithAmount sets the resulting amount
func (e *TaxExplanation) WithAmount(amount float64, currency types.CurrencyCode) *TaxExplanation {
	e.Amount = money(amount)
	e.Currency = currency
	return e
}

// AddNote attaches a caveat
func (e *TaxExplanation) AddNote(note string) *TaxExplanation {
	e.Notes = append(e.Notes, note)
	return e
}

// ToJSON returns JSON representation
func (e *TaxExplanation) ToJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// ToNarrative returns a human-readable narrative
func (e *TaxExplanation) ToNarrative() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s = %s %s", e.Component, e.Amount, e.Currency))
	if e.Formula != "" {
		sb.WriteString(fmt.Sprintf(", calculated as %s", e.Formula))
	}
	if len(e.Inputs) > 0 {
		parts := make([]string, len(e.Inputs))
		for i, in := range e.Inputs {
			parts[i] = fmt.Sprintf("%s=%s (%s)", in.Name, in.Value, in.Source)
		}
		sb.WriteString(" with " + strings.Join(parts, ", "))
	}
	for _, n := range e.Notes {
		sb.WriteString("\n  note: " + n)
	}
	return sb.String()
}

// Explain builds one explanation per component of res. monthlySalary is the
// caller's salary in the input currency.
func Explain(res types.TaxResult, profile *types.CountryTaxProfile, monthlySalary float64, inputCurrency types.CurrencyCode) []*TaxExplanation {
	local := res.Local
	cur := local.Currency
	out := make([]*TaxExplanation, 0, 4+len(local.SpecialTaxes))

	gross := NewExplanation(res.CountryKey, ComponentGross).
		WithFormula("monthly_salary × exchange_rate × 12").
		AddInput("monthly_salary", money(monthlySalary)+" "+string(inputCurrency), SourceInput).
		AddInput("exchange_rate", decimal.NewFromFloat(res.ExchangeRate).StringFixed(4), rateSource(res)).
		WithAmount(local.GrossIncome, cur)
	if res.RateDegraded {
		gross.AddNote(fmt.Sprintf("no exchange rate for %s, amounts are unconverted", cur))
	}
	out = append(out, gross)

	out = append(out, explainIncomeTax(res, profile))

	for _, item := range local.SpecialTaxes {
		e := NewExplanation(res.CountryKey, item.Type).
			WithFormula("gross_income × rate").
			AddInput("gross_income", money(local.GrossIncome), SourceCalculated).
			AddInput("rate", percent(item.Rate), SourceCatalog).
			WithAmount(item.Amount, cur)
		if item.TargetIgnored {
			e.AddNote(fmt.Sprintf("declared base is %s; charged on gross income", item.Target))
		}
		if item.Description != "" {
			e.AddNote(item.Description)
		}
		out = append(out, e)
	}

	vat := NewExplanation(res.CountryKey, ComponentVAT).WithAmount(local.VATAmount, cur)
	if res.HasVAT {
		spendable := local.GrossIncome - local.IncomeTax - local.SpecialTaxAmount
		vat.WithFormula("spendable × rate / (100 + rate)").
			AddInput("spendable", money(spendable), SourceCalculated).
			AddInput("rate", percent(res.VATRate), SourceCatalog).
			AddNote("assumes all net income is spent at the standard rate")
	} else {
		vat.WithFormula("none")
	}
	out = append(out, vat)

	out = append(out, NewExplanation(res.CountryKey, ComponentTotal).
		WithFormula("income_tax + special_taxes + vat").
		AddInput("income_tax", money(local.IncomeTax), SourceCalculated).
		AddInput("special_taxes", money(local.SpecialTaxAmount), SourceCalculated).
		AddInput("vat", money(local.VATAmount), SourceCalculated).
		WithAmount(local.TotalTax, cur))

	return out
}

func explainIncomeTax(res types.TaxResult, profile *types.CountryTaxProfile) *TaxExplanation {
	local := res.Local
	e := NewExplanation(res.CountryKey, ComponentIncomeTax).WithAmount(local.IncomeTax, local.Currency)

	switch res.System {
	case types.SystemZero:
		return e.WithFormula("none").AddNote("no personal income tax")
	case types.SystemFlat:
		e.WithFormula("gross_income × rate").
			AddInput("gross_income", money(local.GrossIncome), SourceCalculated)
		if profile != nil && len(profile.Brackets) > 0 {
			e.AddInput("rate", percent(profile.Brackets[0].Rate), SourceCatalog)
		}
		return e
	}

	e.WithFormula("Σ taxable_in_bracket × bracket_rate")
	if profile == nil {
		return e
	}
	for _, fill := range tax.Breakdown(local.GrossIncome, profile.Brackets) {
		if fill.Taxable <= 0 {
			continue
		}
		upper := "∞"
		if fill.Bracket.Max != nil {
			upper = money(*fill.Bracket.Max)
		}
		e.AddInput(
			fmt.Sprintf("%s–%s @ %s", money(fill.Bracket.Min), upper, percent(fill.Bracket.Rate)),
			fmt.Sprintf("%s → %s", money(fill.Taxable), money(fill.Tax)),
			SourceCatalog)
	}
	return e
}

func rateSource(res types.TaxResult) string {
	if res.RateDegraded {
		return SourceDefault
	}
	return SourceRateTable
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}
