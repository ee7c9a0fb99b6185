// Package api - API types for the tax comparison endpoints
// The API is stateless: every request reads the catalog and one rate snapshot.
package api

import (
	"time"

	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/core/explanation"
	"taxmap/core/output"
	"taxmap/core/tax"
	"taxmap/core/types"
)

// CalculateRequest is the input to POST /api/v1/calculate and /api/v1/export
type CalculateRequest struct {
	MonthlySalary   float64 `json:"monthly_salary"`
	InputCurrency   string  `json:"input_currency,omitempty"`
	DisplayCurrency string  `json:"display_currency,omitempty"`
}

// CalculateResponse is the output of POST /api/v1/calculate
type CalculateResponse struct {
	Batch   *engine.Batch  `json:"batch"`
	Summary output.Summary `json:"summary"`
}

// CountrySummary is one entry of GET /api/v1/countries
type CountrySummary struct {
	Key             string             `json:"key"`
	Name            string             `json:"name"`
	CountryCode     string             `json:"country_code,omitempty"`
	Currency        types.CurrencyCode `json:"currency"`
	System          types.SystemKind   `json:"system"`
	TopRate         float64            `json:"top_rate"`
	HasVAT          bool               `json:"has_vat"`
	VATRate         float64            `json:"vat_rate,omitempty"`
	HasSpecialTaxes bool               `json:"has_special_taxes"`
	Coordinates     types.Coordinates  `json:"coordinates"`
}

// CountriesResponse is the output of GET /api/v1/countries
type CountriesResponse struct {
	Countries []CountrySummary `json:"countries"`
	Count     int              `json:"count"`
}

// CountryTaxResponse is the output of GET /api/v1/countries/:key/tax
type CountryTaxResponse struct {
	Result       types.TaxResult   `json:"result"`
	Brackets     []tax.BracketFill `json:"brackets"`
	MarginalRate float64           `json:"marginal_rate"`

	Explanations []*explanation.TaxExplanation `json:"explanations,omitempty"`
}

// RatesResponse is the output of GET /api/v1/rates
type RatesResponse struct {
	ID        string                         `json:"id"`
	Base      types.CurrencyCode             `json:"base"`
	Origin    currency.Origin                `json:"origin"`
	FetchedAt time.Time                      `json:"fetched_at"`
	Count     int                            `json:"count"`
	Rates     map[types.CurrencyCode]float64 `json:"rates"`
}

// ErrorBody is the error envelope payload
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps every error returned by the API
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func summarizeProfile(p *types.CountryTaxProfile) CountrySummary {
	s := CountrySummary{
		Key:             p.Key,
		Name:            p.Name,
		CountryCode:     p.CountryCode,
		Currency:        p.Currency,
		System:          p.System,
		HasSpecialTaxes: len(p.SpecialTaxes) > 0,
		Coordinates:     p.Coordinates,
	}
	if n := len(p.Brackets); n > 0 {
		s.TopRate = p.Brackets[n-1].Rate
	}
	if p.VAT != nil && p.VAT.HasVAT {
		s.HasVAT = true
		s.VATRate = p.VAT.StandardRate()
	}
	return s
}
