package tax

import (
	"math"

	"taxmap/core/types"
	"taxmap/internal/errors"
)

// MonthsPerYear converts monthly salaries to annual income
const MonthsPerYear = 12

// IncomeTax returns the personal income tax for annualIncome under the
// profile's system.
func IncomeTax(annualIncome float64, profile *types.CountryTaxProfile) (float64, error) {
	switch profile.System {
	case types.SystemZero:
		return 0, nil
	case types.SystemFlat:
		if len(profile.Brackets) == 0 {
			return 0, errors.Calculation(profile.Key, errors.Validation("flat system has no bracket"))
		}
		return annualIncome * (profile.Brackets[0].Rate / 100), nil
	case types.SystemProgressive:
		return ComputeProgressiveTax(annualIncome, profile.Brackets), nil
	default:
		return 0, errors.Calculation(profile.Key, errors.Newf(errors.TypeValidation, "unknown tax system %q", profile.System))
	}
}

// CalculateCountryTax computes the full tax burden for one country from a
// monthly salary already expressed in the country's currency.
//
// The result's Display amounts mirror Local; the orchestrator replaces them
// when a display currency is chosen.
func CalculateCountryTax(monthlySalaryLocal float64, profile *types.CountryTaxProfile) (types.TaxResult, error) {
	if profile == nil {
		return types.TaxResult{}, errors.New(errors.TypeProfileNotFound, "country profile is required")
	}
	if math.IsNaN(monthlySalaryLocal) || math.IsInf(monthlySalaryLocal, 0) || monthlySalaryLocal < 0 {
		return types.TaxResult{}, errors.InvalidInputf("monthly salary must be a finite non-negative number, got %v", monthlySalaryLocal)
	}

	annual := monthlySalaryLocal * MonthsPerYear

	incomeTax, err := IncomeTax(annual, profile)
	if err != nil {
		return types.TaxResult{}, err
	}

	special := ComputeSpecialTaxes(annual, profile.SpecialTaxes)
	vat := ComputeVAT(annual-incomeTax-special.Total, profile.VAT)

	total := incomeTax + special.Total + vat.Amount
	effective := 0.0
	if annual > 0 {
		effective = total / annual * 100
	}

	local := types.Amounts{
		Currency:         profile.Currency,
		GrossIncome:      annual,
		IncomeTax:        incomeTax,
		SpecialTaxAmount: special.Total,
		SpecialTaxes:     special.Breakdown,
		VATAmount:        vat.Amount,
		TotalTax:         total,
		NetIncome:        annual - total,
	}

	return types.TaxResult{
		CountryKey:      profile.Key,
		CountryName:     profile.Name,
		CountryCode:     profile.CountryCode,
		System:          profile.System,
		Local:           local,
		Display:         local.Scale(1, profile.Currency),
		VATRate:         vat.Rate,
		HasVAT:          vat.Applied,
		HasSpecialTaxes: len(special.Breakdown) > 0,
		EffectiveRate:   effective,
		ExchangeRate:    1,
		Coordinates:     profile.Coordinates,
	}, nil
}
