package catalog

import (
	stderrors "errors"
	"fmt"

	"taxmap/core/types"
	"taxmap/internal/errors"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*types.CountryTaxProfile) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateCurrency,
		validateBracketOrder,
		validateOpenTopBracket,
		validateRates,
		validateFlatHasBracket,
		validateVAT,
	}
}

// Validate checks every profile against rules
func (c *Catalog) Validate(rules []ValidationRule) []error {
	var errs []error

	for _, p := range c.Profiles() {
		for _, rule := range rules {
			if err := rule(p); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Key, err))
			}
		}
	}

	return errs
}

func validateCurrency(p *types.CountryTaxProfile) error {
	if p.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

// validateBracketOrder ensures brackets ascend without overlapping
func validateBracketOrder(p *types.CountryTaxProfile) error {
	for i, b := range p.Brackets {
		if b.Max != nil && *b.Max <= b.Min {
			return fmt.Errorf("bracket %d: max %v must exceed min %v", i, *b.Max, b.Min)
		}
		if i == 0 {
			continue
		}
		prev := p.Brackets[i-1]
		if b.Min <= prev.Min {
			return fmt.Errorf("bracket %d: min %v is not above previous min %v", i, b.Min, prev.Min)
		}
		if prev.Max == nil {
			return fmt.Errorf("bracket %d follows an open-ended bracket", i)
		}
		if b.Min < *prev.Max {
			return fmt.Errorf("bracket %d: min %v overlaps previous max %v", i, b.Min, *prev.Max)
		}
	}
	return nil
}

func validateOpenTopBracket(p *types.CountryTaxProfile) error {
	if p.System != types.SystemProgressive || len(p.Brackets) == 0 {
		return nil
	}
	if last := p.Brackets[len(p.Brackets)-1]; last.Max != nil {
		return fmt.Errorf("last bracket must be open-ended, has max %v", *last.Max)
	}
	return nil
}

func validateRates(p *types.CountryTaxProfile) error {
	for i, b := range p.Brackets {
		if b.Rate < 0 || b.Rate > 100 {
			return fmt.Errorf("bracket %d: rate %v outside [0, 100]", i, b.Rate)
		}
	}
	for _, st := range p.SpecialTaxes {
		if st.Rate < 0 || st.Rate > 100 {
			return fmt.Errorf("special tax %s: rate %v outside [0, 100]", st.Type, st.Rate)
		}
	}
	return nil
}

func validateFlatHasBracket(p *types.CountryTaxProfile) error {
	if p.System == types.SystemFlat && len(p.Brackets) == 0 {
		return fmt.Errorf("flat system requires a bracket")
	}
	return nil
}

func validateVAT(p *types.CountryTaxProfile) error {
	if p.VAT == nil || !p.VAT.HasVAT {
		return nil
	}
	if p.VAT.Standard == nil {
		return fmt.Errorf("vat: standard rate is required when has_vat is set")
	}
	if s := *p.VAT.Standard; s <= 0 || s > 100 {
		return fmt.Errorf("vat: standard rate %v outside (0, 100]", s)
	}
	return nil
}

// Check runs rules and folds every violation into one VALIDATION_ERROR.
// It returns nil for a valid catalog.
func (c *Catalog) Check(rules []ValidationRule) error {
	errs := c.Validate(rules)
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.TypeValidation,
		fmt.Sprintf("catalog has %d validation errors", len(errs)),
		stderrors.Join(errs...)).
		WithContext("violations", len(errs))
}
