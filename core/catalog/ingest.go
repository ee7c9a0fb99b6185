package catalog

import (
	"fmt"
	"strings"

	"taxmap/core/types"
	"taxmap/internal/errors"
)

// MilitaryTaxType labels levies that come from a military_tax block
const MilitaryTaxType = "military_tax"

// Ingest resolves raw records into a catalog. Rates given as text are
// resolved to numbers here so the calculators only ever see numbers.
func Ingest(raw RawCatalog) (*Catalog, error) {
	profiles := make([]*types.CountryTaxProfile, 0, len(raw.Countries))
	for i, rc := range raw.Countries {
		p, err := IngestCountry(rc)
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("country #%d (%s)", i+1, rc.Key), err)
		}
		profiles = append(profiles, p)
	}
	return New(profiles...), nil
}

// IngestCountry converts one raw record into a profile
func IngestCountry(rc RawCountry) (*types.CountryTaxProfile, error) {
	key := NormalizeKey(rc.Key)
	if key == "" {
		key = NormalizeKey(rc.Name)
	}
	if key == "" {
		return nil, errors.Validation("country key or name is required")
	}

	system, ok := types.ParseSystemKind(rc.System)
	if !ok {
		return nil, errors.Newf(errors.TypeValidation, "unknown tax system %q", rc.System)
	}

	name := rc.Name
	if name == "" {
		name = key
	}

	p := &types.CountryTaxProfile{
		Key:         key,
		Name:        name,
		CountryCode: rc.CountryCode,
		Currency:    types.NormalizeCurrency(rc.Currency),
		System:      system,
		Brackets:    ingestBrackets(rc.Brackets),
	}

	if len(rc.Coordinates) == 2 {
		p.Coordinates = types.Coordinates{Lat: rc.Coordinates[0], Lng: rc.Coordinates[1]}
	}

	for _, st := range rc.SpecialTaxes {
		target, err := parseLevyBase(st.Target)
		if err != nil {
			return nil, err
		}
		p.SpecialTaxes = append(p.SpecialTaxes, types.SpecialTaxRule{
			Type:        st.Type,
			Rate:        st.Rate.Resolve(),
			Target:      target,
			Description: st.Description,
		})
	}
	if mt := rc.MilitaryTax; mt != nil {
		p.SpecialTaxes = append(p.SpecialTaxes, types.SpecialTaxRule{
			Type:        MilitaryTaxType,
			Rate:        mt.Rate.Resolve(),
			Target:      types.LevyBaseGross,
			Description: levyDescription(mt.Base, mt.Notes),
		})
	}

	if v := rc.VAT; v != nil {
		p.VAT = &types.VATProfile{
			HasVAT:    v.HasVAT,
			Standard:  v.Standard,
			Reduced:   v.Reduced,
			ZeroRated: v.ZeroRated,
			Notes:     v.Notes,
		}
	}

	return p, nil
}

// levyDescription joins the declared base and any notes into one line
func levyDescription(base, notes string) string {
	base, notes = strings.TrimSpace(base), strings.TrimSpace(notes)
	switch {
	case base == "":
		return notes
	case notes == "":
		return base
	default:
		return base + "; " + notes
	}
}

// ingestBrackets applies defaults: no brackets means a single 0% bracket,
// a missing min is 0, and a missing or zero max is open-ended.
func ingestBrackets(raw []RawBracket) []types.TaxBracket {
	if len(raw) == 0 {
		return []types.TaxBracket{types.OpenBracket(0, 0)}
	}

	out := make([]types.TaxBracket, len(raw))
	for i, rb := range raw {
		b := types.TaxBracket{Rate: rb.Rate.Resolve()}
		if rb.Min != nil {
			b.Min = *rb.Min
		}
		if rb.Max != nil && *rb.Max != 0 {
			hi := *rb.Max
			b.Max = &hi
		}
		out[i] = b
	}
	return out
}

func parseLevyBase(s string) (types.LevyBase, error) {
	switch s {
	case "", "gross":
		return types.LevyBaseGross, nil
	case "net":
		return types.LevyBaseNet, nil
	default:
		return "", errors.Newf(errors.TypeValidation, "unknown levy target %q", s)
	}
}
