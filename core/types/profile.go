package types

// TaxBracket is one contiguous income range taxed at a marginal rate.
// Rate is a percentage. A nil Max marks the open-ended top bracket.
type TaxBracket struct {
	Min  float64  `json:"min" yaml:"min"`
	Max  *float64 `json:"max" yaml:"max"`
	Rate float64  `json:"rate" yaml:"rate"`
}

// Width returns the bracket width and whether it is bounded
func (b TaxBracket) Width() (float64, bool) {
	if b.Max == nil {
		return 0, false
	}
	return *b.Max - b.Min, true
}

// Bracket builds a bounded bracket
func Bracket(min, max, rate float64) TaxBracket {
	return TaxBracket{Min: min, Max: &max, Rate: rate}
}

// OpenBracket builds the open-ended top bracket
func OpenBracket(min, rate float64) TaxBracket {
	return TaxBracket{Min: min, Rate: rate}
}

// SpecialTaxRule is a levy charged as a flat percentage of a declared base
type SpecialTaxRule struct {
	// Type is the levy label, e.g. "military_tax"
	Type string `json:"type"`

	// Rate is the levy percentage
	Rate float64 `json:"rate"`

	// Target is the declared base. The engine currently always uses gross
	// annual income; see tax.ComputeSpecialTaxes.
	Target LevyBase `json:"target"`

	// Description is a human readable explanation of the base
	Description string `json:"description,omitempty"`
}

// VATProfile describes a country's value added tax
type VATProfile struct {
	HasVAT bool `json:"has_vat"`

	// Standard is the standard rate in percent; nil when unknown
	Standard *float64 `json:"standard,omitempty"`

	// Reduced rates are informational only
	Reduced []float64 `json:"reduced,omitempty"`

	ZeroRated bool   `json:"zero_rated"`
	Notes     string `json:"notes,omitempty"`
}

// StandardRate returns the standard rate or 0 when absent
func (v *VATProfile) StandardRate() float64 {
	if v == nil || v.Standard == nil {
		return 0
	}
	return *v.Standard
}

// Coordinates is a latitude/longitude pair used by map renderers
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CountryTaxProfile is the immutable tax description of one country
type CountryTaxProfile struct {
	// Key is the normalized catalog key, e.g. "united_kingdom"
	Key string `json:"key"`

	// Name is the display name
	Name string `json:"name"`

	// CountryCode is the ISO 3166 alpha-2 code
	CountryCode string `json:"country_code,omitempty"`

	// Currency is the local currency of the brackets
	Currency CurrencyCode `json:"currency"`

	// System selects how income tax is computed
	System SystemKind `json:"system"`

	// Brackets are ordered ascending by Min
	Brackets []TaxBracket `json:"brackets"`

	// SpecialTaxes are additional levies
	SpecialTaxes []SpecialTaxRule `json:"special_taxes,omitempty"`

	// VAT is nil when the catalog has no VAT data
	VAT *VATProfile `json:"vat,omitempty"`

	// Coordinates locate the country on a map
	Coordinates Coordinates `json:"coordinates"`
}
