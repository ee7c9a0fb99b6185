package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawRate is a bracket or levy rate as written in source data: either a
// number or a descriptive string such as "14-42 (geometrically progressive)".
type RawRate struct {
	Value  float64
	Text   string
	IsText bool
}

// Number returns a numeric RawRate
func Number(v float64) RawRate {
	return RawRate{Value: v}
}

// Text returns a descriptive RawRate
func Text(s string) RawRate {
	return RawRate{Text: s, IsText: true}
}

var (
	rangePattern  = regexp.MustCompile(`(\d+)-(\d+)`)
	numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// Resolve returns the numeric rate. Geometrically progressive ranges
// resolve to the midpoint of the range; other text resolves to its first
// number, or 0 when it has none.
func (r RawRate) Resolve() float64 {
	if !r.IsText {
		return r.Value
	}

	if strings.Contains(r.Text, "geometrically progressive") {
		m := rangePattern.FindStringSubmatch(r.Text)
		if m == nil {
			return 0
		}
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return (lo + hi) / 2
	}

	if m := numberPattern.FindStringSubmatch(r.Text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	return 0
}

// UnmarshalYAML accepts a scalar number or string
func (r *RawRate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: rate must be a number or string", node.Line)
	}
	if node.Tag == "!!str" {
		*r = Text(node.Value)
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("line %d: invalid rate %q: %w", node.Line, node.Value, err)
	}
	*r = Number(v)
	return nil
}

// UnmarshalJSON accepts a number or string
func (r *RawRate) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*r = Number(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rate must be a number or string: %s", string(data))
	}
	*r = Text(s)
	return nil
}

// MarshalJSON writes the original form
func (r RawRate) MarshalJSON() ([]byte, error) {
	if r.IsText {
		return json.Marshal(r.Text)
	}
	return json.Marshal(r.Value)
}

// RawBracket is a bracket before rate resolution
type RawBracket struct {
	Min  *float64 `yaml:"min" json:"min"`
	Max  *float64 `yaml:"max" json:"max"`
	Rate RawRate  `yaml:"rate" json:"rate"`
}

// RawSpecialTax is a levy as written in source data
type RawSpecialTax struct {
	Type        string  `yaml:"type" json:"type"`
	Rate        RawRate `yaml:"rate" json:"rate"`
	Target      string  `yaml:"target" json:"target"`
	Description string  `yaml:"description" json:"description"`
}

// RawMilitaryTax is the military levy block carried by some countries
type RawMilitaryTax struct {
	Rate  RawRate `yaml:"rate" json:"rate"`
	Base  string  `yaml:"base" json:"base"`
	Notes string  `yaml:"notes" json:"notes"`
}

// RawVAT is a VAT block as written in source data
type RawVAT struct {
	HasVAT    bool      `yaml:"has_vat" json:"has_vat"`
	Standard  *float64  `yaml:"standard" json:"standard"`
	Reduced   []float64 `yaml:"reduced" json:"reduced"`
	ZeroRated bool      `yaml:"zero_rated" json:"zero_rated"`
	Notes     string    `yaml:"notes" json:"notes"`
}

// RawCountry is one country record as written in source data
type RawCountry struct {
	Key          string          `yaml:"key" json:"key"`
	Name         string          `yaml:"name" json:"name"`
	Currency     string          `yaml:"currency" json:"currency"`
	System       string          `yaml:"system" json:"system"`
	CountryCode  string          `yaml:"country_code" json:"country_code"`
	Coordinates  []float64       `yaml:"coordinates" json:"coordinates"`
	Brackets     []RawBracket    `yaml:"brackets" json:"brackets"`
	SpecialTaxes []RawSpecialTax `yaml:"special_taxes" json:"special_taxes"`
	MilitaryTax  *RawMilitaryTax `yaml:"military_tax" json:"military_tax"`
	VAT          *RawVAT         `yaml:"vat" json:"vat"`
}

// RawCatalog is the top-level document
type RawCatalog struct {
	Countries []RawCountry `yaml:"countries" json:"countries"`
}
