package catalog

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"taxmap/internal/errors"
)

// HCL catalogs describe countries as labelled blocks:
//
//	country "ukraine" {
//	  name     = "Ukraine"
//	  currency = "UAH"
//	  system   = "flat"
//
//	  bracket {
//	    min  = 0
//	    rate = 18
//	  }
//
//	  special_tax {
//	    type   = "military_tax"
//	    rate   = 5
//	    target = "gross"
//	  }
//	}

var countrySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "currency", Required: true},
		{Name: "system"},
		{Name: "country_code"},
		{Name: "coordinates"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "bracket"},
		{Type: "special_tax"},
		{Type: "military_tax"},
		{Type: "vat"},
	},
}

var bracketSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "min"},
		{Name: "max"},
		{Name: "rate", Required: true},
	},
}

var specialTaxSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "rate", Required: true},
		{Name: "target"},
		{Name: "description"},
	},
}

var militaryTaxSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "rate", Required: true},
		{Name: "base"},
		{Name: "notes"},
	},
}

var vatSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "has_vat", Required: true},
		{Name: "standard"},
		{Name: "reduced"},
		{Name: "zero_rated"},
		{Name: "notes"},
	},
}

func decodeHCL(src []byte, filename string) (RawCatalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return RawCatalog{}, diagError(filename, diags)
	}

	content, diags := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "country", LabelNames: []string{"key"}},
		},
	})
	if diags.HasErrors() {
		return RawCatalog{}, diagError(filename, diags)
	}

	var raw RawCatalog
	for _, block := range content.Blocks {
		rc, diags := decodeCountry(block)
		if diags.HasErrors() {
			return RawCatalog{}, diagError(filename, diags)
		}
		raw.Countries = append(raw.Countries, rc)
	}
	return raw, nil
}

func decodeCountry(block *hcl.Block) (RawCountry, hcl.Diagnostics) {
	rc := RawCountry{Key: block.Labels[0]}

	content, diags := block.Body.Content(countrySchema)
	if diags.HasErrors() {
		return rc, diags
	}

	attrs := attrReader{attrs: content.Attributes}
	rc.Name = attrs.str("name")
	rc.Currency = attrs.str("currency")
	rc.System = attrs.str("system")
	rc.CountryCode = attrs.str("country_code")
	rc.Coordinates = attrs.numbers("coordinates")

	for _, b := range content.Blocks {
		switch b.Type {
		case "bracket":
			bc, d := b.Body.Content(bracketSchema)
			if d.HasErrors() {
				return rc, append(attrs.diags, d...)
			}
			ba := attrReader{attrs: bc.Attributes}
			rc.Brackets = append(rc.Brackets, RawBracket{
				Min:  ba.optNumber("min"),
				Max:  ba.optNumber("max"),
				Rate: ba.rate("rate"),
			})
			attrs.diags = append(attrs.diags, ba.diags...)

		case "special_tax":
			sc, d := b.Body.Content(specialTaxSchema)
			if d.HasErrors() {
				return rc, append(attrs.diags, d...)
			}
			sa := attrReader{attrs: sc.Attributes}
			rc.SpecialTaxes = append(rc.SpecialTaxes, RawSpecialTax{
				Type:        sa.str("type"),
				Rate:        sa.rate("rate"),
				Target:      sa.str("target"),
				Description: sa.str("description"),
			})
			attrs.diags = append(attrs.diags, sa.diags...)

		case "military_tax":
			mc, d := b.Body.Content(militaryTaxSchema)
			if d.HasErrors() {
				return rc, append(attrs.diags, d...)
			}
			ma := attrReader{attrs: mc.Attributes}
			rc.MilitaryTax = &RawMilitaryTax{
				Rate:  ma.rate("rate"),
				Base:  ma.str("base"),
				Notes: ma.str("notes"),
			}
			attrs.diags = append(attrs.diags, ma.diags...)

		case "vat":
			vc, d := b.Body.Content(vatSchema)
			if d.HasErrors() {
				return rc, append(attrs.diags, d...)
			}
			va := attrReader{attrs: vc.Attributes}
			rc.VAT = &RawVAT{
				HasVAT:    va.boolean("has_vat"),
				Standard:  va.optNumber("standard"),
				Reduced:   va.numbers("reduced"),
				ZeroRated: va.boolean("zero_rated"),
				Notes:     va.str("notes"),
			}
			attrs.diags = append(attrs.diags, va.diags...)
		}
	}

	return rc, attrs.diags
}

// attrReader evaluates literal attributes, collecting diagnostics
type attrReader struct {
	attrs hcl.Attributes
	diags hcl.Diagnostics
}

func (r *attrReader) value(name string) (cty.Value, *hcl.Attribute, bool) {
	attr, ok := r.attrs[name]
	if !ok {
		return cty.NilVal, nil, false
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		r.diags = append(r.diags, diags...)
		return cty.NilVal, attr, false
	}
	if val.IsNull() {
		return cty.NilVal, attr, false
	}
	return val, attr, true
}

func (r *attrReader) fail(attr *hcl.Attribute, summary string, err error) {
	r.diags = append(r.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf("%s: %v", attr.Name, err),
		Subject:  attr.Range.Ptr(),
	})
}

func (r *attrReader) str(name string) string {
	val, attr, ok := r.value(name)
	if !ok {
		return ""
	}
	var s string
	if err := gocty.FromCtyValue(val, &s); err != nil {
		r.fail(attr, "Invalid string", err)
	}
	return s
}

func (r *attrReader) boolean(name string) bool {
	val, attr, ok := r.value(name)
	if !ok {
		return false
	}
	var b bool
	if err := gocty.FromCtyValue(val, &b); err != nil {
		r.fail(attr, "Invalid bool", err)
	}
	return b
}

func (r *attrReader) optNumber(name string) *float64 {
	val, attr, ok := r.value(name)
	if !ok {
		return nil
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		r.fail(attr, "Invalid number", err)
		return nil
	}
	return &f
}

func (r *attrReader) numbers(name string) []float64 {
	val, attr, ok := r.value(name)
	if !ok {
		return nil
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		r.fail(attr, "Invalid number list", err)
		return nil
	}
	var out []float64
	if err := gocty.FromCtyValue(list, &out); err != nil {
		r.fail(attr, "Invalid number list", err)
	}
	return out
}

// rate accepts a number or a descriptive string
func (r *attrReader) rate(name string) RawRate {
	val, attr, ok := r.value(name)
	if !ok {
		return RawRate{}
	}
	if val.Type() == cty.String {
		return Text(val.AsString())
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		r.fail(attr, "Invalid rate", err)
	}
	return Number(f)
}

func diagError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if d.Subject != nil {
			line = d.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("%s:%d: %s: %s", filename, line, d.Summary, d.Detail))
	}
	return errors.Parsing("invalid HCL catalog", fmt.Errorf("%s", strings.Join(msgs, "; ")))
}
