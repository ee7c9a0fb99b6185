// Package catalog holds the country tax catalog: an ordered, read-only set
// of CountryTaxProfile values loaded from the embedded dataset or from
// YAML, JSON or HCL files.
package catalog

import (
	"sort"
	"strings"

	"taxmap/core/types"
	"taxmap/internal/errors"
)

// Catalog is an ordered set of country profiles. It is not mutated after
// construction; Merge returns a new catalog.
type Catalog struct {
	keys     []string
	profiles map[string]*types.CountryTaxProfile
}

// New builds a catalog from profiles in order. A repeated key keeps its
// first position and takes the later profile.
func New(profiles ...*types.CountryTaxProfile) *Catalog {
	c := &Catalog{profiles: make(map[string]*types.CountryTaxProfile, len(profiles))}
	for _, p := range profiles {
		c.put(p)
	}
	return c
}

func (c *Catalog) put(p *types.CountryTaxProfile) {
	if p == nil {
		return
	}
	if _, exists := c.profiles[p.Key]; !exists {
		c.keys = append(c.keys, p.Key)
	}
	c.profiles[p.Key] = p
}

// NormalizeKey lower-cases a country key and replaces spaces with underscores
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
}

// Len returns the number of countries
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Keys returns the country keys in catalog order
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Profiles returns the profiles in catalog order
func (c *Catalog) Profiles() []*types.CountryTaxProfile {
	out := make([]*types.CountryTaxProfile, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.profiles[k]
	}
	return out
}

// Lookup returns the profile for key
func (c *Catalog) Lookup(key string) (*types.CountryTaxProfile, bool) {
	p, ok := c.profiles[NormalizeKey(key)]
	return p, ok
}

// Get returns the profile for key or a ProfileNotFound error
func (c *Catalog) Get(key string) (*types.CountryTaxProfile, error) {
	if p, ok := c.Lookup(key); ok {
		return p, nil
	}
	return nil, errors.ProfileNotFound(key)
}

// Merge returns a catalog with other's profiles layered over c's
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := New(c.Profiles()...)
	if other != nil {
		for _, p := range other.Profiles() {
			merged.put(p)
		}
	}
	return merged
}

// Currencies returns the distinct local currencies, sorted
func (c *Catalog) Currencies() []types.CurrencyCode {
	seen := make(map[types.CurrencyCode]bool)
	var out []types.CurrencyCode
	for _, k := range c.keys {
		cur := c.profiles[k].Currency
		if !seen[cur] {
			seen[cur] = true
			out = append(out, cur)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats returns catalog statistics
func (c *Catalog) Stats() Stats {
	stats := Stats{
		BySystem: make(map[types.SystemKind]int),
	}

	for _, k := range c.keys {
		p := c.profiles[k]
		stats.Total++
		stats.BySystem[p.System]++
		if p.VAT != nil && p.VAT.HasVAT {
			stats.WithVAT++
		}
		if len(p.SpecialTaxes) > 0 {
			stats.WithSpecialTaxes++
		}
	}
	stats.Currencies = len(c.Currencies())

	return stats
}

// Stats holds catalog statistics
type Stats struct {
	Total            int                      `json:"total"`
	BySystem         map[types.SystemKind]int `json:"by_system"`
	WithVAT          int                      `json:"with_vat"`
	WithSpecialTaxes int                      `json:"with_special_taxes"`
	Currencies       int                      `json:"currencies"`
}
