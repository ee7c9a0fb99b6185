// Package currency supplies point-in-time exchange rate snapshots: a remote
// source, a static fallback table, and a provider that blocks callers until
// a complete table is installed.
package currency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"taxmap/core/types"
	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

// Origin indicates where a rate table came from
type Origin int

const (
	OriginLive     Origin = iota // Fetched from the remote source
	OriginFallback               // Built-in static table
	OriginManual                 // Supplied by the caller
)

// String returns the origin name
func (o Origin) String() string {
	switch o {
	case OriginLive:
		return "live"
	case OriginFallback:
		return "fallback"
	case OriginManual:
		return "manual"
	default:
		return "unknown"
	}
}

// MarshalText renders the origin name in JSON
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an origin name
func (o *Origin) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "live":
		*o = OriginLive
	case "fallback":
		*o = OriginFallback
	case "manual":
		*o = OriginManual
	default:
		return errors.Newf(errors.TypeParsing, "unknown rate origin %q", text)
	}
	return nil
}

// RateTable is IMMUTABLE after creation.
// Rates are units of each currency per one unit of Base.
type RateTable struct {
	id        string
	base      types.CurrencyCode
	rates     map[types.CurrencyCode]float64
	origin    Origin
	fetchedAt time.Time
}

// NewRateTable validates rates and seals them into a table. The base is
// always pinned to 1. A table with any non-positive or non-finite rate is
// rejected as a whole.
func NewRateTable(base types.CurrencyCode, rates map[types.CurrencyCode]float64, origin Origin, fetchedAt time.Time) (*RateTable, error) {
	if base == "" {
		return nil, errors.Validation("rate table base currency is required")
	}
	if len(rates) == 0 {
		return nil, errors.Validation("rate table is empty")
	}

	sealed := make(map[types.CurrencyCode]float64, len(rates)+1)
	for code, rate := range rates {
		if code == "" {
			continue
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, errors.Newf(errors.TypeValidation, "invalid rate for %s: %v", code, rate)
		}
		sealed[code] = rate
	}
	sealed[base] = 1

	t := &RateTable{
		base:      base,
		rates:     sealed,
		origin:    origin,
		fetchedAt: fetchedAt.UTC(),
	}
	t.id = t.computeID()
	return t, nil
}

func (t *RateTable) computeID() string {
	h := sha256.New()
	fmt.Fprintf(h, "base=%s\n", t.base)
	for _, code := range t.Codes() {
		fmt.Fprintf(h, "%s=%g\n", code, t.rates[code])
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// ID is a content hash of the rates; equal tables share an ID
func (t *RateTable) ID() string { return t.id }

// Base returns the base currency
func (t *RateTable) Base() types.CurrencyCode { return t.base }

// Origin returns where the table came from
func (t *RateTable) Origin() Origin { return t.origin }

// FetchedAt returns when the table was built
func (t *RateTable) FetchedAt() time.Time { return t.fetchedAt }

// Len returns the number of currencies
func (t *RateTable) Len() int { return len(t.rates) }

// Has reports whether code is in the table
func (t *RateTable) Has(code types.CurrencyCode) bool {
	_, ok := t.rates[code]
	return ok
}

// Codes returns the currency codes in sorted order
func (t *RateTable) Codes() []types.CurrencyCode {
	codes := make([]types.CurrencyCode, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Rates returns a copy of the rate map
func (t *RateTable) Rates() map[types.CurrencyCode]float64 {
	out := make(map[types.CurrencyCode]float64, len(t.rates))
	for k, v := range t.rates {
		out[k] = v
	}
	return out
}

// Lookup returns rates[to]/rates[from]. Converting a currency to itself is
// always 1. Missing codes yield a ConversionUnavailable error.
func (t *RateTable) Lookup(from, to types.CurrencyCode) (float64, error) {
	if from == to {
		return 1, nil
	}
	fromRate, okFrom := t.rates[from]
	toRate, okTo := t.rates[to]
	if !okFrom || !okTo {
		return 0, errors.ConversionUnavailable(string(from), string(to))
	}
	return toRate / fromRate, nil
}

// Rate is Lookup degraded: a missing code yields 1 and a warning.
func (t *RateTable) Rate(from, to types.CurrencyCode) float64 {
	rate, err := t.Lookup(from, to)
	if err != nil {
		logging.Warn("exchange rate not found, using 1",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("snapshot", t.id))
		return 1
	}
	return rate
}

// Convert converts amount between currencies using Rate
func (t *RateTable) Convert(amount float64, from, to types.CurrencyCode) float64 {
	return amount * t.Rate(from, to)
}
