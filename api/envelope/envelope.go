// Package envelope - Input normalization and envelope creation
// Handlers never pass raw request bodies to the engine, only normalized
// envelopes whose hash identifies the calculation.
package envelope

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"taxmap/core/engine"
	"taxmap/core/types"
	"taxmap/internal/errors"
)

// InputEnvelope is the normalized, hashed representation of a calculation request
type InputEnvelope struct {
	MonthlySalary   float64            `json:"monthly_salary"`
	InputCurrency   types.CurrencyCode `json:"input_currency"`
	DisplayCurrency types.CurrencyCode `json:"display_currency"`

	// RateSnapshotID pins the rate table the calculation ran against
	RateSnapshotID string `json:"rate_snapshot_id,omitempty"`

	// Identity
	InputHash string `json:"input_hash"`

	NormalizedAt time.Time `json:"normalized_at"`
}

// RawInput represents unnormalized API input
type RawInput struct {
	MonthlySalary   float64
	InputCurrency   string
	DisplayCurrency string
}

// Normalizer normalizes raw input into envelopes
type Normalizer struct {
	defaultInput   types.CurrencyCode
	defaultDisplay types.CurrencyCode
}

// NewNormalizer creates a normalizer. Empty defaults fall back to USD.
func NewNormalizer(defaultInput, defaultDisplay types.CurrencyCode) *Normalizer {
	n := &Normalizer{
		defaultInput:   types.NormalizeCurrency(string(defaultInput)),
		defaultDisplay: types.NormalizeCurrency(string(defaultDisplay)),
	}
	if n.defaultInput == "" {
		n.defaultInput = types.CurrencyUSD
	}
	if n.defaultDisplay == "" {
		n.defaultDisplay = types.CurrencyUSD
	}
	return n
}

// Normalize transforms raw input to a deterministic envelope
func (n *Normalizer) Normalize(raw RawInput) (*InputEnvelope, error) {
	env := &InputEnvelope{
		MonthlySalary:   raw.MonthlySalary,
		InputCurrency:   n.currency(raw.InputCurrency, n.defaultInput),
		DisplayCurrency: n.currency(raw.DisplayCurrency, n.defaultDisplay),
		NormalizedAt:    time.Now().UTC(),
	}
	if err := env.Request().Validate(); err != nil {
		return nil, err
	}
	for _, c := range []types.CurrencyCode{env.InputCurrency, env.DisplayCurrency} {
		if !validCode(c) {
			return nil, errors.InvalidInputf("invalid currency code %q", c)
		}
	}

	env.InputHash = computeInputHash(env)
	return env, nil
}

func (n *Normalizer) currency(code string, def types.CurrencyCode) types.CurrencyCode {
	if c := types.NormalizeCurrency(code); c != "" {
		return c
	}
	return def
}

func validCode(c types.CurrencyCode) bool {
	if len(c) != 3 {
		return false
	}
	return strings.IndexFunc(string(c), func(r rune) bool { return r < 'A' || r > 'Z' }) < 0
}

// Pin records the rate snapshot used and recomputes the hash
func (e *InputEnvelope) Pin(snapshotID string) {
	e.RateSnapshotID = snapshotID
	e.InputHash = computeInputHash(e)
}

// Request converts the envelope into an engine request
func (e *InputEnvelope) Request() engine.Request {
	return engine.Request{
		MonthlySalary:   e.MonthlySalary,
		InputCurrency:   e.InputCurrency,
		DisplayCurrency: e.DisplayCurrency,
	}
}

func computeInputHash(e *InputEnvelope) string {
	// Hash only the fields that affect the result
	hashData := struct {
		MonthlySalary   float64
		InputCurrency   types.CurrencyCode
		DisplayCurrency types.CurrencyCode
		RateSnapshotID  string
	}{
		MonthlySalary:   e.MonthlySalary,
		InputCurrency:   e.InputCurrency,
		DisplayCurrency: e.DisplayCurrency,
		RateSnapshotID:  e.RateSnapshotID,
	}

	data, _ := json.Marshal(hashData)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns first 12 characters of hash
func (e *InputEnvelope) ShortHash() string {
	if len(e.InputHash) >= 12 {
		return e.InputHash[:12]
	}
	return e.InputHash
}
