package types

import "strings"

// CurrencyCode is an ISO-4217 style currency identifier
type CurrencyCode string

const (
	CurrencyUSD CurrencyCode = "USD"
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyGBP CurrencyCode = "GBP"
)

// String returns the string representation
func (c CurrencyCode) String() string {
	return string(c)
}

// NormalizeCurrency trims and upper-cases a user supplied code
func NormalizeCurrency(code string) CurrencyCode {
	return CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))
}
