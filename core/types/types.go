// Package types defines core domain types shared across all layers.
// This package contains NO business logic beyond small value helpers.
package types

// SystemKind is the shape of a country's personal income tax
type SystemKind string

const (
	SystemZero        SystemKind = "zero"
	SystemFlat        SystemKind = "flat"
	SystemProgressive SystemKind = "progressive"
)

// String returns the string representation of the system kind
func (s SystemKind) String() string {
	return string(s)
}

// IsValid checks if the system kind is known
func (s SystemKind) IsValid() bool {
	switch s {
	case SystemZero, SystemFlat, SystemProgressive:
		return true
	default:
		return false
	}
}

// ParseSystemKind maps catalog spellings onto a SystemKind.
// An empty name means progressive; "zero_personal" is an alias of zero.
func ParseSystemKind(name string) (SystemKind, bool) {
	switch name {
	case "", "progressive":
		return SystemProgressive, true
	case "flat":
		return SystemFlat, true
	case "zero", "zero_personal":
		return SystemZero, true
	default:
		return "", false
	}
}

// LevyBase is the income base a special tax declares
type LevyBase string

const (
	LevyBaseGross LevyBase = "gross"
	LevyBaseNet   LevyBase = "net"
)
