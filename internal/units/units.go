package units

import (
	"fmt"
	"strings"
)

// PoundsPerKilogram is the single conversion factor used across the module.
const PoundsPerKilogram = 2.20462

// Unit identifies a weight unit system.
type Unit string

const (
	Kilogram Unit = "kg"
	Pound    Unit = "lb"
)

// Valid reports whether u is a recognised unit.
func (u Unit) Valid() bool {
	return u == Kilogram || u == Pound
}

func (u Unit) String() string {
	return string(u)
}

// ParseUnit resolves user input such as "KG" or " lbs " to a Unit.
func ParseUnit(raw string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kg", "kgs":
		return Kilogram, nil
	case "lb", "lbs":
		return Pound, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
}

// ToReference converts value expressed in unit to kilograms.
func ToReference(value float64, unit Unit) float64 {
	if unit == Pound {
		return value / PoundsPerKilogram
	}
	return value
}

// FromReference converts a kilogram value to unit.
func FromReference(value float64, unit Unit) float64 {
	if unit == Pound {
		return value * PoundsPerKilogram
	}
	return value
}
