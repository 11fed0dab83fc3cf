// Package units provides the distance units accepted for display.
package units

import "strings"

// Unit constants
const (
	Parsec      = "pc"
	Kiloparsec  = "kpc"
	LightYear   = "ly"
	lyPerParsec = 3.261563777
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Parsec, Kiloparsec, LightYear}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertDistance converts a distance from parsecs to the target units.
// Distances are stored in parsecs.
func ConvertDistance(parsecs float64, targetUnits string) float64 {
	switch targetUnits {
	case Kiloparsec:
		return parsecs / 1000
	case LightYear:
		return parsecs * lyPerParsec
	default:
		return parsecs
	}
}
