package astro

import "math"

// LogPeriod returns log10 of a pulsation period in days.
func LogPeriod(periodDays float64) (float64, error) {
	if !positive(periodDays) {
		return 0, &DomainError{Op: "log10(period)", Value: periodDays}
	}
	return math.Log10(periodDays), nil
}

// DistanceModulus returns m - M = 5*log10(d/10) for a distance in parsecs.
func DistanceModulus(distanceParsecs float64) (float64, error) {
	if !positive(distanceParsecs) {
		return 0, &DomainError{Op: "distance modulus", Value: distanceParsecs}
	}
	return 5 * math.Log10(distanceParsecs/10), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
