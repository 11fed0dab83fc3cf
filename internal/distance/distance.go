// Package distance converts apparent magnitudes to absolute magnitudes and
// distances via the distance modulus, m - M = 5*log10(d/10).
package distance

import (
	"fmt"
	"math"

	"github.com/banshee-data/leavitt/internal/astro"
	"github.com/banshee-data/leavitt/internal/catalogue"
)

// Canonical cloud distances in parsecs.
const (
	SMCDistanceParsecs = 62440.0
	LMCDistanceParsecs = 49590.0
)

// ReferenceDistance returns the canonical distance for a Magellanic Cloud.
func ReferenceDistance(cloud string) (float64, bool) {
	switch cloud {
	case catalogue.SMC:
		return SMCDistanceParsecs, true
	case catalogue.LMC:
		return LMCDistanceParsecs, true
	}
	return 0, false
}

// AbsoluteMagnitude returns M = m - 5*log10(d/10) for a star assumed to lie
// at distanceParsecs.
func AbsoluteMagnitude(apparent, distanceParsecs float64) (float64, error) {
	mu, err := astro.DistanceModulus(distanceParsecs)
	if err != nil {
		return 0, err
	}
	return apparent - mu, nil
}

// DistanceFromModulus inverts the distance modulus: d = 10^((m - M + 5)/5)
// parsecs.
func DistanceFromModulus(apparent, absolute float64) float64 {
	return math.Pow(10, (apparent-absolute+5)/5)
}

// PercentError returns |true - model| / true * 100.
func PercentError(trueParsecs, modelParsecs float64) (float64, error) {
	if !(trueParsecs > 0) {
		return 0, &astro.DomainError{Op: "percent error", Value: trueParsecs}
	}
	return math.Abs(trueParsecs-modelParsecs) / trueParsecs * 100, nil
}

// Estimate is the derived distance data for one star. Model distances and
// errors are keyed by calibration model name and filled in by Model.Apply.
type Estimate struct {
	ID            string
	LogPeriod     float64
	ApparentMag   float64
	AbsoluteMag   float64
	TrueDistance  float64
	ModelDistance map[string]float64
	PercentError  map[string]float64
}

// Estimates computes an Estimate for every star in c. A star's true distance
// is its own catalogue distance when it has one, otherwise the cloud distance
// referenceParsecs.
func Estimates(c catalogue.Catalogue, referenceParsecs float64) ([]Estimate, error) {
	out := make([]Estimate, 0, c.Len())
	for _, r := range c.Records() {
		logP, err := astro.LogPeriod(r.P1)
		if err != nil {
			return nil, fmt.Errorf("estimate star %s: %w", r.ID, err)
		}
		d := r.DistanceOr(referenceParsecs)
		abs, err := AbsoluteMagnitude(r.I, d)
		if err != nil {
			return nil, fmt.Errorf("estimate star %s: %w", r.ID, err)
		}
		out = append(out, Estimate{
			ID:            r.ID,
			LogPeriod:     logP,
			ApparentMag:   r.I,
			AbsoluteMag:   abs,
			TrueDistance:  d,
			ModelDistance: make(map[string]float64),
			PercentError:  make(map[string]float64),
		})
	}
	return out, nil
}
