package catalogue

import (
	"fmt"

	"github.com/banshee-data/leavitt/internal/astro"
)

// OGLE-IV saturation and sensitivity limits in the I band.
const (
	DefaultSensitivityLo = 13.0
	DefaultSensitivityHi = 21.5
)

// DefaultHaloMargin is how far, in magnitudes, a star may sit above (brighter
// than) the fitted P-L line before it is treated as a foreground halo object.
const DefaultHaloMargin = 1.5

// Bounds is an open apparent-magnitude interval (Lo, Hi).
type Bounds struct {
	Lo float64
	Hi float64
}

// DefaultBounds returns the OGLE-IV I-band limits.
func DefaultBounds() Bounds {
	return Bounds{Lo: DefaultSensitivityLo, Hi: DefaultSensitivityHi}
}

// Contains reports whether Lo < mag < Hi. NaN is never contained.
func (b Bounds) Contains(mag float64) bool {
	return mag > b.Lo && mag < b.Hi
}

// Validate checks that the interval is non-empty.
func (b Bounds) Validate() error {
	if !(b.Lo < b.Hi) {
		return fmt.Errorf("sensitivity bounds must satisfy lo < hi, got (%g, %g)", b.Lo, b.Hi)
	}
	return nil
}

// SensitivityFilter keeps the stars whose I magnitude lies strictly inside b.
func SensitivityFilter(c Catalogue, b Bounds) Catalogue {
	return c.Filter(func(r StarRecord) bool { return b.Contains(r.I) })
}

// Line is a magnitude-vs-log10(period) relation.
type Line interface {
	At(logPeriod float64) float64
}

// HaloFilter keeps the stars with I > line(log10 P1) - margin. Brighter stars
// are taken to be nearer foreground objects. The line is applied as given and
// is not re-fitted on the result.
func HaloFilter(c Catalogue, line Line, margin float64) (Catalogue, error) {
	out := make([]StarRecord, 0, len(c.records))
	for _, r := range c.records {
		logP, err := astro.LogPeriod(r.P1)
		if err != nil {
			return Catalogue{}, fmt.Errorf("halo filter: star %s: %w", r.ID, err)
		}
		if r.I > line.At(logP)-margin {
			out = append(out, r)
		}
	}
	return Catalogue{key: c.key, records: out}, nil
}
