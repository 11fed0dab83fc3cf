// Package plrelation fits linear period-luminosity relations,
// magnitude = Slope*log10(P) + Intercept, by ordinary least squares.
package plrelation

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/leavitt/internal/astro"
	"github.com/banshee-data/leavitt/internal/catalogue"
)

// FitCoefficients is a fitted P-L line. It satisfies catalogue.Line.
type FitCoefficients struct {
	Slope     float64
	Intercept float64
	N         int     // points used
	RSquared  float64 // coefficient of determination
}

// At evaluates the line at log10(P).
func (f FitCoefficients) At(logPeriod float64) float64 {
	return f.Slope*logPeriod + f.Intercept
}

// Offset returns the same line shifted by delta magnitudes.
func (f FitCoefficients) Offset(delta float64) FitCoefficients {
	f.Intercept += delta
	return f
}

func (f FitCoefficients) String() string {
	return fmt.Sprintf("%.3f logP + %.3f (n=%d, R²=%.3f)", f.Slope, f.Intercept, f.N, f.RSquared)
}

// Fit returns the least-squares line through (xs[i], ys[i]).
//
// If every x is identical the slope is undefined and the result is NaN; this
// degenerate case is passed through rather than special-cased.
func Fit(xs, ys []float64) (FitCoefficients, error) {
	if len(xs) != len(ys) {
		return FitCoefficients{}, fmt.Errorf("fit: length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return FitCoefficients{}, &astro.InsufficientDataError{N: len(xs)}
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return FitCoefficients{
		Slope:     beta,
		Intercept: alpha,
		N:         len(xs),
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
	}, nil
}

// Magnitude selects the y value for a star; it may fail, e.g. for a
// non-positive reference distance.
type Magnitude func(catalogue.StarRecord) (float64, error)

// Apparent uses the catalogue I magnitude.
func Apparent(r catalogue.StarRecord) (float64, error) { return r.I, nil }

// Points returns log10(P1) and the selected magnitude for every star.
func Points(c catalogue.Catalogue, mag Magnitude) (xs, ys []float64, err error) {
	xs = make([]float64, 0, c.Len())
	ys = make([]float64, 0, c.Len())
	for _, r := range c.Records() {
		x, err := astro.LogPeriod(r.P1)
		if err != nil {
			return nil, nil, fmt.Errorf("star %s: %w", r.ID, err)
		}
		y, err := mag(r)
		if err != nil {
			return nil, nil, fmt.Errorf("star %s: %w", r.ID, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}

// FitCatalogue fits apparent I magnitude against log10(P1).
func FitCatalogue(c catalogue.Catalogue) (FitCoefficients, error) {
	return fitWith(c, Apparent)
}

// FitAbsolute fits absolute magnitude against log10(P1). Each star sits at
// its own distance when it has one and at distanceParsecs otherwise.
func FitAbsolute(c catalogue.Catalogue, distanceParsecs float64) (FitCoefficients, error) {
	return fitWith(c, func(r catalogue.StarRecord) (float64, error) {
		mu, err := astro.DistanceModulus(r.DistanceOr(distanceParsecs))
		if err != nil {
			return 0, err
		}
		return r.I - mu, nil
	})
}

func fitWith(c catalogue.Catalogue, mag Magnitude) (FitCoefficients, error) {
	xs, ys, err := Points(c, mag)
	if err != nil {
		return FitCoefficients{}, fmt.Errorf("fit %s: %w", c.Key(), err)
	}
	f, err := Fit(xs, ys)
	if err != nil {
		return FitCoefficients{}, fmt.Errorf("fit %s: %w", c.Key(), err)
	}
	return f, nil
}
