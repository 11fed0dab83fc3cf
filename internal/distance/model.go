package distance

import (
	"fmt"

	"github.com/banshee-data/leavitt/internal/catalogue"
	"github.com/banshee-data/leavitt/internal/plrelation"
)

// Model is an absolute-magnitude P-L relation calibrated on one cloud. Given
// a star's period it predicts M, and from the apparent magnitude a distance.
type Model struct {
	Name      string // usually the calibrating cloud, e.g. "SMC"
	Class     catalogue.VariableClass
	Mode      string
	Reference float64 // calibration distance in parsecs
	Relation  plrelation.FitCoefficients
}

// Calibrate fits the absolute-magnitude relation of a cleansed catalogue
// whose stars are all assumed to be at referenceParsecs.
func Calibrate(name string, c catalogue.Catalogue, referenceParsecs float64) (Model, error) {
	rel, err := plrelation.FitAbsolute(c, referenceParsecs)
	if err != nil {
		return Model{}, fmt.Errorf("calibrate %s model: %w", name, err)
	}
	return Model{
		Name:      name,
		Class:     c.Key().Class,
		Mode:      c.Key().Mode,
		Reference: referenceParsecs,
		Relation:  rel,
	}, nil
}

// Distance predicts the distance in parsecs of a star with the given
// log10(period) and apparent magnitude.
func (m Model) Distance(logPeriod, apparent float64) float64 {
	return DistanceFromModulus(apparent, m.Relation.At(logPeriod))
}

// Applies reports whether the model was calibrated on the same class and mode.
func (m Model) Applies(key catalogue.Key) bool {
	return m.Class == key.Class && m.Mode == key.Mode
}

// Apply fills in e's model distance and percentage error for this model.
func (m Model) Apply(e *Estimate) error {
	d := m.Distance(e.LogPeriod, e.ApparentMag)
	pct, err := PercentError(e.TrueDistance, d)
	if err != nil {
		return fmt.Errorf("apply %s model to %s: %w", m.Name, e.ID, err)
	}
	if e.ModelDistance == nil {
		e.ModelDistance = make(map[string]float64)
	}
	if e.PercentError == nil {
		e.PercentError = make(map[string]float64)
	}
	e.ModelDistance[m.Name] = d
	e.PercentError[m.Name] = pct
	return nil
}
