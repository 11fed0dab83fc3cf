// Package catalogue models OGLE-style variable star catalogues and the
// filters that narrow them before period-luminosity modelling.
package catalogue

import "fmt"

// VariableClass identifies the kind of pulsating variable in a catalogue.
type VariableClass string

const (
	DeltaScuti       VariableClass = "ds"
	ClassicalCepheid VariableClass = "ceph"
)

// Columns returns the fixed column order of a catalogue of this class.
// Delta Scuti catalogues carry a second (overtone) period.
func (c VariableClass) Columns() []string {
	cols := []string{ColID, ColMode, ColRa, ColDecl, ColI, ColV, ColVI, ColP1}
	if c == DeltaScuti {
		cols = append(cols, ColP2)
	}
	return cols
}

// Valid reports whether c is a known class.
func (c VariableClass) Valid() bool {
	return c == DeltaScuti || c == ClassicalCepheid
}

// Column names, in file order.
const (
	ColID   = "ID"
	ColMode = "mode"
	ColRa   = "Ra"
	ColDecl = "Decl"
	ColI    = "I"
	ColV    = "V"
	ColVI   = "V-I"
	ColP1   = "P1"
	ColP2   = "P2"
	ColDist = "Dist" // optional, parsecs
)

// Cloud names for the two Magellanic Clouds. Other field names are allowed.
const (
	SMC = "SMC"
	LMC = "LMC"
)

// Galactic fields whose stars carry individual distances.
const (
	BLG  = "BLG"  // Galactic bulge
	DISK = "DISK" // Galactic disk
)

// Pulsation modes as written in the catalogue mode column.
const (
	ModeFundamental   = "F"
	ModeFirstOvertone = "1O"
)

// StarRecord is one row of a catalogue.
type StarRecord struct {
	ID   string
	Mode string
	Ra   float64 // degrees
	Decl float64 // degrees
	I    float64 // apparent I-band magnitude
	V    float64 // apparent V-band magnitude, NaN when not measured
	VI   float64 // V-I colour index, NaN when not measured
	P1   float64 // period in days
	P2   *float64

	// Distance is the star's own distance in parsecs, zero when the
	// catalogue has no Dist column.
	Distance float64
}

// DistanceOr returns the star's own distance, or fallback when it has none.
func (r StarRecord) DistanceOr(fallback float64) float64 {
	if r.Distance > 0 {
		return r.Distance
	}
	return fallback
}

// Key identifies a catalogue by variable class, cloud and pulsation mode.
// An empty Mode means all modes.
type Key struct {
	Class VariableClass
	Cloud string
	Mode  string
}

func (k Key) String() string {
	if k.Mode == "" {
		return fmt.Sprintf("%s/%s", k.Class, k.Cloud)
	}
	return fmt.Sprintf("%s/%s/%s", k.Class, k.Cloud, k.Mode)
}

// Catalogue is an ordered, immutable sequence of StarRecords. Filters return
// a new Catalogue and leave the receiver untouched.
type Catalogue struct {
	key     Key
	records []StarRecord
}

// New builds a catalogue from records. The slice is copied.
func New(key Key, records []StarRecord) Catalogue {
	return Catalogue{key: key, records: append([]StarRecord(nil), records...)}
}

// Key returns the catalogue identity.
func (c Catalogue) Key() Key { return c.key }

// Len returns the number of records.
func (c Catalogue) Len() int { return len(c.records) }

// Records returns a copy of the records.
func (c Catalogue) Records() []StarRecord {
	return append([]StarRecord(nil), c.records...)
}

// At returns the i-th record.
func (c Catalogue) At(i int) StarRecord { return c.records[i] }

// Filter returns the records for which keep is true, in their original order.
func (c Catalogue) Filter(keep func(StarRecord) bool) Catalogue {
	out := make([]StarRecord, 0, len(c.records))
	for _, r := range c.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Catalogue{key: c.key, records: out}
}

// WithMode narrows a catalogue to one pulsation mode and stamps the mode on
// its key. An empty mode returns the catalogue unchanged.
func (c Catalogue) WithMode(mode string) Catalogue {
	if mode == "" {
		return c
	}
	out := c.Filter(func(r StarRecord) bool { return r.Mode == mode })
	out.key.Mode = mode
	return out
}

// HasDistances reports whether every record carries its own distance. An
// empty catalogue has none.
func (c Catalogue) HasDistances() bool {
	if len(c.records) == 0 {
		return false
	}
	for _, r := range c.records {
		if !(r.Distance > 0) {
			return false
		}
	}
	return true
}

// Column extracts one float column.
func (c Catalogue) Column(get func(StarRecord) float64) []float64 {
	out := make([]float64, len(c.records))
	for i, r := range c.records {
		out[i] = get(r)
	}
	return out
}
