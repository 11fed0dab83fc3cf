package catalogue

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/leavitt/internal/fsutil"
)

// Loader reads delimited catalogue text. Columns are positional in the order
// given by VariableClass.Columns, optionally followed by a Dist column holding
// each star's own distance in parsecs. A header row, recognised by its first
// column being named ID, is skipped.
type Loader struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// Load reads a comma-separated catalogue with the default Loader.
func Load(r io.Reader, key Key) (Catalogue, error) {
	return Loader{}.Load(r, key)
}

// LoadFile opens path on fsys and loads it with the default Loader.
func LoadFile(fsys fsutil.FileSystem, path string, key Key) (Catalogue, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("open catalogue %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f, key)
	if err != nil {
		return Catalogue{}, fmt.Errorf("load catalogue %s: %w", path, err)
	}
	return c, nil
}

// Load parses every row into a StarRecord. The whole load fails on the first
// malformed row; nothing is skipped silently.
func (l Loader) Load(r io.Reader, key Key) (Catalogue, error) {
	if !key.Class.Valid() {
		return Catalogue{}, fmt.Errorf("unknown variable class %q", key.Class)
	}
	cols := key.Class.Columns()

	cr := csv.NewReader(r)
	if l.Comma != 0 {
		cr.Comma = l.Comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []StarRecord
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Catalogue{}, fmt.Errorf("read catalogue: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if isHeader(row) {
				if len(row) < len(cols) {
					return Catalogue{}, &MissingColumnError{Column: cols[len(row)], Line: line}
				}
				continue
			}
		}

		rec, err := parseRow(row, cols, line)
		if err != nil {
			return Catalogue{}, err
		}
		records = append(records, rec)
	}

	return Catalogue{key: key, records: records}, nil
}

// isHeader reports whether row names the columns. Data rows that merely fail
// to parse are not headers and surface as errors from parseRow.
func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.TrimPrefix(strings.TrimSpace(row[0]), "\ufeff")
	return strings.EqualFold(first, ColID)
}

func parseRow(row, cols []string, line int) (StarRecord, error) {
	if len(row) < len(cols) {
		return StarRecord{}, &MissingColumnError{Column: cols[len(row)], Line: line}
	}

	field := func(i int) string { return strings.TrimSpace(row[i]) }

	var rec StarRecord
	rec.ID = field(0)
	if rec.ID == "" {
		return StarRecord{}, &MissingColumnError{Column: ColID, Line: line}
	}
	rec.Mode = field(1)

	required := []struct {
		idx int
		dst *float64
	}{
		{2, &rec.Ra},
		{3, &rec.Decl},
		{4, &rec.I},
		{7, &rec.P1},
	}
	for _, f := range required {
		v, err := strconv.ParseFloat(field(f.idx), 64)
		if err != nil {
			return StarRecord{}, &ParseError{Column: cols[f.idx], Line: line, Value: field(f.idx), Err: err}
		}
		*f.dst = v
	}

	var err error
	if rec.V, err = optionalFloat(field(5)); err != nil {
		return StarRecord{}, &ParseError{Column: cols[5], Line: line, Value: field(5), Err: err}
	}
	if rec.VI, err = optionalFloat(field(6)); err != nil {
		return StarRecord{}, &ParseError{Column: cols[6], Line: line, Value: field(6), Err: err}
	}

	if len(cols) > 8 {
		p2, err := optionalFloat(field(8))
		if err != nil {
			return StarRecord{}, &ParseError{Column: cols[8], Line: line, Value: field(8), Err: err}
		}
		if !math.IsNaN(p2) {
			rec.P2 = &p2
		}
	}

	if len(row) > len(cols) {
		i := len(cols)
		d, err := optionalFloat(field(i))
		if err == nil && !math.IsNaN(d) && !(d > 0) {
			err = errNonPositiveDistance
		}
		if err != nil {
			return StarRecord{}, &ParseError{Column: ColDist, Line: line, Value: field(i), Err: err}
		}
		if !math.IsNaN(d) {
			rec.Distance = d
		}
	}

	return rec, nil
}

var errNonPositiveDistance = errors.New("distance must be positive")

// optionalFloat parses a field that OGLE leaves blank or "-" when unmeasured.
func optionalFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "-", "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
