package catalogue

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/leavitt/internal/fsutil"
)

// Metadata keys stamped on exported parquet files.
const (
	metaClass = "leavitt.class"
	metaCloud = "leavitt.cloud"
	metaMode  = "leavitt.mode"
)

type parquetRow struct {
	ID   string   `parquet:"id"`
	Mode string   `parquet:"mode"`
	Ra   float64  `parquet:"ra"`
	Decl float64  `parquet:"decl"`
	I    float64  `parquet:"i"`
	V    float64  `parquet:"v"`
	VI   float64  `parquet:"v_i"`
	P1   float64  `parquet:"p1"`
	P2   *float64 `parquet:"p2,optional"`
	Dist float64  `parquet:"distance_pc"`
}

// WriteParquet writes c as a parquet file, with its Key stored in the file
// metadata.
func WriteParquet(w io.Writer, c Catalogue) error {
	pw := parquet.NewGenericWriter[parquetRow](w,
		parquet.KeyValueMetadata(metaClass, string(c.key.Class)),
		parquet.KeyValueMetadata(metaCloud, c.key.Cloud),
		parquet.KeyValueMetadata(metaMode, c.key.Mode),
	)

	rows := make([]parquetRow, len(c.records))
	for i, r := range c.records {
		rows[i] = parquetRow{
			ID: r.ID, Mode: r.Mode, Ra: r.Ra, Decl: r.Decl,
			I: r.I, V: r.V, VI: r.VI, P1: r.P1, P2: r.P2, Dist: r.Distance,
		}
	}
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads a catalogue written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) (Catalogue, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return Catalogue{}, fmt.Errorf("open parquet: %w", err)
	}

	var key Key
	if v, ok := f.Lookup(metaClass); ok {
		key.Class = VariableClass(v)
	}
	key.Cloud, _ = f.Lookup(metaCloud)
	key.Mode, _ = f.Lookup(metaMode)

	rows, err := parquet.Read[parquetRow](r, size)
	if err != nil {
		return Catalogue{}, fmt.Errorf("read parquet rows: %w", err)
	}

	records := make([]StarRecord, len(rows))
	for i, row := range rows {
		records[i] = StarRecord{
			ID: row.ID, Mode: row.Mode, Ra: row.Ra, Decl: row.Decl,
			I: row.I, V: row.V, VI: row.VI, P1: row.P1, P2: row.P2, Distance: row.Dist,
		}
	}
	return Catalogue{key: key, records: records}, nil
}

// ExportParquet writes c to path on fsys.
func ExportParquet(fsys fsutil.FileSystem, path string, c Catalogue) error {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, c); err != nil {
		return fmt.Errorf("export %s: %w", c.key, err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("export %s: %w", c.key, err)
	}
	return nil
}

// ImportParquet reads a catalogue exported by ExportParquet.
func ImportParquet(fsys fsutil.FileSystem, path string) (Catalogue, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("import %s: %w", path, err)
	}
	return ReadParquet(bytes.NewReader(data), int64(len(data)))
}
