package catalogue

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/leavitt/internal/fsutil"
)

const dsCSV = `ID,mode,Ra,Decl,I,V,V-I,P1,P2
OGLE-SMC-DSCT-0001,F,10.5,-72.1,19.8,20.2,0.4,0.081,
OGLE-SMC-DSCT-0002,1O,11.2,-72.9,20.1,-,-,0.062,0.048
`

const cephCSV = `OGLE-LMC-CEP-0001,F,80.1,-69.3,15.2,15.9,0.7,3.12
OGLE-LMC-CEP-0002,1O,81.4,-68.7,14.9,15.5,0.6,2.01
`

func TestLoad_DeltaScutiWithHeader(t *testing.T) {
	key := Key{Class: DeltaScuti, Cloud: SMC}
	c, err := Load(strings.NewReader(dsCSV), key)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, key, c.Key())

	p2 := 0.048
	want := []StarRecord{
		{ID: "OGLE-SMC-DSCT-0001", Mode: "F", Ra: 10.5, Decl: -72.1, I: 19.8, V: 20.2, VI: 0.4, P1: 0.081},
		{ID: "OGLE-SMC-DSCT-0002", Mode: "1O", Ra: 11.2, Decl: -72.9, I: 20.1, V: math.NaN(), VI: math.NaN(), P1: 0.062, P2: &p2},
	}
	if diff := cmp.Diff(want, c.Records(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CepheidWithoutHeader(t *testing.T) {
	c, err := Load(strings.NewReader(cephCSV), Key{Class: ClassicalCepheid, Cloud: LMC})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "OGLE-LMC-CEP-0001", c.At(0).ID)
	assert.Nil(t, c.At(0).P2)
	assert.Equal(t, 2.01, c.At(1).P1)
}

func TestLoad_MissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		class  VariableClass
		input  string
		column string
		line   int
	}{
		{"short data row", ClassicalCepheid, "A,F,1,2,15.0,16,0.5\n", ColP1, 1},
		{"short header", DeltaScuti, "ID,mode,Ra,Decl,I,V,V-I,P1\nA,F,1,2,15,16,1,0.1,\n", ColP2, 1},
		{"ds row without P2 field", DeltaScuti, "ID,mode,Ra,Decl,I,V,V-I,P1,P2\nA,F,1,2,15,16,1,0.1\n", ColP2, 2},
		{"empty id", ClassicalCepheid, ",F,1,2,15.0,16,0.5,3.0\n", ColID, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), Key{Class: tt.class, Cloud: SMC})
			var mce *MissingColumnError
			require.True(t, errors.As(err, &mce), "want *MissingColumnError, got %v", err)
			assert.Equal(t, tt.column, mce.Column)
			assert.Equal(t, tt.line, mce.Line)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	input := "A,F,1,2,15.0,16,0.5,3.0\nB,F,1,2,15.0,16,0.5,abc\n"
	_, err := Load(strings.NewReader(input), Key{Class: ClassicalCepheid, Cloud: SMC})

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "want *ParseError, got %v", err)
	assert.Equal(t, ColP1, pe.Column)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "abc", pe.Value)
}

func TestLoad_MalformedFirstRowIsNotAHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value string
	}{
		{"non-numeric I", "OGLE-1,F,1,2,abc,16,0.5,3.0\nOGLE-2,F,1,2,17.9,18.4,0.5,4.0\n", "abc"},
		{"blank I", "OGLE-1,F,1,2,,16,0.5,3.0\nOGLE-2,F,1,2,17.9,18.4,0.5,4.0\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), Key{Class: ClassicalCepheid, Cloud: SMC})
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %v", err)
			assert.Equal(t, ColI, pe.Column)
			assert.Equal(t, 1, pe.Line)
			assert.Equal(t, tt.value, pe.Value)
		})
	}
}

func TestLoad_HeaderRecognisedByName(t *testing.T) {
	for _, header := range []string{"ID", "id", "\ufeffID", " Id"} {
		input := header + ",mode,Ra,Decl,I,V,V-I,P1\nA,F,1,2,15.0,16,0.5,3.0\n"
		c, err := Load(strings.NewReader(input), Key{Class: ClassicalCepheid, Cloud: SMC})
		require.NoError(t, err, "header %q", header)
		assert.Equal(t, 1, c.Len(), "header %q", header)
	}
}

func TestLoad_DistanceColumn(t *testing.T) {
	input := `ID,mode,Ra,Decl,I,V,V-I,P1,Dist
OGLE-BLG-CEP-001,F,266.1,-29.4,12.8,14.1,1.3,5.2,8120
OGLE-BLG-CEP-002,F,266.3,-29.8,13.4,14.6,1.2,3.9,-
`
	c, err := Load(strings.NewReader(input), Key{Class: ClassicalCepheid, Cloud: BLG})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, 8120.0, c.At(0).Distance)
	assert.Equal(t, 0.0, c.At(1).Distance, "unmeasured distance")
	assert.Equal(t, 8120.0, c.At(0).DistanceOr(62440))
	assert.Equal(t, 62440.0, c.At(1).DistanceOr(62440))
	assert.False(t, c.HasDistances())
	assert.True(t, c.Filter(func(r StarRecord) bool { return r.Distance > 0 }).HasDistances())

	for _, bad := range []string{"0", "-5", "far"} {
		_, err := Load(strings.NewReader("A,F,1,2,15,16,0.5,3.0,"+bad+"\n"), Key{Class: ClassicalCepheid, Cloud: DISK})
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "Dist %q: got %v", bad, err)
		assert.Equal(t, ColDist, pe.Column)
	}
}

func TestLoad_UnknownClass(t *testing.T) {
	_, err := Load(strings.NewReader(cephCSV), Key{Class: "rrlyr", Cloud: SMC})
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	c, err := Load(strings.NewReader(""), Key{Class: ClassicalCepheid, Cloud: SMC})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoader_CustomDelimiter(t *testing.T) {
	input := strings.ReplaceAll(cephCSV, ",", ";")
	c, err := Loader{Comma: ';'}.Load(strings.NewReader(input), Key{Class: ClassicalCepheid, Cloud: LMC})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestLoadFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("data/lmccephdata.csv", []byte(cephCSV), 0644))

	c, err := LoadFile(fsys, "data/lmccephdata.csv", Key{Class: ClassicalCepheid, Cloud: LMC})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = LoadFile(fsys, "data/missing.csv", Key{Class: ClassicalCepheid, Cloud: LMC})
	assert.Error(t, err)
}
