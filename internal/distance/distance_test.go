package distance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/leavitt/internal/astro"
	"github.com/banshee-data/leavitt/internal/catalogue"
)

func TestAbsoluteMagnitude(t *testing.T) {
	tests := []struct {
		name     string
		apparent float64
		distance float64
		want     float64
	}{
		{"SMC I=15", 15.0, SMCDistanceParsecs, 15.0 - 5*math.Log10(6244)},
		{"SMC I=15 literal", 15.0, SMCDistanceParsecs, -3.9773144719519},
		{"LMC I=15", 15.0, LMCDistanceParsecs, -3.4769705414555},
		{"10 parsecs is identity", 12.3, 10, 12.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AbsoluteMagnitude(tt.apparent, tt.distance)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAbsoluteMagnitude_DomainError(t *testing.T) {
	for _, d := range []float64{0, -49590} {
		_, err := AbsoluteMagnitude(15, d)
		var de *astro.DomainError
		assert.True(t, errors.As(err, &de), "d=%g: want *DomainError, got %v", d, err)
	}
}

func TestDistanceFromModulus_RoundTrip(t *testing.T) {
	for _, d := range []float64{10, 8000, SMCDistanceParsecs, LMCDistanceParsecs} {
		m := 16.2
		abs, err := AbsoluteMagnitude(m, d)
		require.NoError(t, err)
		assert.InDelta(t, d, DistanceFromModulus(m, abs), d*1e-12)
	}
}

func TestPercentError(t *testing.T) {
	pct, err := PercentError(50000, 45000)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pct, 1e-12)

	pct, err = PercentError(50000, 55000)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pct, 1e-12)

	_, err = PercentError(0, 1)
	assert.Error(t, err)
}

func TestReferenceDistance(t *testing.T) {
	d, ok := ReferenceDistance(catalogue.SMC)
	assert.True(t, ok)
	assert.Equal(t, 62440.0, d)
	d, ok = ReferenceDistance(catalogue.LMC)
	assert.True(t, ok)
	assert.Equal(t, 49590.0, d)
	_, ok = ReferenceDistance("BLG")
	assert.False(t, ok)
}

func TestEstimates(t *testing.T) {
	c := catalogue.New(catalogue.Key{Class: catalogue.ClassicalCepheid, Cloud: catalogue.SMC}, []catalogue.StarRecord{
		{ID: "a", I: 15, P1: 10},
		{ID: "b", I: 16, P1: 1},
	})

	est, err := Estimates(c, SMCDistanceParsecs)
	require.NoError(t, err)
	require.Len(t, est, 2)

	assert.Equal(t, "a", est[0].ID)
	assert.InDelta(t, 1.0, est[0].LogPeriod, 1e-12)
	assert.InDelta(t, 15.0-5*math.Log10(6244), est[0].AbsoluteMag, 1e-9)
	assert.Equal(t, SMCDistanceParsecs, est[1].TrueDistance)
	assert.NotNil(t, est[1].ModelDistance)

	_, err = Estimates(c, -1)
	assert.Error(t, err)

	bad := catalogue.New(c.Key(), []catalogue.StarRecord{{ID: "z", I: 15, P1: 0}})
	_, err = Estimates(bad, SMCDistanceParsecs)
	var de *astro.DomainError
	assert.True(t, errors.As(err, &de))
}

func TestEstimates_PerStarDistance(t *testing.T) {
	c := catalogue.New(catalogue.Key{Class: catalogue.ClassicalCepheid, Cloud: catalogue.BLG}, []catalogue.StarRecord{
		{ID: "near", I: 12, P1: 5, Distance: 4000},
		{ID: "far", I: 15, P1: 5, Distance: 16000},
		{ID: "none", I: 15, P1: 5},
	})

	est, err := Estimates(c, SMCDistanceParsecs)
	require.NoError(t, err)
	require.Len(t, est, 3)

	assert.Equal(t, 4000.0, est[0].TrueDistance)
	assert.InDelta(t, 12-5*math.Log10(400), est[0].AbsoluteMag, 1e-9)
	assert.Equal(t, 16000.0, est[1].TrueDistance)
	assert.InDelta(t, 15-5*math.Log10(1600), est[1].AbsoluteMag, 1e-9)
	assert.Equal(t, SMCDistanceParsecs, est[2].TrueDistance, "falls back to the reference")

	// Without a usable fallback the star lacking a distance is a domain error.
	_, err = Estimates(c, 0)
	var de *astro.DomainError
	assert.True(t, errors.As(err, &de))
}
