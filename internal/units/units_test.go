package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range []string{"pc", "kpc", "ly"} {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"", "mph", "Mpc", "PC"} {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true, want false", u)
		}
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "pc, kpc, ly" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		units string
		want  float64
	}{
		{Parsec, 62440},
		{Kiloparsec, 62.44},
		{LightYear, 62440 * 3.261563777},
		{"unknown", 62440},
	}
	for _, tt := range tests {
		if got := ConvertDistance(62440, tt.units); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertDistance(62440, %q) = %f, want %f", tt.units, got, tt.want)
		}
	}
}
