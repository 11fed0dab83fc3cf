package astro

import (
	"errors"
	"math"
	"testing"
)

func TestLogPeriod(t *testing.T) {
	tests := []struct {
		name    string
		period  float64
		want    float64
		wantErr bool
	}{
		{"one day", 1, 0, false},
		{"ten days", 10, 1, false},
		{"delta scuti hour", 0.05, math.Log10(0.05), false},
		{"zero", 0, 0, true},
		{"negative", -2.5, 0, true},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LogPeriod(tt.period)
			if tt.wantErr {
				var de *DomainError
				if !errors.As(err, &de) {
					t.Fatalf("LogPeriod(%g) error = %v, want *DomainError", tt.period, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LogPeriod(%g) unexpected error: %v", tt.period, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("LogPeriod(%g) = %g, want %g", tt.period, got, tt.want)
			}
		})
	}
}

func TestDistanceModulus(t *testing.T) {
	mu, err := DistanceModulus(62440)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mu-18.9773144719519) > 1e-9 {
		t.Errorf("DistanceModulus(62440) = %.10f, want 18.9773144720", mu)
	}

	mu, err = DistanceModulus(10)
	if err != nil || mu != 0 {
		t.Errorf("DistanceModulus(10) = %g, %v; want 0, nil", mu, err)
	}

	if _, err := DistanceModulus(0); err == nil {
		t.Error("DistanceModulus(0) expected error")
	}
}

func TestErrorMessages(t *testing.T) {
	ie := &InsufficientDataError{N: 1}
	if ie.Error() != "insufficient data: need at least 2 points for a linear fit, got 1" {
		t.Errorf("unexpected message %q", ie.Error())
	}
	de := &DomainError{Op: "log10(period)", Value: -1}
	if de.Error() != "domain error: log10(period) requires a positive finite value, got -1" {
		t.Errorf("unexpected message %q", de.Error())
	}
}
