// Package testutil provides shared test helpers and synthetic catalogue
// fixtures.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Star is a compact catalogue fixture row. Ra, Decl and colours are filled
// with plausible constants when rendered.
type Star struct {
	ID   string
	Mode string
	I    float64
	P1   float64
	Dist float64 // parsecs; zero leaves the Dist column out
}

// OnLine returns n stars lying exactly on I = slope*log10(P) + intercept, with
// periods spaced evenly in log10 between pMin and pMax.
func OnLine(prefix, mode string, slope, intercept, pMin, pMax float64, n int) []Star {
	stars := make([]Star, n)
	lo, hi := math.Log10(pMin), math.Log10(pMax)
	for i := range stars {
		logP := lo
		if n > 1 {
			logP = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		stars[i] = Star{
			ID:   fmt.Sprintf("%s-%03d", prefix, i+1),
			Mode: mode,
			I:    slope*logP + intercept,
			P1:   math.Pow(10, logP),
		}
	}
	return stars
}

// AtDistances returns one star per distance, each lying exactly on the
// absolute relation M = slope*log10(P) + absIntercept and observed from its
// own distance. Periods are spaced evenly in log10 between pMin and pMax.
func AtDistances(prefix, mode string, slope, absIntercept, pMin, pMax float64, distances []float64) []Star {
	stars := OnLine(prefix, mode, slope, absIntercept, pMin, pMax, len(distances))
	for i, d := range distances {
		stars[i].I += 5 * math.Log10(d/10)
		stars[i].Dist = d
	}
	return stars
}

// CatalogueCSV renders stars as a catalogue file with a header row. Class
// "ds" adds the P2 column, and a Dist column follows when any star has one.
func CatalogueCSV(class string, stars []Star) string {
	withDist := false
	for _, s := range stars {
		withDist = withDist || s.Dist > 0
	}

	var b strings.Builder
	b.WriteString("ID,mode,Ra,Decl,I,V,V-I,P1")
	if class == "ds" {
		b.WriteString(",P2")
	}
	if withDist {
		b.WriteString(",Dist")
	}
	b.WriteString("\n")
	for _, s := range stars {
		fmt.Fprintf(&b, "%s,%s,13.1875,-72.8286,%s,%s,0.550,%s",
			s.ID, s.Mode, ftoa(s.I), ftoa(s.I+0.55), ftoa(s.P1))
		if class == "ds" {
			b.WriteString(",-")
		}
		if withDist {
			if s.Dist > 0 {
				b.WriteString("," + ftoa(s.Dist))
			} else {
				b.WriteString(",-")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func ftoa(v float64) string {
	return fmt.Sprintf("%.17g", v)
}
