// Package report turns pipeline results into charts and renders them as PNG
// images (gonum/plot) or a single interactive HTML page (go-echarts).
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/leavitt/internal/distance"
	"github.com/banshee-data/leavitt/internal/pipeline"
	"github.com/banshee-data/leavitt/internal/security"
)

// Fixed colours for the primary series and fit lines.
const (
	ColorPrimary   = "#1984c5"
	ColorSecondary = "#76c68f"
	ColorReject    = "#c23728"
	ColorReference = "#9e9e9e"
)

// Marker is the glyph used for a scatter series.
type Marker string

const (
	MarkerCircle   Marker = "circle"
	MarkerCross    Marker = "cross"
	MarkerTriangle Marker = "triangle"
)

// Series is a set of scatter points.
type Series struct {
	Name   string
	X, Y   []float64
	Color  string // "#rrggbb"; empty picks from the palette
	Marker Marker
}

// Line is a straight line y = Slope*x + Intercept drawn across the chart's
// x range.
type Line struct {
	Name      string
	Slope     float64
	Intercept float64
	Color     string
	Dashed    bool
}

// Chart is a renderer-independent scatter plot with optional fit lines.
type Chart struct {
	Slug    string // file-safe identifier
	Title   string
	XLabel  string
	YLabel  string
	InvertY bool // magnitudes grow fainter upwards
	Series  []Series
	Lines   []Line
}

// XRange returns the smallest and largest x value across all series.
func (c Chart) XRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, x := range s.X {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	return lo, hi, lo <= hi
}

// YRange returns the smallest and largest y value across all series.
func (c Chart) YRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, y := range s.Y {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
	}
	return lo, hi, lo <= hi
}

// newSeries keeps only finite points; both renderers reject NaN and Inf.
func newSeries(name, color string, marker Marker) *Series {
	return &Series{Name: name, Color: color, Marker: marker}
}

func (s *Series) add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
}

// BuildRunCharts returns the apparent-magnitude charts before and after the
// halo filter, and the absolute-magnitude chart, for one run.
func BuildRunCharts(res *pipeline.Result) []Chart {
	name := res.Config.Name
	slug := security.SanitizeFilename(name)
	cleansed := res.Cleansed.Records()

	kept := newSeries("kept", ColorPrimary, MarkerCircle)
	halo := newSeries("halo", ColorReject, MarkerCross)
	j := 0
	for _, r := range res.Filtered.Records() {
		logP := math.Log10(r.P1)
		if j < len(cleansed) && cleansed[j].ID == r.ID && cleansed[j].I == r.I && cleansed[j].P1 == r.P1 {
			kept.add(logP, r.I)
			j++
			continue
		}
		halo.add(logP, r.I)
	}

	raw := Chart{
		Slug:    slug + "-raw",
		Title:   fmt.Sprintf("%s: I vs log P (sensitivity filtered, n=%d)", name, res.Counts.Filtered),
		XLabel:  "log10 P (days)",
		YLabel:  "I (mag)",
		InvertY: true,
		Series:  []Series{*kept, *halo},
		Lines: []Line{
			{Name: "fit", Slope: res.RawFit.Slope, Intercept: res.RawFit.Intercept, Color: ColorPrimary},
		},
	}
	if !res.Config.PerStarDistance {
		raw.Lines = append(raw.Lines, Line{Name: fmt.Sprintf("fit - %g", res.Config.HaloMargin), Slope: res.RawFit.Slope,
			Intercept: res.RawFit.Intercept - res.Config.HaloMargin, Color: ColorSecondary, Dashed: true})
	}

	clean := newSeries("cleansed", ColorPrimary, MarkerCircle)
	for _, r := range cleansed {
		clean.add(math.Log10(r.P1), r.I)
	}
	cleansedChart := Chart{
		Slug:    slug + "-cleansed",
		Title:   fmt.Sprintf("%s: I vs log P (halo removed, n=%d)", name, res.Counts.Cleansed),
		XLabel:  "log10 P (days)",
		YLabel:  "I (mag)",
		InvertY: true,
		Series:  []Series{*clean},
		Lines: []Line{
			{Name: "fit", Slope: res.CleansedFit.Slope, Intercept: res.CleansedFit.Intercept, Color: ColorSecondary},
		},
	}

	abs := newSeries("M", ColorPrimary, MarkerCircle)
	for _, e := range res.Estimates {
		abs.add(e.LogPeriod, e.AbsoluteMag)
	}
	absTitle := fmt.Sprintf("%s: M vs log P at %.0f pc", name, res.Config.ReferenceDistanceParsecs)
	if res.Config.PerStarDistance {
		absTitle = fmt.Sprintf("%s: M vs log P at per-star distances", name)
	}
	absolute := Chart{
		Slug:    slug + "-absolute",
		Title:   absTitle,
		XLabel:  "log10 P (days)",
		YLabel:  "M (mag)",
		InvertY: true,
		Series:  []Series{*abs},
		Lines: []Line{
			{Name: "fit", Slope: res.AbsoluteFit.Slope, Intercept: res.AbsoluteFit.Intercept, Color: ColorSecondary},
		},
	}

	return []Chart{raw, cleansedChart, absolute}
}

// BuildModelCharts returns two batch-wide charts comparing model distances
// with each star's true distance, its own when the catalogue has one and its
// cloud's otherwise. One series per calibration model and run.
func BuildModelCharts(b *pipeline.Batch) []Chart {
	dist := Chart{
		Slug:   "model-distance",
		Title:  "Model distance vs true distance",
		XLabel: "true distance (pc)",
		YLabel: "model distance (pc)",
		Lines:  []Line{{Name: "model = true", Slope: 1, Color: ColorReference, Dashed: true}},
	}
	errs := Chart{
		Slug:   "model-error",
		Title:  "Model distance error vs true distance",
		XLabel: "true distance (pc)",
		YLabel: "error (%)",
	}

	for _, o := range b.Succeeded() {
		for _, model := range modelNames(o.Result.Estimates) {
			label := fmt.Sprintf("%s (%s model)", o.Config.Name, model)
			d := newSeries(label, "", MarkerCircle)
			e := newSeries(label, "", MarkerCircle)
			for _, est := range o.Result.Estimates {
				if md, ok := est.ModelDistance[model]; ok {
					d.add(est.TrueDistance, md)
					e.add(est.TrueDistance, est.PercentError[model])
				}
			}
			dist.Series = append(dist.Series, *d)
			errs.Series = append(errs.Series, *e)
		}
	}

	colors := Palette(len(dist.Series))
	for i := range dist.Series {
		dist.Series[i].Color = colors[i]
		errs.Series[i].Color = colors[i]
	}
	return []Chart{dist, errs}
}

func modelNames(est []distance.Estimate) []string {
	seen := make(map[string]bool)
	for _, e := range est {
		for name := range e.ModelDistance {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
