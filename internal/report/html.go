package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/leavitt/internal/fsutil"
)

// DefaultHTMLFile is the page name written by HTMLRenderer.
const DefaultHTMLFile = "report.html"

// HTMLRenderer writes every chart onto a single go-echarts page.
type HTMLRenderer struct {
	FS         fsutil.FileSystem
	PageTitle  string
	AssetsHost string // optional override of the echarts CDN
}

// Render writes <dir>/report.html and returns its path.
func (r HTMLRenderer) Render(dir string, charts []Chart) (string, error) {
	fsys := r.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	page := components.NewPage()
	page.PageTitle = r.PageTitle
	if page.PageTitle == "" {
		page.PageTitle = "P-L analysis"
	}
	if r.AssetsHost != "" {
		page.SetAssetsHost(r.AssetsHost)
	}
	for _, c := range charts {
		page.AddCharts(r.scatter(c))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}
	path := filepath.Join(dir, DefaultHTMLFile)
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (r HTMLRenderer) scatter(c Chart) *charts.Scatter {
	xlo, xhi, _ := c.XRange()
	ylo, yhi, _ := c.YRange()
	xpad := padding(xlo, xhi)
	ypad := padding(ylo, yhi)

	initOpts := opts.Initialization{Width: "900px", Height: "540px"}
	if r.AssetsHost != "" {
		initOpts.AssetsHost = r.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: c.XLabel, NameLocation: "middle", NameGap: 25,
			Min: round3(xlo - xpad), Max: round3(xhi + xpad)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: c.YLabel, NameLocation: "middle", NameGap: 40,
			Min: round3(ylo - ypad), Max: round3(yhi + ypad)}),
	)

	for _, s := range c.Series {
		data := make([]opts.ScatterData, len(s.X))
		for i := range s.X {
			data[i] = opts.ScatterData{Value: []interface{}{s.X[i], s.Y[i]}}
		}
		scatter.AddSeries(s.Name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}

	if len(c.Lines) > 0 && xlo <= xhi {
		line := charts.NewLine()
		for _, l := range c.Lines {
			style := opts.LineStyle{Color: l.Color, Width: 2}
			if l.Dashed {
				style.Type = "dashed"
			}
			data := []opts.LineData{
				{Value: []interface{}{xlo, l.Slope*xlo + l.Intercept}},
				{Value: []interface{}{xhi, l.Slope*xhi + l.Intercept}},
			}
			line.AddSeries(l.Name, data,
				charts.WithLineStyleOpts(style),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: l.Color}),
			)
		}
		scatter.Overlap(line)
	}
	return scatter
}

func padding(lo, hi float64) float64 {
	if !(lo <= hi) {
		return 0
	}
	if hi == lo {
		return 1
	}
	return (hi - lo) * 0.05
}

func round3(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return math.Round(v*1000) / 1000
}
