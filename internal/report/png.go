package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/leavitt/internal/fsutil"
)

// PNGRenderer writes one PNG image per chart using gonum/plot.
type PNGRenderer struct {
	FS     fsutil.FileSystem
	Width  vg.Length // default 10in
	Height vg.Length // default 6in
}

// Render writes <dir>/<slug>.png for each chart and returns the paths.
func (r PNGRenderer) Render(dir string, charts []Chart) ([]string, error) {
	fsys := r.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	w, h := r.Width, r.Height
	if w == 0 {
		w = 10 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := buildPlot(c)
		if err != nil {
			return paths, fmt.Errorf("chart %s: %w", c.Slug, err)
		}
		wt, err := p.WriterTo(w, h, "png")
		if err != nil {
			return paths, fmt.Errorf("chart %s: %w", c.Slug, err)
		}

		path := filepath.Join(dir, c.Slug+".png")
		f, err := fsys.Create(path)
		if err != nil {
			return paths, fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := wt.WriteTo(f); err != nil {
			f.Close()
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return paths, fmt.Errorf("close %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func buildPlot(c Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	if c.InvertY {
		p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	}

	for _, s := range c.Series {
		if len(s.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.X))
		for i := range s.X {
			pts[i] = plotter.XY{X: s.X[i], Y: s.Y[i]}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Name, err)
		}
		sc.GlyphStyle.Color = parseHexColor(s.Color)
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = glyph(s.Marker)
		p.Add(sc)
		p.Legend.Add(s.Name, sc)
	}

	if lo, hi, ok := c.XRange(); ok {
		for _, l := range c.Lines {
			l := l
			fn := plotter.NewFunction(func(x float64) float64 { return l.Slope*x + l.Intercept })
			fn.XMin, fn.XMax = lo, hi
			fn.Color = parseHexColor(l.Color)
			fn.Width = vg.Points(1.5)
			if l.Dashed {
				fn.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			}
			p.Add(fn)
			p.Legend.Add(l.Name, fn)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func glyph(m Marker) draw.GlyphDrawer {
	switch m {
	case MarkerCross:
		return draw.CrossGlyph{}
	case MarkerTriangle:
		return draw.TriangleGlyph{}
	default:
		return draw.CircleGlyph{}
	}
}
