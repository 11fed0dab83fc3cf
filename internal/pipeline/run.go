// Package pipeline runs the period-luminosity analysis for one catalogue and
// orchestrates independent runs over a batch of catalogues.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/leavitt/internal/astro"
	"github.com/banshee-data/leavitt/internal/catalogue"
	"github.com/banshee-data/leavitt/internal/config"
	"github.com/banshee-data/leavitt/internal/distance"
	"github.com/banshee-data/leavitt/internal/monitoring"
	"github.com/banshee-data/leavitt/internal/plrelation"
	"github.com/banshee-data/leavitt/internal/timeutil"
)

// Fit labels reported to StageMetrics.
const (
	FitRaw      = "raw"
	FitCleansed = "cleansed"
	FitAbsolute = "absolute"
)

// RunConfig is the resolved configuration of one run.
type RunConfig struct {
	Name                     string
	Key                      catalogue.Key
	Source                   string // catalogue file path
	ReferenceDistanceParsecs float64
	Sensitivity              catalogue.Bounds
	HaloMargin               float64
	Calibrate                bool
	// PerStarDistance runs a catalogue whose stars carry their own distances,
	// such as a Galactic field. The halo filter is skipped because apparent
	// magnitudes at different distances share no single relation.
	PerStarDistance bool
}

// FromConfig resolves every run of cfg, joining relative catalogue paths onto
// dataDir.
func FromConfig(cfg *config.AnalysisConfig, dataDir string) ([]RunConfig, error) {
	specs := cfg.GetRuns()
	out := make([]RunConfig, 0, len(specs))
	for _, s := range specs {
		ref, err := cfg.GetReferenceDistance(s)
		if err != nil && !s.GetPerStarDistance() {
			return nil, fmt.Errorf("run %s: %w", s.Name, err)
		}
		src := s.Catalogue
		if !filepath.IsAbs(src) {
			src = filepath.Join(dataDir, src)
		}
		out = append(out, RunConfig{
			Name:                     s.Name,
			Key:                      catalogue.Key{Class: catalogue.VariableClass(s.Class), Cloud: s.Cloud, Mode: s.Mode},
			Source:                   src,
			ReferenceDistanceParsecs: ref,
			Sensitivity:              cfg.GetSensitivity(),
			HaloMargin:               cfg.GetRunHaloMargin(s),
			Calibrate:                s.GetCalibrate(),
			PerStarDistance:          s.GetPerStarDistance(),
		})
	}
	return out, nil
}

// Counts records the catalogue size after each stage.
type Counts struct {
	Raw         int
	Filtered    int // after the sensitivity filter
	HaloRemoved int
	Cleansed    int
}

// Summary holds mean values of the cleansed catalogue.
type Summary struct {
	MeanApparent  float64
	MeanLogPeriod float64
	MeanAbsolute  float64
}

// Result is everything one run produced.
type Result struct {
	Config RunConfig

	Raw      catalogue.Catalogue
	Filtered catalogue.Catalogue
	Cleansed catalogue.Catalogue
	Counts   Counts

	RawFit      plrelation.FitCoefficients
	CleansedFit plrelation.FitCoefficients
	AbsoluteFit plrelation.FitCoefficients

	Summary   Summary
	Estimates []distance.Estimate

	Elapsed time.Duration
}

// Options are the optional collaborators of a run.
type Options struct {
	Metrics *monitoring.StageMetrics
	Clock   timeutil.Clock
}

func (o Options) clock() timeutil.Clock {
	if o.Clock == nil {
		return timeutil.RealClock{}
	}
	return o.Clock
}

// Run executes the stages of one analysis on an already loaded catalogue:
// sensitivity filter, raw fit, halo filter, cleansed fit, absolute fit and
// per-star estimates. The halo threshold comes from the raw fit only.
func Run(ctx context.Context, raw catalogue.Catalogue, cfg RunConfig, opts Options) (*Result, error) {
	clock := opts.clock()
	start := clock.Now()
	res := &Result{Config: cfg, Raw: raw}
	res.Counts.Raw = raw.Len()
	opts.Metrics.ObserveStage(cfg.Name, monitoring.StageRaw, res.Counts.Raw)

	res.Filtered = catalogue.SensitivityFilter(raw, cfg.Sensitivity)
	res.Counts.Filtered = res.Filtered.Len()
	opts.Metrics.ObserveStage(cfg.Name, monitoring.StageSensitivity, res.Counts.Filtered)
	monitoring.RunLogf(cfg.Name, "sensitivity %g < I < %g: %d -> %d stars",
		cfg.Sensitivity.Lo, cfg.Sensitivity.Hi, res.Counts.Raw, res.Counts.Filtered)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var err error
	res.RawFit, err = plrelation.FitCatalogue(res.Filtered)
	if err != nil {
		return nil, fmt.Errorf("raw fit: %w", err)
	}
	opts.Metrics.ObserveFit(cfg.Name, FitRaw, res.RawFit.Slope, res.RawFit.Intercept)
	monitoring.RunLogf(cfg.Name, "raw fit: I = %s", res.RawFit)

	if cfg.PerStarDistance {
		if err := requireDistances(res.Filtered); err != nil {
			return nil, err
		}
		res.Cleansed = res.Filtered
		monitoring.RunLogf(cfg.Name, "halo filter skipped: stars at individual distances")
	} else {
		res.Cleansed, err = catalogue.HaloFilter(res.Filtered, res.RawFit, cfg.HaloMargin)
		if err != nil {
			return nil, fmt.Errorf("halo filter: %w", err)
		}
	}
	res.Counts.Cleansed = res.Cleansed.Len()
	res.Counts.HaloRemoved = res.Counts.Filtered - res.Counts.Cleansed
	opts.Metrics.ObserveStage(cfg.Name, monitoring.StageHaloRemoved, res.Counts.HaloRemoved)
	opts.Metrics.ObserveStage(cfg.Name, monitoring.StageCleansed, res.Counts.Cleansed)
	if !cfg.PerStarDistance {
		monitoring.RunLogf(cfg.Name, "halo filter (margin %g mag): removed %d, %d remain",
			cfg.HaloMargin, res.Counts.HaloRemoved, res.Counts.Cleansed)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.CleansedFit, err = plrelation.FitCatalogue(res.Cleansed)
	if err != nil {
		return nil, fmt.Errorf("cleansed fit: %w", err)
	}
	opts.Metrics.ObserveFit(cfg.Name, FitCleansed, res.CleansedFit.Slope, res.CleansedFit.Intercept)
	monitoring.RunLogf(cfg.Name, "cleansed fit: I = %s", res.CleansedFit)

	res.AbsoluteFit, err = plrelation.FitAbsolute(res.Cleansed, cfg.ReferenceDistanceParsecs)
	if err != nil {
		return nil, fmt.Errorf("absolute fit: %w", err)
	}
	opts.Metrics.ObserveFit(cfg.Name, FitAbsolute, res.AbsoluteFit.Slope, res.AbsoluteFit.Intercept)
	if cfg.PerStarDistance {
		monitoring.RunLogf(cfg.Name, "absolute fit at per-star distances: M = %s", res.AbsoluteFit)
	} else {
		monitoring.RunLogf(cfg.Name, "absolute fit at %.0f pc: M = %s", cfg.ReferenceDistanceParsecs, res.AbsoluteFit)
	}

	res.Estimates, err = distance.Estimates(res.Cleansed, cfg.ReferenceDistanceParsecs)
	if err != nil {
		return nil, fmt.Errorf("estimates: %w", err)
	}
	res.Summary = summarise(res.Estimates)
	monitoring.RunLogf(cfg.Name, "mean I %.3f, mean logP %.3f, mean M %.3f",
		res.Summary.MeanApparent, res.Summary.MeanLogPeriod, res.Summary.MeanAbsolute)

	res.Elapsed = clock.Since(start)
	monitoring.RunLogf(cfg.Name, "finished in %s", res.Elapsed)
	return res, nil
}

// requireDistances fails on the first star without its own distance.
func requireDistances(c catalogue.Catalogue) error {
	for _, r := range c.Records() {
		if !(r.Distance > 0) {
			return fmt.Errorf("star %s: %w", r.ID, &astro.DomainError{Op: "true distance", Value: r.Distance})
		}
	}
	return nil
}

func summarise(est []distance.Estimate) Summary {
	m := make([]float64, len(est))
	logP := make([]float64, len(est))
	abs := make([]float64, len(est))
	for i, e := range est {
		m[i], logP[i], abs[i] = e.ApparentMag, e.LogPeriod, e.AbsoluteMag
	}
	return Summary{
		MeanApparent:  stat.Mean(m, nil),
		MeanLogPeriod: stat.Mean(logP, nil),
		MeanAbsolute:  stat.Mean(abs, nil),
	}
}
