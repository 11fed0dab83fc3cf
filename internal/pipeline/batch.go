package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/leavitt/internal/catalogue"
	"github.com/banshee-data/leavitt/internal/distance"
	"github.com/banshee-data/leavitt/internal/fsutil"
	"github.com/banshee-data/leavitt/internal/monitoring"
	"github.com/banshee-data/leavitt/internal/security"
)

// Loader supplies the raw catalogue of a run.
type Loader interface {
	Load(ctx context.Context, cfg RunConfig) (catalogue.Catalogue, error)
}

// FileLoader reads each run's catalogue from FS and narrows it to the run's
// pulsation mode. When Root is set, sources resolving outside it are refused.
type FileLoader struct {
	FS   fsutil.FileSystem
	Root string
}

// Load implements Loader.
func (l FileLoader) Load(ctx context.Context, cfg RunConfig) (catalogue.Catalogue, error) {
	if err := ctx.Err(); err != nil {
		return catalogue.Catalogue{}, err
	}
	fsys := l.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if l.Root != "" {
		if err := security.ValidatePathWithinDirectory(cfg.Source, l.Root); err != nil {
			return catalogue.Catalogue{}, fmt.Errorf("catalogue %s: %w", cfg.Source, err)
		}
	}
	key := catalogue.Key{Class: cfg.Key.Class, Cloud: cfg.Key.Cloud}
	c, err := catalogue.LoadFile(fsys, cfg.Source, key)
	if err != nil {
		return catalogue.Catalogue{}, err
	}
	return c.WithMode(cfg.Key.Mode), nil
}

// Outcome is the result of one run. Exactly one of Result and Err is set.
type Outcome struct {
	Config RunConfig
	Result *Result
	Err    error
}

// Batch is the output of RunAll.
type Batch struct {
	Outcomes []Outcome
	Models   []distance.Model
}

// Failed returns the outcomes that ended in an error.
func (b *Batch) Failed() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Succeeded returns the outcomes that produced a result.
func (b *Batch) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// RunAll executes runs one after another. A run that fails to load or
// analyse is recorded in its Outcome and the batch moves on. Once every run
// has finished, each successful run flagged Calibrate contributes a distance
// model named after its cloud, and every model is applied to the estimates
// of each successful run of the same class and mode.
func RunAll(ctx context.Context, runs []RunConfig, loader Loader, opts Options) *Batch {
	b := &Batch{Outcomes: make([]Outcome, 0, len(runs))}

	for _, cfg := range runs {
		o := Outcome{Config: cfg}
		o.Result, o.Err = runOne(ctx, cfg, loader, opts)
		if o.Err != nil {
			opts.Metrics.ObserveFailure(cfg.Name)
			monitoring.RunLogf(cfg.Name, "failed: %v", o.Err)
		}
		b.Outcomes = append(b.Outcomes, o)
	}

	for _, o := range b.Succeeded() {
		if !o.Config.Calibrate {
			continue
		}
		m, err := distance.Calibrate(o.Config.Key.Cloud, o.Result.Cleansed, o.Config.ReferenceDistanceParsecs)
		if err != nil {
			monitoring.RunLogf(o.Config.Name, "calibration skipped: %v", err)
			continue
		}
		monitoring.RunLogf(o.Config.Name, "calibrated %s model: M = %s", m.Name, m.Relation)
		b.Models = append(b.Models, m)
	}

	for i := range b.Outcomes {
		o := &b.Outcomes[i]
		if o.Err != nil {
			continue
		}
		if err := applyModels(o.Result, b.Models); err != nil {
			o.Err = err
			o.Result = nil
			opts.Metrics.ObserveFailure(o.Config.Name)
			monitoring.RunLogf(o.Config.Name, "failed: %v", err)
		}
	}
	return b
}

func runOne(ctx context.Context, cfg RunConfig, loader Loader, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := loader.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", cfg.Name, err)
	}
	res, err := Run(ctx, raw, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", cfg.Name, err)
	}
	return res, nil
}

func applyModels(res *Result, models []distance.Model) error {
	for _, m := range models {
		if !m.Applies(res.Config.Key) {
			continue
		}
		for i := range res.Estimates {
			if err := m.Apply(&res.Estimates[i]); err != nil {
				return fmt.Errorf("run %s: %w", res.Config.Name, err)
			}
		}
	}
	return nil
}
