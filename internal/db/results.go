package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/leavitt/internal/pipeline"
)

// RunRecord is one row of analysis_runs.
type RunRecord struct {
	RunID                    string
	BatchID                  string
	Name                     string
	Class                    string
	Cloud                    string
	Mode                     string
	Source                   string
	ReferenceDistanceParsecs float64
	SensitivityLo            float64
	SensitivityHi            float64
	HaloMargin               float64
	RawCount                 int
	FilteredCount            int
	HaloRemovedCount         int
	CleansedCount            int
	RawSlope                 float64
	RawIntercept             float64
	CleansedSlope            float64
	CleansedIntercept        float64
	CleansedRSquared         float64
	AbsoluteSlope            float64
	AbsoluteIntercept        float64
	MeanApparent             float64
	MeanLogPeriod            float64
	MeanAbsolute             float64
	CreatedAt                time.Time
}

// RunError is one row of run_errors.
type RunError struct {
	ID        int64
	BatchID   string
	Name      string
	Class     string
	Cloud     string
	Mode      string
	Message   string
	CreatedAt time.Time
}

// ModelDistance is one row of model_distances.
type ModelDistance struct {
	RunID         string
	StarIndex     int
	StarID        string
	Model         string
	LogPeriod     float64
	ApparentMag   float64
	AbsoluteMag   float64
	TrueDistance  float64
	ModelDistance float64
	PercentError  float64
}

// SaveBatch stores every outcome of a batch under a new batch ID: successful
// runs in analysis_runs (with their model distances) and failures in
// run_errors.
func (db *DB) SaveBatch(ctx context.Context, b *pipeline.Batch) (string, error) {
	batchID := uuid.New().String()
	for _, o := range b.Outcomes {
		if o.Err != nil {
			if err := db.SaveRunError(ctx, batchID, o.Config, o.Err); err != nil {
				return batchID, err
			}
			continue
		}
		if _, err := db.SaveRun(ctx, batchID, o.Result); err != nil {
			return batchID, err
		}
	}
	return batchID, nil
}

// SaveRun stores one run result and its model distances in a single
// transaction and returns the new run ID.
func (db *DB) SaveRun(ctx context.Context, batchID string, res *pipeline.Result) (string, error) {
	runID := uuid.New().String()
	cfg := res.Config

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save run %s: %w", cfg.Name, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, batch_id, name, class, cloud, mode, source,
			reference_distance_pc, sensitivity_lo, sensitivity_hi, halo_margin,
			raw_count, filtered_count, halo_removed_count, cleansed_count,
			raw_slope, raw_intercept, cleansed_slope, cleansed_intercept, cleansed_r2,
			absolute_slope, absolute_intercept,
			mean_apparent, mean_log_period, mean_absolute, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, batchID, cfg.Name, string(cfg.Key.Class), cfg.Key.Cloud, cfg.Key.Mode, cfg.Source,
		cfg.ReferenceDistanceParsecs, cfg.Sensitivity.Lo, cfg.Sensitivity.Hi, cfg.HaloMargin,
		res.Counts.Raw, res.Counts.Filtered, res.Counts.HaloRemoved, res.Counts.Cleansed,
		nullFloat(res.RawFit.Slope), nullFloat(res.RawFit.Intercept),
		nullFloat(res.CleansedFit.Slope), nullFloat(res.CleansedFit.Intercept), nullFloat(res.CleansedFit.RSquared),
		nullFloat(res.AbsoluteFit.Slope), nullFloat(res.AbsoluteFit.Intercept),
		nullFloat(res.Summary.MeanApparent), nullFloat(res.Summary.MeanLogPeriod), nullFloat(res.Summary.MeanAbsolute),
		db.now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", cfg.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO model_distances (
			run_id, star_index, star_id, model, log_period, apparent_mag, absolute_mag,
			true_distance_pc, model_distance_pc, percent_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare model distances: %w", err)
	}
	defer stmt.Close()

	for i, e := range res.Estimates {
		models := make([]string, 0, len(e.ModelDistance))
		for name := range e.ModelDistance {
			models = append(models, name)
		}
		sort.Strings(models)
		for _, model := range models {
			if _, err := stmt.ExecContext(ctx, runID, i, e.ID, model, e.LogPeriod, e.ApparentMag, e.AbsoluteMag,
				e.TrueDistance, nullFloat(e.ModelDistance[model]), nullFloat(e.PercentError[model])); err != nil {
				return "", fmt.Errorf("insert model distance %s/%s: %w", e.ID, model, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", cfg.Name, err)
	}
	return runID, nil
}

// SaveRunError records a failed run.
func (db *DB) SaveRunError(ctx context.Context, batchID string, cfg pipeline.RunConfig, runErr error) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO run_errors (batch_id, name, class, cloud, mode, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batchID, cfg.Name, string(cfg.Key.Class), cfg.Key.Cloud, cfg.Key.Mode, runErr.Error(), db.now())
	if err != nil {
		return fmt.Errorf("insert run error %s: %w", cfg.Name, err)
	}
	return nil
}

const runColumns = `run_id, batch_id, name, class, cloud, mode, source,
	reference_distance_pc, sensitivity_lo, sensitivity_hi, halo_margin,
	raw_count, filtered_count, halo_removed_count, cleansed_count,
	raw_slope, raw_intercept, cleansed_slope, cleansed_intercept, cleansed_r2,
	absolute_slope, absolute_intercept,
	mean_apparent, mean_log_period, mean_absolute, created_at`

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns
// every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// BatchRuns returns the runs of one batch in insertion order.
func (db *DB) BatchRuns(ctx context.Context, batchID string) ([]RunRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("batch runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var created int64
		var rawSlope, rawIntercept, cleanSlope, cleanIntercept, cleanR2 sql.NullFloat64
		var absSlope, absIntercept, meanApp, meanLogP, meanAbs sql.NullFloat64
		if err := rows.Scan(
			&r.RunID, &r.BatchID, &r.Name, &r.Class, &r.Cloud, &r.Mode, &r.Source,
			&r.ReferenceDistanceParsecs, &r.SensitivityLo, &r.SensitivityHi, &r.HaloMargin,
			&r.RawCount, &r.FilteredCount, &r.HaloRemovedCount, &r.CleansedCount,
			&rawSlope, &rawIntercept, &cleanSlope, &cleanIntercept, &cleanR2,
			&absSlope, &absIntercept,
			&meanApp, &meanLogP, &meanAbs, &created,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.RawSlope, r.RawIntercept = floatOrNaN(rawSlope), floatOrNaN(rawIntercept)
		r.CleansedSlope, r.CleansedIntercept = floatOrNaN(cleanSlope), floatOrNaN(cleanIntercept)
		r.CleansedRSquared = floatOrNaN(cleanR2)
		r.AbsoluteSlope, r.AbsoluteIntercept = floatOrNaN(absSlope), floatOrNaN(absIntercept)
		r.MeanApparent, r.MeanLogPeriod, r.MeanAbsolute = floatOrNaN(meanApp), floatOrNaN(meanLogP), floatOrNaN(meanAbs)
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunErrors returns the failures recorded for a batch.
func (db *DB) RunErrors(ctx context.Context, batchID string) ([]RunError, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, batch_id, name, class, cloud, mode, message, created_at
		FROM run_errors WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("run errors: %w", err)
	}
	defer rows.Close()

	var out []RunError
	for rows.Next() {
		var e RunError
		var created int64
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Name, &e.Class, &e.Cloud, &e.Mode, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan run error: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ModelDistances returns the stored model distances of a run, ordered by
// star then model.
func (db *DB) ModelDistances(ctx context.Context, runID string) ([]ModelDistance, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, star_index, star_id, model, log_period, apparent_mag, absolute_mag,
			true_distance_pc, model_distance_pc, percent_error
		FROM model_distances WHERE run_id = ? ORDER BY star_index, model`, runID)
	if err != nil {
		return nil, fmt.Errorf("model distances: %w", err)
	}
	defer rows.Close()

	var out []ModelDistance
	for rows.Next() {
		var d ModelDistance
		var dist, pct sql.NullFloat64
		if err := rows.Scan(&d.RunID, &d.StarIndex, &d.StarID, &d.Model, &d.LogPeriod, &d.ApparentMag,
			&d.AbsoluteMag, &d.TrueDistance, &dist, &pct); err != nil {
			return nil, fmt.Errorf("scan model distance: %w", err)
		}
		d.ModelDistance, d.PercentError = floatOrNaN(dist), floatOrNaN(pct)
		out = append(out, d)
	}
	return out, rows.Err()
}

// nullFloat maps NaN and Inf, which SQLite cannot store, to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
