package monitoring

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names reported through StageMetrics.ObserveStage.
const (
	StageRaw         = "raw"
	StageSensitivity = "sensitivity"
	StageCleansed    = "cleansed"
	StageHaloRemoved = "halo_removed"
)

// StageMetrics exposes per-run pipeline metrics. A batch job has no scrape
// endpoint, so the registry is dumped with WriteTextfile when the batch ends.
// All methods are safe to call on a nil receiver.
type StageMetrics struct {
	registry *prometheus.Registry

	StageRows    *prometheus.GaugeVec
	FitSlope     *prometheus.GaugeVec
	FitIntercept *prometheus.GaugeVec
	RunFailures  *prometheus.CounterVec
}

// NewStageMetrics registers the pipeline metrics against reg. A nil reg gets
// a fresh private registry.
func NewStageMetrics(reg *prometheus.Registry) (*StageMetrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leavitt_stage_rows",
		Help: "Catalogue rows surviving each pipeline stage.",
	}, []string{"run", "stage"})
	rows, err := registerGaugeVec(reg, rows, "leavitt_stage_rows")
	if err != nil {
		return nil, err
	}

	slope := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leavitt_fit_slope",
		Help: "Slope of the fitted period-luminosity relation.",
	}, []string{"run", "fit"})
	slope, err = registerGaugeVec(reg, slope, "leavitt_fit_slope")
	if err != nil {
		return nil, err
	}

	intercept := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leavitt_fit_intercept",
		Help: "Intercept of the fitted period-luminosity relation.",
	}, []string{"run", "fit"})
	intercept, err = registerGaugeVec(reg, intercept, "leavitt_fit_intercept")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leavitt_run_failures_total",
		Help: "Pipeline runs aborted by an error.",
	}, []string{"run"})
	if err := reg.Register(failures); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector leavitt_run_failures_total already registered with incompatible type")
		}
		failures = existing
	}

	return &StageMetrics{
		registry:     reg,
		StageRows:    rows,
		FitSlope:     slope,
		FitIntercept: intercept,
		RunFailures:  failures,
	}, nil
}

// Gatherer returns the registry backing these metrics.
func (m *StageMetrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records how many rows a run had after a stage.
func (m *StageMetrics) ObserveStage(run, stage string, rows int) {
	if m == nil || m.StageRows == nil {
		return
	}
	m.StageRows.WithLabelValues(run, stage).Set(float64(rows))
}

// ObserveFit records a fitted line. fit is one of "raw", "cleansed", "absolute".
func (m *StageMetrics) ObserveFit(run, fit string, slope, intercept float64) {
	if m == nil || m.FitSlope == nil || m.FitIntercept == nil {
		return
	}
	m.FitSlope.WithLabelValues(run, fit).Set(slope)
	m.FitIntercept.WithLabelValues(run, fit).Set(intercept)
}

// ObserveFailure counts an aborted run.
func (m *StageMetrics) ObserveFailure(run string) {
	if m == nil || m.RunFailures == nil {
		return
	}
	m.RunFailures.WithLabelValues(run).Inc()
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (m *StageMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
