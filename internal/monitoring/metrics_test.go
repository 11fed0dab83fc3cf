package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMetrics_ObserveStage(t *testing.T) {
	m, err := NewStageMetrics(nil)
	require.NoError(t, err)

	m.ObserveStage("ds-smc-F", StageRaw, 120)
	m.ObserveStage("ds-smc-F", StageSensitivity, 110)
	m.ObserveStage("ds-smc-F", StageSensitivity, 105)

	assert.Equal(t, 120.0, testutil.ToFloat64(m.StageRows.WithLabelValues("ds-smc-F", StageRaw)))
	assert.Equal(t, 105.0, testutil.ToFloat64(m.StageRows.WithLabelValues("ds-smc-F", StageSensitivity)))
}

func TestStageMetrics_ObserveFitAndFailure(t *testing.T) {
	m, err := NewStageMetrics(nil)
	require.NoError(t, err)

	m.ObserveFit("ceph-lmc-F", "raw", -2.9, 17.1)
	m.ObserveFailure("ceph-lmc-1O")
	m.ObserveFailure("ceph-lmc-1O")

	assert.Equal(t, -2.9, testutil.ToFloat64(m.FitSlope.WithLabelValues("ceph-lmc-F", "raw")))
	assert.Equal(t, 17.1, testutil.ToFloat64(m.FitIntercept.WithLabelValues("ceph-lmc-F", "raw")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunFailures.WithLabelValues("ceph-lmc-1O")))
}

func TestStageMetrics_ReRegisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewStageMetrics(reg)
	require.NoError(t, err)
	second, err := NewStageMetrics(reg)
	require.NoError(t, err)

	first.ObserveStage("a", StageRaw, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(second.StageRows.WithLabelValues("a", StageRaw)))
}

func TestStageMetrics_NilReceiver(t *testing.T) {
	var m *StageMetrics
	m.ObserveStage("a", StageRaw, 1)
	m.ObserveFit("a", "raw", 1, 2)
	m.ObserveFailure("a")
	assert.Nil(t, m.Gatherer())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestStageMetrics_WriteTextfile(t *testing.T) {
	m, err := NewStageMetrics(nil)
	require.NoError(t, err)
	m.ObserveStage("ds-lmc-F", StageCleansed, 42)

	path := filepath.Join(t.TempDir(), "leavitt.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `leavitt_stage_rows{run="ds-lmc-F",stage="cleansed"} 42`), text)
}
