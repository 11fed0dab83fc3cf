package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/leavitt/internal/fsutil"
	"github.com/banshee-data/leavitt/internal/monitoring"
	"github.com/banshee-data/leavitt/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

const testConfig = `
runs:
  - {name: ceph-smc-f, class: ceph, cloud: SMC, mode: F, catalogue: smccephdata.csv, calibrate: true}
  - {name: ceph-lmc-f, class: ceph, cloud: LMC, mode: F, catalogue: lmccephdata.csv, calibrate: true}
`

// writeFixtures lays out a data dir and config for two Cepheid runs. Extra
// YAML is appended to the runs list.
func writeFixtures(t *testing.T, extraRuns string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))

	smc := testutil.OnLine("smc", "F", -2.9, 19.0, 2, 30, 12)
	smc = append(smc, testutil.Star{ID: "halo", Mode: "F", I: 13.5, P1: 10})
	lmc := testutil.OnLine("lmc", "F", -2.9, 18.5, 2, 30, 12)
	require.NoError(t, os.WriteFile(filepath.Join(data, "smccephdata.csv"), []byte(testutil.CatalogueCSV("ceph", smc)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(data, "lmccephdata.csv"), []byte(testutil.CatalogueCSV("ceph", lmc)), 0o644))

	cfgPath = filepath.Join(dir, "analysis.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig+extraRuns), 0o644))
	return dir, cfgPath
}

func TestRun_FullAnalysis(t *testing.T) {
	dir, cfgPath := writeFixtures(t, "")
	out := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "results.db")
	metricsPath := filepath.Join(dir, "leavitt.prom")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"run",
		"-config", cfgPath, "-data", filepath.Join(dir, "data"), "-out", out,
		"-db", dbPath, "-html", "-png", "-parquet", "-metrics", metricsPath,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	assert.Contains(t, stdout.String(), "ceph-smc-f")
	assert.Contains(t, stdout.String(), "model SMC")
	assert.FileExists(t, filepath.Join(out, "report.html"))
	assert.FileExists(t, filepath.Join(out, "png", "ceph-smc-f-raw.png"))
	assert.FileExists(t, filepath.Join(out, "png", "model-distance.png"))
	assert.FileExists(t, filepath.Join(out, "parquet", "ceph-lmc-f.parquet"))
	assert.FileExists(t, dbPath)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `leavitt_stage_rows{run="ceph-smc-f",stage="halo_removed"} 1`)

	stdout.Reset()
	code = run(context.Background(), []string{"runs", "-db", dbPath}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "ceph-lmc-f")
	assert.Equal(t, 3, strings.Count(stdout.String(), "\n"), "header plus two runs")
	assert.Contains(t, stdout.String(), "REF (pc)")

	stdout.Reset()
	code = run(context.Background(), []string{"runs", "-db", dbPath, "-units", "kpc"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "REF (kpc)")
	assert.Contains(t, stdout.String(), "62.44")

	code = run(context.Background(), []string{"runs", "-db", dbPath, "-units", "mpc"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "pc, kpc, ly")
}

func TestRun_FailedRunExitsNonZero(t *testing.T) {
	dir, cfgPath := writeFixtures(t, "  - {name: ds-smc-f, class: ds, cloud: SMC, mode: F, catalogue: missing.csv}\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"run",
		"-config", cfgPath, "-data", filepath.Join(dir, "data"), "-out", filepath.Join(dir, "out"),
	}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "1 of 3 runs")
	// The other runs still completed.
	assert.Contains(t, stdout.String(), "FAILED")
	assert.Equal(t, 2, strings.Count(stdout.String(), "ok\n"))
}

func TestRun_CatalogueOutsideDataDir(t *testing.T) {
	dir, cfgPath := writeFixtures(t, "  - {name: escape, class: ceph, cloud: SMC, mode: F, catalogue: ../smccephdata.csv}\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"run",
		"-config", cfgPath, "-data", filepath.Join(dir, "data"), "-out", filepath.Join(dir, "out"),
	}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "path traversal")
}

func TestLoadConfig_FallsBackToBuiltInDefaults(t *testing.T) {
	cfg, err := loadConfig(fsutil.NewMemoryFileSystem(), "")
	require.NoError(t, err)
	assert.Len(t, cfg.GetRuns(), 8)
}

func TestRun_BadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"run", "-config", "analysis.toml"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "extension")
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "m.db")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"migrate", "-db", dbPath, "up"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "Current version: 2")
}

func TestDispatch(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: leavitt")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown command: bogus")

	assert.Equal(t, 0, run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "leavitt dev")

	assert.Equal(t, 0, run(context.Background(), []string{"run", "-h"}, &stdout, &stderr))
}
