package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/banshee-data/leavitt/internal/catalogue"
	"github.com/banshee-data/leavitt/internal/config"
	"github.com/banshee-data/leavitt/internal/db"
	"github.com/banshee-data/leavitt/internal/fsutil"
	"github.com/banshee-data/leavitt/internal/monitoring"
	"github.com/banshee-data/leavitt/internal/pipeline"
	"github.com/banshee-data/leavitt/internal/report"
	"github.com/banshee-data/leavitt/internal/security"
)

type runFlags struct {
	configPath  string
	dataDir     string
	outDir      string
	dbPath      string
	html        bool
	png         bool
	parquet     bool
	metricsPath string
}

func parseRunFlags(args []string, stderr io.Writer) (runFlags, error) {
	var f runFlags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "Analysis config (.yaml/.yml/.json); defaults to "+config.DefaultConfigPath+" when present")
	fs.StringVar(&f.dataDir, "data", "data", "Directory holding the catalogue CSV files")
	fs.StringVar(&f.outDir, "out", "out", "Directory for charts and exports")
	fs.StringVar(&f.dbPath, "db", "", "SQLite results database (migrated on open); empty disables persistence")
	fs.BoolVar(&f.html, "html", false, "Write an interactive HTML report")
	fs.BoolVar(&f.png, "png", false, "Write one PNG per chart")
	fs.BoolVar(&f.parquet, "parquet", false, "Export cleansed catalogues as parquet")
	fs.StringVar(&f.metricsPath, "metrics", "", "Write Prometheus metrics in textfile format to this path")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func loadConfig(fsys fsutil.FileSystem, path string) (*config.AnalysisConfig, error) {
	if path != "" {
		return config.LoadAnalysisConfig(path)
	}
	if fsys.Exists(config.DefaultConfigPath) {
		return config.LoadAnalysisConfig(config.DefaultConfigPath)
	}
	monitoring.Logf("no config file, using built-in defaults")
	return config.DefaultAnalysisConfig(), nil
}

func runAnalysis(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseRunFlags(args, stdout)
	if err != nil {
		return err
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := loadConfig(fsys, f.configPath)
	if err != nil {
		return err
	}
	runs, err := pipeline.FromConfig(cfg, f.dataDir)
	if err != nil {
		return err
	}

	metrics, err := monitoring.NewStageMetrics(nil)
	if err != nil {
		return err
	}

	b := pipeline.RunAll(ctx, runs, pipeline.FileLoader{FS: fsys, Root: f.dataDir}, pipeline.Options{Metrics: metrics})
	printBatch(stdout, b)

	var outErrs []error
	if f.png || f.html {
		outErrs = append(outErrs, writeCharts(fsys, f, b, stdout))
	}
	if f.parquet {
		outErrs = append(outErrs, writeParquet(fsys, f.outDir, b, stdout))
	}
	if f.dbPath != "" {
		outErrs = append(outErrs, persist(ctx, f.dbPath, b, stdout))
	}
	if f.metricsPath != "" {
		if err := metrics.WriteTextfile(f.metricsPath); err != nil {
			outErrs = append(outErrs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := errors.Join(outErrs...); err != nil {
		return err
	}

	if failed := b.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d runs: %w", len(failed), len(b.Outcomes), errRunsFailed)
	}
	return nil
}

func printBatch(w io.Writer, b *pipeline.Batch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tRAW\tFILTERED\tHALO\tCLEANSED\tSLOPE\tINTERCEPT\tMEAN M\tSTATUS")
	for _, o := range b.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\tFAILED: %v\n", o.Config.Name, o.Err)
			continue
		}
		r := o.Result
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.3f\t%.3f\t%.3f\tok\n",
			o.Config.Name, r.Counts.Raw, r.Counts.Filtered, r.Counts.HaloRemoved, r.Counts.Cleansed,
			r.CleansedFit.Slope, r.CleansedFit.Intercept, r.Summary.MeanAbsolute)
	}
	tw.Flush()

	for _, m := range b.Models {
		fmt.Fprintf(w, "model %s (%s/%s): M = %s\n", m.Name, m.Class, m.Mode, m.Relation)
	}
}

func writeCharts(fsys fsutil.FileSystem, f runFlags, b *pipeline.Batch, stdout io.Writer) error {
	var charts []report.Chart
	for _, o := range b.Succeeded() {
		charts = append(charts, report.BuildRunCharts(o.Result)...)
	}
	if len(b.Models) > 0 {
		charts = append(charts, report.BuildModelCharts(b)...)
	}

	if f.png {
		paths, err := report.PNGRenderer{FS: fsys}.Render(filepath.Join(f.outDir, "png"), charts)
		if err != nil {
			return fmt.Errorf("png report: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %d PNG charts to %s\n", len(paths), filepath.Join(f.outDir, "png"))
	}
	if f.html {
		path, err := report.HTMLRenderer{FS: fsys, PageTitle: "Magellanic Cloud P-L analysis"}.Render(f.outDir, charts)
		if err != nil {
			return fmt.Errorf("html report: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	return nil
}

func writeParquet(fsys fsutil.FileSystem, outDir string, b *pipeline.Batch, stdout io.Writer) error {
	dir := filepath.Join(outDir, "parquet")
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parquet dir: %w", err)
	}
	for _, o := range b.Succeeded() {
		path := filepath.Join(dir, security.SanitizeFilename(o.Config.Name)+".parquet")
		if err := catalogue.ExportParquet(fsys, path, o.Result.Cleansed); err != nil {
			return fmt.Errorf("export %s: %w", o.Config.Name, err)
		}
	}
	fmt.Fprintf(stdout, "wrote %d parquet files to %s\n", len(b.Succeeded()), dir)
	return nil
}

func persist(ctx context.Context, path string, b *pipeline.Batch, stdout io.Writer) error {
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	batchID, err := database.SaveBatch(ctx, b)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	fmt.Fprintf(stdout, "saved batch %s to %s\n", batchID, path)
	return nil
}
