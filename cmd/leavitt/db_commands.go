package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/banshee-data/leavitt/internal/db"
	"github.com/banshee-data/leavitt/internal/units"
)

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "leavitt.db", "SQLite results database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(stdout, fs.Args(), *dbPath)
}

func listRuns(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "leavitt.db", "SQLite results database")
	limit := fs.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	distUnits := fs.String("units", units.Parsec, "Reference distance units ("+units.GetValidUnitsString()+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !units.IsValid(*distUnits) {
		return fmt.Errorf("invalid units %q: must be one of %s", *distUnits, units.GetValidUnitsString())
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "CREATED\tBATCH\tRUN\tREF (%s)\tCLEANSED\tSLOPE\tINTERCEPT\tABS INTERCEPT\n", *distUnits)
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%.8s\t%s\t%.6g\t%d\t%.3f\t%.3f\t%.3f\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.BatchID, r.Name,
			units.ConvertDistance(r.ReferenceDistanceParsecs, *distUnits), r.CleansedCount,
			r.CleansedSlope, r.CleansedIntercept, r.AbsoluteIntercept)
	}
	return tw.Flush()
}
