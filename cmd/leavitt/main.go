// Command leavitt fits period-luminosity relations to Magellanic Cloud
// variable star catalogues and derives distances from them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/leavitt/internal/version"
)

// errRunsFailed marks a batch that completed with at least one failed run.
var errRunsFailed = errors.New("one or more runs failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = runAnalysis(ctx, args[1:], stdout)
	case "migrate":
		err = runMigrate(args[1:], stdout)
	case "runs":
		err = listRuns(ctx, args[1:], stdout)
	case "version":
		fmt.Fprintln(stdout, version.String())
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "leavitt %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: leavitt <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run       Run the P-L analysis over the configured catalogues")
	fmt.Fprintln(w, "  migrate   Manage the results database schema")
	fmt.Fprintln(w, "  runs      List stored analysis runs")
	fmt.Fprintln(w, "  version   Print build information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'leavitt <command> -h' for command flags.")
}
