// Command loanmaster rebuilds the loan master table once and exits.
//
// Exit codes: 0 success, 1 setup error or a run already in progress,
// 2 load or computation failure, 3 persistence failure.
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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"loan-master/internal/adapter/repository/csvfile"
	"loan-master/internal/app"
	"loan-master/internal/config"
	"loan-master/internal/domain/run"
	"loan-master/internal/infrastructure/logger"
	"loan-master/internal/usecase/build"
)

const (
	exitOK      = 0
	exitSetup   = 1
	exitCompute = 2
	exitPersist = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runCLI(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("loanmaster", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		envFile     = fs.String("env", ".env", "optional dotenv file")
		asOf        = fs.String("as-of", "", "reference date YYYY-MM-DD (default: AS_OF or today)")
		strictDates = fs.Bool("strict-dates", false, "fail on unparsable dates instead of blanking them")
		sourceDir   = fs.String("source-dir", "", "directory holding the raw CSV files (overrides SOURCE_DIR)")
		out         = fs.String("out", "", "output CSV path (overrides OUTPUT_PATH)")
		dryRun      = fs.Bool("dry-run", false, "compute and print the table to stdout without persisting")
	)
	if err := fs.Parse(args); err != nil {
		return exitSetup
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitSetup
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strict-dates":
			cfg.StrictDates = *strictDates
		case "source-dir":
			cfg.SourceKind, cfg.SourceDir = config.KindCSV, *sourceDir
		case "out":
			cfg.OutputKind, cfg.OutputPath = config.KindCSV, *out
		}
	})
	if *asOf != "" {
		if cfg.AsOf, err = time.Parse("2006-01-02", *asOf); err != nil {
			fmt.Fprintf(stderr, "invalid -as-of %q: %v\n", *asOf, err)
			return exitSetup
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitSetup
	}

	log := logger.NewLoggerTo(cfg.LogLevel, stderr)
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		log.Error("setup failed", zap.Error(err))
		return exitSetup
	}
	defer a.Close()

	in := build.RunInput{AsOf: cfg.AsOf, StrictDates: cfg.StrictDates, Trigger: run.TriggerCLI}
	if *dryRun {
		t, err := a.Build.Output(ctx, in)
		if err != nil {
			log.Error("dry run failed", zap.Error(err))
			return exitCode(err)
		}
		if err := csvfile.Encode(stdout, t); err != nil {
			log.Error("writing stdout failed", zap.Error(err))
			return exitPersist
		}
		return exitOK
	}

	dto, err := a.Build.Run(ctx, in)
	if err != nil {
		return exitCode(err)
	}
	fmt.Fprintf(stdout, "run %s: %d rows written to %s (%d data issues)\n",
		dto.RunID, dto.OutputRows, dto.Destination, dto.IssueCount)
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, build.ErrPersist):
		return exitPersist
	case errors.Is(err, build.ErrLoad), errors.Is(err, build.ErrCompute):
		return exitCompute
	}
	return exitSetup
}
