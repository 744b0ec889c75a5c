package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scadenze/internal/backend"
	"scadenze/internal/cli"
	"scadenze/internal/config"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/recurrence"
	"scadenze/internal/source"
	"scadenze/internal/source/memory"
)

var (
	flagFile     string
	flagToday    string
	flagLogLevel string
	flagQuiet    bool

	flagDetection = config.DefaultDetection()
)

var rootCmd = &cobra.Command{
	Use:   "scadenze-cli",
	Short: "Recurring bill detection and calendar projection",
	Long: "Detect recurring payments in a transaction history and project them " +
		"onto a calendar. Reads a CSV file with --file, or the configured backend otherwise.",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cli.LoadEnvFile()
	},
	RunE: runSeries,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagFile, "file", "f", "", "Transactions CSV (id,date,amount,type,category,description)")
	pf.StringVar(&flagToday, "today", "", "Reference date YYYY-MM-DD (default: system date)")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")

	pf.IntVar(&flagDetection.MinOccurrences, "min-occurrences", flagDetection.MinOccurrences, "Minimum payments for a series")
	pf.Float64Var(&flagDetection.BucketWidth, "bucket-width", flagDetection.BucketWidth, "Amount bucket width in currency units (0 = exact)")
	pf.Float64Var(&flagDetection.ToleranceDays, "tolerance-days", flagDetection.ToleranceDays, "Allowed deviation from the average interval")
	pf.Float64Var(&flagDetection.MinConsistency, "min-consistency", flagDetection.MinConsistency, "Minimum consistency score (0-100)")
	pf.StringVar(&flagDetection.AcceptanceMode, "acceptance", flagDetection.AcceptanceMode, "Acceptance mode: any, window, score, all")
	pf.BoolVar(&flagDetection.IncludeIncome, "include-income", flagDetection.IncludeIncome, "Also detect recurring income")
	pf.BoolVar(&flagDetection.ProjectInactive, "project-inactive", flagDetection.ProjectInactive, "Project series that look lapsed")
}

var detectionFlags = []string{
	"min-occurrences", "bucket-width", "tolerance-days", "min-consistency",
	"acceptance", "include-income", "project-inactive",
}

// detection starts from the environment and config file, then applies
// the flags the user actually set.
func detection(cmd *cobra.Command, cfg *config.Config) config.Detection {
	d := cfg.Detection
	for _, name := range detectionFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		switch name {
		case "min-occurrences":
			d.MinOccurrences = flagDetection.MinOccurrences
		case "bucket-width":
			d.BucketWidth = flagDetection.BucketWidth
		case "tolerance-days":
			d.ToleranceDays = flagDetection.ToleranceDays
		case "min-consistency":
			d.MinConsistency = flagDetection.MinConsistency
		case "acceptance":
			d.AcceptanceMode = flagDetection.AcceptanceMode
		case "include-income":
			d.IncludeIncome = flagDetection.IncludeIncome
		case "project-inactive":
			d.ProjectInactive = flagDetection.ProjectInactive
		}
	}
	return d
}

func today() (core.Date, error) {
	if flagToday == "" {
		return core.DateOf(time.Now()), nil
	}
	d, err := core.ParseDate(flagToday)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid --today %q: %w", flagToday, err)
	}
	return d, nil
}

// loadEngine builds the engine over --file or the configured backend. The
// returned cleanup must be called once the command is done.
func loadEngine(cmd *cobra.Command) (*recurrence.Engine, func(), error) {
	logger := cli.SetupLogger(flagLogLevel, applog.ComponentApp)
	cfg := config.Load()

	opts := detection(cmd, cfg).Options()
	if err := opts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid detection settings: %w", err)
	}

	day, err := today()
	if err != nil {
		return nil, nil, err
	}

	src, cleanup, err := openSource(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	engine := recurrence.NewEngine(src,
		recurrence.WithOptions(opts),
		recurrence.WithClock(recurrence.FixedClock(day)),
		recurrence.WithLogger(logger))
	return engine, cleanup, nil
}

func openSource(ctx context.Context, cfg *config.Config, logger *applog.Logger) (source.TransactionSource, func(), error) {
	if flagFile != "" {
		f, err := os.Open(flagFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open transactions file: %w", err)
		}
		defer f.Close()

		txs, skipped, err := source.ParseCSV(f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", flagFile, err)
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Loaded %s transactions from %s", cli.FormatCount(len(txs)), flagFile)
			if len(skipped) > 0 {
				fmt.Fprintf(os.Stderr, " (%d rows skipped)", len(skipped))
			}
			fmt.Fprintln(os.Stderr)
		}
		for _, re := range skipped {
			logger.Warn("Skipping malformed row", applog.FieldReason, applog.ReasonMalformed, applog.FieldError, re)
		}
		return memory.New(txs), func() {}, nil
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}
	return be.Source, func() { _ = be.Cleanup() }, nil
}
