package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/simonhull/mqaid/internal/config"
	"github.com/simonhull/mqaid/internal/report"
)

// scanFlags are the root command's options. Values only override the
// loaded configuration when set explicitly on the command line.
type scanFlags struct {
	verbose      bool
	dryRun       bool
	noColor      bool
	history      bool
	workers      int
	reportPath   string
	reportFormat string
	logLevel     string
	logFormat    string
	logFile      string
}

// AddFlags registers the scan flags on flagSet.
func (f *scanFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "Write failed files to the report file at the end of the run")
	flagSet.BoolVar(&f.dryRun, "dry-run", false, "Scan without modifying any file")
	flagSet.BoolVar(&f.noColor, "no-color", false, "Disable coloured status lines")
	flagSet.BoolVar(&f.history, "history", false, "Record this run in the history database")
	flagSet.IntVarP(&f.workers, "workers", "j", 0, "Parallel workers (0 uses the CPU count)")
	flagSet.StringVar(&f.reportPath, "report", "", "Report file path (default mqa_identifier.log)")
	flagSet.StringVar(&f.reportFormat, "report-format", "", "Report format: text, json or yaml")
	flagSet.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flagSet.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")
	flagSet.StringVar(&f.logFile, "log-file", "", "Also append log lines to this file")
}

func (f *scanFlags) apply(flagSet *pflag.FlagSet, cfg *config.Config) error {
	if flagSet.Changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if flagSet.Changed("history") {
		cfg.History.Enabled = f.history
	}
	if flagSet.Changed("report") {
		path, err := config.ExpandPath(f.reportPath)
		if err != nil {
			return fmt.Errorf("resolve report path: %w", err)
		}
		cfg.Report.Path = path
	}
	if flagSet.Changed("report-format") {
		format, err := report.ParseFormat(f.reportFormat)
		if err != nil {
			return err
		}
		cfg.Report.Format = string(format)
	}
	if flagSet.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if flagSet.Changed("log-file") {
		path, err := config.ExpandPath(f.logFile)
		if err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
		cfg.Logging.Outputs = append(cfg.Logging.Outputs, path)
	}
	return cfg.Validate()
}
