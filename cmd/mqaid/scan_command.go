package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/simonhull/mqaid/internal/config"
	"github.com/simonhull/mqaid/internal/detect"
	_ "github.com/simonhull/mqaid/internal/flac"
	"github.com/simonhull/mqaid/internal/history"
	"github.com/simonhull/mqaid/internal/logging"
	"github.com/simonhull/mqaid/internal/report"
	"github.com/simonhull/mqaid/internal/scan"
	"github.com/simonhull/mqaid/internal/tagging"
)

const usageHint = `HINT: To use the tool provide files and/or directories as program arguments.
      Use -v to write failed files to mqa_identifier.log
      Use --dry-run to scan without modifying files.
`

func runScan(cmd *cobra.Command, cfg *config.Config, flags *scanFlags, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprint(out, usageHint)
		return nil
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.Outputs,
		Stdout:      out,
		Stderr:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // Log files are append-only
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", arg, err)
		}
		paths = append(paths, abs)
	}

	if !flags.dryRun {
		unlock, err := acquireRunLock(cfg)
		if err != nil {
			return err
		}
		defer unlock()
	}

	fsys := osfs.New("/")
	det := detect.New(fsys,
		detect.WithWindow(cfg.Scan.WindowSeconds),
		detect.WithExtensions(cfg.Scan.Extensions),
		detect.WithLogger(logger),
	)
	opts := []scan.Option{
		scan.WithWorkers(cfg.Scan.Workers),
		scan.WithMaxWorkers(cfg.Scan.MaxWorkers),
		scan.WithExtensions(cfg.Scan.Extensions),
		scan.WithDryRun(flags.dryRun),
		scan.WithOutput(out, !flags.noColor),
		scan.WithLogger(logger),
		scan.WithTagger(tagging.New(fsys,
			tagging.WithEncoderValue(cfg.Tags.EncoderValue),
			tagging.WithDryRun(flags.dryRun),
			tagging.WithLogger(logger),
		)),
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(ctx, cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, scan.WithRecorder(store))
	}

	fmt.Fprintln(out, "  #\tEncoding\tName")
	summary, runErr := scan.New(fsys, det, opts...).Run(ctx, paths)

	if store != nil {
		if err := store.FinishRun(ctx, summary); err != nil {
			logger.Warn("history update failed",
				slog.String("run_id", summary.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	printSummary(out, summary)

	if flags.verbose && len(summary.Errors) > 0 {
		if err := report.WriteFile(fsys, cfg.Report.Path, format, summary); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintf(out, "Log written to %s\n", cfg.Report.Path)
	}
	return runErr
}

func printSummary(out io.Writer, s scan.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Scanned %d files\n", s.Scanned)
	fmt.Fprintf(out, "Found %d MQA files\n", s.Matched)
	fmt.Fprintln(out, report.SummaryTable(s))
}

// acquireRunLock keeps two tagging runs from rewriting the same files.
func acquireRunLock(cfg *config.Config) (func(), error) {
	if err := cfg.EnsureStateDir(); err != nil {
		return nil, err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another mqaid run holds %s", cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}
