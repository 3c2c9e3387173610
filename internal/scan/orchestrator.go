// Package scan runs watermark detection over a set of files and directories.
//
// An Orchestrator expands its arguments into files, feeds them through a
// fixed pool of workers and tags positive results. Every file is isolated:
// failures and panics become ledger entries and never stop the batch. The
// counters and ledger of a run are only read after all workers have
// returned.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/mqaid/internal/detect"
	"github.com/simonhull/mqaid/internal/logging"
	"github.com/simonhull/mqaid/internal/tagging"
	"github.com/simonhull/mqaid/internal/types"
)

// DefaultMaxWorkers caps the pool regardless of available CPUs.
const DefaultMaxWorkers = 16

// Tagger persists findings for one file.
type Tagger interface {
	Apply(path string, originalRate uint32) (tagging.Result, error)
}

// Recorder receives every finished outcome, e.g. to keep a history.
// Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, runID string, o Outcome) error
}

// task is one admitted file. index is its 1-based admission position.
type task struct {
	index int
	path  string
}

// Outcome is the final state of one file.
type Outcome struct {
	Index  int
	Path   string
	State  State
	Result types.DetectionResult
	// Tag is set when tagging was attempted.
	Tag    *tagging.Result
	TagErr error
	Size   int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the pool size. Zero or less uses the CPU count. The
// result is always clamped to the maximum.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// WithMaxWorkers changes the pool cap.
func WithMaxWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxWorkers = n
		}
	}
}

// WithTagger sets the writer used on positive detections.
func WithTagger(t Tagger) Option {
	return func(o *Orchestrator) {
		o.tagger = t
	}
}

// WithDryRun skips tagging entirely.
func WithDryRun(dryRun bool) Option {
	return func(o *Orchestrator) {
		o.dryRun = dryRun
	}
}

// WithExtensions sets the extensions picked up inside directories.
func WithExtensions(exts []string) Option {
	return func(o *Orchestrator) {
		if len(exts) > 0 {
			o.extensions = exts
		}
	}
}

// WithOutput sets where status lines go, and whether they may be coloured.
func WithOutput(w io.Writer, color bool) Option {
	return func(o *Orchestrator) {
		o.out = w
		o.color = color
	}
}

// WithRecorder adds an outcome sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator schedules detection across a bounded worker pool.
type Orchestrator struct {
	fs         billy.Filesystem
	detector   *detect.Detector
	tagger     Tagger
	recorder   Recorder
	logger     *slog.Logger
	out        io.Writer
	extensions []string
	workers    int
	maxWorkers int
	dryRun     bool
	color      bool
}

// New creates an Orchestrator that discovers files through fsys and runs
// det on each of them.
func New(fsys billy.Filesystem, det *detect.Detector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fs:         fsys,
		detector:   det,
		out:        io.Discard,
		extensions: types.FormatFLAC.Extensions(),
		maxWorkers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.Component(o.logger, "scan")
	return o
}

// Workers returns the pool size a run will use.
func (o *Orchestrator) Workers() int {
	n := o.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, o.maxWorkers))
}

// Run scans args and returns the run summary.
//
// The pool has a fixed number of workers fed through a channel of the same
// capacity, so discovery blocks while every worker is busy and the queue is
// full. Cancelling ctx stops admission of further files; files already
// admitted are always finished. The returned error is non-nil only when
// admission was cut short by ctx.
func (o *Orchestrator) Run(ctx context.Context, args []string) (Summary, error) {
	run := newRun(NewPrinter(o.out, o.color), o.dryRun)
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, o.logger)

	workers := o.Workers()
	logger.Info("scan started", "paths", len(args), "workers", workers, "dry_run", o.dryRun)

	tasks := make(chan task, workers)
	// Workers ignore cancellation; only admission below watches ctx.
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for t := range tasks {
				o.finish(ctx, run, o.process(ctx, run, t))
			}
			return nil
		})
	}

	admitErr := discover(ctx, o.fs, args, o.extensions,
		func(p string) bool {
			select {
			case tasks <- task{index: run.nextIndex(), path: p}:
				return true
			case <-ctx.Done():
				return false
			}
		},
		func(p string, err error) {
			verr := walkError(p, err)
			logger.Warn("skipping unreadable path", slog.String(logging.FieldPath, p), "error", err)
			run.Ledger.Add(types.Reason(verr), p)
		},
	)
	close(tasks)
	_ = g.Wait() //nolint:errcheck // Workers never return errors

	summary := run.summary()
	logger.Info("scan finished",
		"scanned", summary.Scanned,
		"matched", summary.Matched,
		"failed", summary.Failed,
		"tagged", summary.Tagged,
		"duration", summary.Duration.String(),
	)

	if errors.Is(admitErr, errStop) {
		admitErr = nil
	}
	if admitErr != nil {
		return summary, fmt.Errorf("scan interrupted: %w", admitErr)
	}
	return summary, nil
}

// process carries one file through detection and tagging, advancing
// out.State before each step. A panic before detection completes fails the
// file with an UnknownError.
func (o *Orchestrator) process(ctx context.Context, run *Run, t task) (out Outcome) {
	path := t.path
	out = Outcome{Index: t.index, Path: path, State: StatePending, Result: types.DetectionResult{Path: path}}
	logger := logging.WithContext(ctx, o.logger).With(slog.String(logging.FieldPath, path))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing file", "panic", r, "state", out.State.String(), "stack", string(debug.Stack()))
			out.Result = types.DetectionResult{
				Path:   path,
				Format: out.Result.Format,
				Err:    &types.UnknownError{Path: path, Value: r},
			}
			out.State = StateFailed
		}
	}()

	fail := func(err error) Outcome {
		out.Result.Err = err
		out.State = StateFailed
		return out
	}

	out.State = StateValidating
	if info, err := o.fs.Stat(path); err == nil && info.Mode().IsRegular() {
		out.Size = info.Size()
	}
	format, err := o.detector.Validate(path)
	if err != nil {
		return fail(err)
	}

	out.State = StateDecoding
	src, err := o.detector.Open(path, format)
	if err != nil {
		return fail(err)
	}
	defer src.Close() //nolint:errcheck // Read-only source
	out.Result.Format = src.Format()
	samples, err := o.detector.ReadWindow(ctx, path, src)
	if err != nil {
		return fail(err)
	}

	out.State = StateScanning
	out.Result = o.detector.Scan(ctx, path, src.Format(), samples)
	switch {
	case out.Result.Failed():
		out.State = StateFailed
		return out
	case !out.Result.Watermarked:
		out.State = StateNotDetected
		return out
	}

	out.State = StateDetected
	switch {
	case run.DryRun:
		run.Printer.DryRun(path)
		out.State = StateDone
	case o.tagger == nil:
		out.State = StateDone
	default:
		o.tag(logger, &out)
	}
	return out
}

// tag writes the findings for a detected file. Tagging faults, panics
// included, are recorded on the outcome and never undo the detection.
func (o *Orchestrator) tag(logger *slog.Logger, out *Outcome) {
	out.State = StateTagging
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while tagging file", "panic", r, "stack", string(debug.Stack()))
			out.Tag = nil
			out.TagErr = &types.TaggingError{Path: out.Path, Reason: fmt.Sprintf("Unexpected failure: %v", r)}
		}
		out.State = StateDone
	}()

	tag, err := o.tagger.Apply(out.Path, out.Result.OriginalSampleRate)
	out.Tag = &tag
	if err != nil {
		out.TagErr = err
		logger.Warn("tagging failed", "error", err)
	}
}

// finish records an outcome in the run and the recorder.
func (o *Orchestrator) finish(ctx context.Context, run *Run, out Outcome) {
	run.Counters.Scanned.Add(1)
	run.Counters.Bytes.Add(out.Size)

	switch {
	case out.State == StateFailed:
		run.Counters.Failed.Add(1)
		run.Ledger.Add(types.Reason(out.Result.Err), out.Path)
	case out.State.Positive():
		run.Counters.Matched.Add(1)
		if out.TagErr != nil {
			run.Ledger.Add(types.Reason(out.TagErr), out.Path)
		} else if out.Tag != nil && out.Tag.Modified {
			run.Counters.Tagged.Add(1)
		}
	}

	run.Printer.Status(out)

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, run.ID, out); err != nil {
			o.logger.Warn("history record failed", slog.String(logging.FieldPath, out.Path), "error", err)
		}
	}
}
