// Package tagging persists detection findings as Vorbis comments.
//
// The Writer is idempotent: a file that already carries both tags is left
// untouched, and a tag that is present is never added a second time. In
// dry-run mode the Writer performs no I/O at all.
package tagging

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/mqaid/internal/logging"
	"github.com/simonhull/mqaid/internal/registry"
	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/vorbis"
)

// Tag names written on a positive detection.
const (
	TagEncoder            = "MQAENCODER"
	TagOriginalSampleRate = "ORIGINALSAMPLERATE"
)

// DefaultEncoderValue is the MQAENCODER value written unless configured
// otherwise.
const DefaultEncoderValue = "MQAEncode v1.1, 2.3.3+800 (a505918), F8EC1703-7616-45E5-B81E-D60821434062, Dec 01 2017 22:19:30"

// Option configures a Writer.
type Option func(*Writer)

// WithEncoderValue sets the MQAENCODER value. Empty keeps the default.
func WithEncoderValue(value string) Option {
	return func(w *Writer) {
		if value != "" {
			w.encoderValue = value
		}
	}
}

// WithDryRun makes Apply report what it would do without touching files.
func WithDryRun(dryRun bool) Option {
	return func(w *Writer) {
		w.dryRun = dryRun
	}
}

// WithValidation re-reads the comment block after a write and fails when
// the tags did not land.
func WithValidation() Option {
	return func(w *Writer) {
		w.validate = true
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// Result describes what Apply did.
type Result struct {
	// Added lists the tags written, in write order.
	Added []string
	// Modified is true when the file on disk changed.
	Modified bool
	// DryRun is true when the changes were only planned.
	DryRun bool
}

// Writer adds the detection tags to audio files. It is safe for concurrent
// use on distinct paths.
type Writer struct {
	fs           billy.Filesystem
	logger       *slog.Logger
	encoderValue string
	dryRun       bool
	validate     bool
}

// New creates a Writer operating on fsys.
func New(fsys billy.Filesystem, opts ...Option) *Writer {
	w := &Writer{fs: fsys, encoderValue: DefaultEncoderValue}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.Component(w.logger, "tagging")
	return w
}

// DryRun reports whether the Writer is in dry-run mode.
func (w *Writer) DryRun() bool {
	return w.dryRun
}

// Apply ensures the file at path carries MQAENCODER and, when originalRate
// is non-zero, ORIGINALSAMPLERATE. Failures are returned as
// *types.TaggingError.
func (w *Writer) Apply(path string, originalRate uint32) (Result, error) {
	if w.dryRun {
		return Result{DryRun: true}, nil
	}

	format, err := w.format(path)
	if err != nil {
		return Result{}, &types.TaggingError{Path: path, Reason: "Cannot identify file", Err: err}
	}
	editor := registry.GetEditor(format)
	if editor == nil {
		return Result{}, &types.TaggingError{Path: path, Reason: fmt.Sprintf("No tag writer for %s files", format)}
	}

	wanted := w.tags(originalRate)
	var added []string
	modified, err := editor.EditComments(w.fs, path, func(c *vorbis.Comments) bool {
		for _, tag := range wanted {
			if c.Has(tag[0]) {
				continue
			}
			c.Add(tag[0], tag[1])
			added = append(added, tag[0])
		}
		return len(added) > 0
	})
	if err != nil {
		return Result{}, &types.TaggingError{Path: path, Reason: "Cannot write tags", Err: err}
	}

	if modified && w.validate {
		if err := w.verify(editor, path, wanted); err != nil {
			return Result{Added: added, Modified: true}, err
		}
	}

	if modified {
		w.logger.Debug("tags written", slog.String(logging.FieldPath, path), slog.Any("tags", added))
	}
	return Result{Added: added, Modified: modified}, nil
}

// tags returns the key/value pairs to ensure, in write order.
func (w *Writer) tags(originalRate uint32) [][2]string {
	tags := [][2]string{{TagEncoder, w.encoderValue}}
	if originalRate > 0 {
		tags = append(tags, [2]string{TagOriginalSampleRate, strconv.FormatUint(uint64(originalRate), 10)})
	}
	return tags
}

func (w *Writer) verify(editor registry.CommentEditor, path string, wanted [][2]string) error {
	var missing string
	_, err := editor.EditComments(w.fs, path, func(c *vorbis.Comments) bool {
		for _, tag := range wanted {
			if !c.Has(tag[0]) {
				missing = tag[0]
				break
			}
		}
		return false
	})
	if err != nil {
		return &types.TaggingError{Path: path, Reason: "Cannot re-read tags", Err: err}
	}
	if missing != "" {
		return &types.TaggingError{Path: path, Reason: missing + " missing after write"}
	}
	return nil
}

func (w *Writer) format(path string) (types.Format, error) {
	info, err := w.fs.Stat(path)
	if err != nil {
		return types.FormatUnknown, err
	}
	f, err := w.fs.Open(path)
	if err != nil {
		return types.FormatUnknown, err
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	return types.DetectFormat(f, info.Size(), path)
}
