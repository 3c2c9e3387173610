package mqaid

import (
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/simonhull/mqaid/internal/detect"
	"github.com/simonhull/mqaid/internal/logging"
)

// Option configures identification.
//
// Example:
//
//	res, err := mqaid.Identify(ctx, "song.flac",
//	    mqaid.WithWindow(5),
//	)
type Option func(*identifyOptions)

type identifyOptions struct {
	fs         billy.Filesystem
	host       bool
	window     uint32
	extensions []string
	workers    int
	logger     *slog.Logger
}

func defaultOptions() *identifyOptions {
	return &identifyOptions{
		fs:     osfs.New("/"),
		host:   true,
		window: detect.DefaultWindowSeconds,
		logger: logging.NewNop(),
	}
}

// resolve makes relative paths absolute against the working directory when
// reading the host filesystem.
func (o *identifyOptions) resolve(path string) string {
	return hostPath(o.host, path)
}

func hostPath(host bool, path string) string {
	if !host || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (o *identifyOptions) detector() *detect.Detector {
	return detect.New(o.fs,
		detect.WithWindow(o.window),
		detect.WithExtensions(o.extensions),
		detect.WithLogger(o.logger),
	)
}

// WithFilesystem reads files from fsys instead of the host filesystem.
// Paths passed to Identify are resolved inside fsys.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(o *identifyOptions) {
		if fsys != nil {
			o.fs = fsys
			o.host = false
		}
	}
}

// WithWindow sets how many seconds of audio are inspected from the start of
// each file. The default is three.
func WithWindow(seconds uint32) Option {
	return func(o *identifyOptions) {
		if seconds > 0 {
			o.window = seconds
		}
	}
}

// WithExtensions overrides the accepted file extensions (".flac" by
// default). Comparison is case-insensitive.
func WithExtensions(exts ...string) Option {
	return func(o *identifyOptions) {
		o.extensions = exts
	}
}

// WithWorkers bounds IdentifyMany's concurrency. Zero uses the CPU count.
func WithWorkers(n int) Option {
	return func(o *identifyOptions) {
		o.workers = n
	}
}

// WithLogger routes diagnostic logs to logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *identifyOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
