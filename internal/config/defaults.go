package config

import (
	"path/filepath"

	"github.com/simonhull/mqaid/internal/detect"
	"github.com/simonhull/mqaid/internal/history"
	"github.com/simonhull/mqaid/internal/report"
	"github.com/simonhull/mqaid/internal/scan"
	"github.com/simonhull/mqaid/internal/tagging"
)

const (
	defaultStateDir   = "~/.local/state/mqaid"
	defaultLogLevel   = "warn"
	defaultLogFormat  = "console"
	defaultExtension  = ".flac"
	defaultReportKind = string(report.FormatText)
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			MaxWorkers:    scan.DefaultMaxWorkers,
			WindowSeconds: detect.DefaultWindowSeconds,
			Extensions:    []string{defaultExtension},
		},
		Tags: Tags{
			EncoderValue: tagging.DefaultEncoderValue,
		},
		Report: Report{
			Path:   report.DefaultPath,
			Format: defaultReportKind,
		},
		Logging: Logging{
			Level:   defaultLogLevel,
			Format:  defaultLogFormat,
			Outputs: []string{"stderr"},
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
	}
}

// HistoryPath returns the database location, defaulting into the state
// directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, history.DefaultFile)
}
