package config

import (
	"errors"
	"fmt"

	"github.com/simonhull/mqaid/internal/logging"
	"github.com/simonhull/mqaid/internal/report"
)

// Validate ensures the configuration contains usable values.
func (c *Config) Validate() error {
	var errs []error

	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must be >= 0, got %d", c.Scan.Workers))
	}
	if c.Scan.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("scan.max_workers must be positive, got %d", c.Scan.MaxWorkers))
	}
	if c.Scan.WindowSeconds < 1 || c.Scan.WindowSeconds > 60 {
		errs = append(errs, fmt.Errorf("scan.window_seconds must be between 1 and 60, got %d", c.Scan.WindowSeconds))
	}
	if c.Tags.EncoderValue == "" {
		errs = append(errs, errors.New("tags.encoder_value must not be empty"))
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		errs = append(errs, fmt.Errorf("report.format: %w", err))
	}
	if c.Report.Path == "" {
		errs = append(errs, errors.New("report.path must not be empty"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
