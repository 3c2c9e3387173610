package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.Tags.EncoderValue = strings.TrimSpace(c.Tags.EncoderValue)
	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.Report.Path, err = expandPath(strings.TrimSpace(c.Report.Path)); err != nil {
		return fmt.Errorf("report.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]bool, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []string{defaultExtension}
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeLogging() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}

	outputs := make([]string, 0, len(c.Logging.Outputs))
	for _, out := range c.Logging.Outputs {
		out = strings.TrimSpace(out)
		switch out {
		case "":
			continue
		case "stdout", "stderr":
		default:
			expanded, err := expandPath(out)
			if err != nil {
				return fmt.Errorf("logging.outputs: %w", err)
			}
			out = expanded
		}
		outputs = append(outputs, out)
	}
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	c.Logging.Outputs = outputs
	return nil
}
