// Package report renders the end-of-run failure report and summary table.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/mqaid/internal/scan"
)

// DefaultPath is where the report is written unless configured otherwise.
const DefaultPath = "mqa_identifier.log"

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// Document is the serialised form of a run.
type Document struct {
	RunID    string             `json:"run_id" yaml:"run_id"`
	Started  time.Time          `json:"started" yaml:"started"`
	Duration string             `json:"duration" yaml:"duration"`
	DryRun   bool               `json:"dry_run" yaml:"dry_run"`
	Scanned  uint64             `json:"scanned" yaml:"scanned"`
	Matched  uint64             `json:"matched" yaml:"matched"`
	Failed   uint64             `json:"failed" yaml:"failed"`
	Tagged   uint64             `json:"tagged" yaml:"tagged"`
	Errors   []scan.LedgerEntry `json:"errors" yaml:"errors"`
}

// NewDocument converts a summary.
func NewDocument(s scan.Summary) Document {
	errs := s.Errors
	if errs == nil {
		errs = []scan.LedgerEntry{}
	}
	return Document{
		RunID:    s.RunID,
		Started:  s.Started.UTC(),
		Duration: s.Duration.Round(time.Millisecond).String(),
		DryRun:   s.DryRun,
		Scanned:  s.Scanned,
		Matched:  s.Matched,
		Failed:   s.Failed,
		Tagged:   s.Tagged,
		Errors:   errs,
	}
}

// Write renders the report for s to w.
func Write(w io.Writer, format Format, s scan.Summary) error {
	switch format {
	case FormatText, "":
		return writeText(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(s))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(s)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile renders the report into path on fsys, replacing any previous
// report.
func WriteFile(fsys billy.Filesystem, path string, format Format, s scan.Summary) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, s); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := util.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func writeText(w io.Writer, s scan.Summary) error {
	var b strings.Builder
	b.WriteString("MQA Identifier Scan Log\n")
	b.WriteString("=======================\n\n")
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Started: %s\n\n", s.Started.UTC().Format(time.RFC3339))
	for _, e := range s.Errors {
		fmt.Fprintf(&b, "Reason: %s\n", e.Reason)
		for _, p := range e.Paths {
			fmt.Fprintf(&b, " - %s\n", p)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SummaryTable renders the run totals as a table.
func SummaryTable(s scan.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Scanned", "MQA", "Failed", "Tagged", "Data", "Time"})

	tagged := humanize.Comma(int64(s.Tagged))
	if s.DryRun {
		tagged = "dry run"
	}
	tw.AppendRow(table.Row{
		humanize.Comma(int64(s.Scanned)),
		humanize.Comma(int64(s.Matched)),
		humanize.Comma(int64(s.Failed)),
		tagged,
		humanize.Bytes(uint64(max(s.Bytes, 0))),
		s.Duration.Round(time.Millisecond).String(),
	})

	configs := make([]table.ColumnConfig, 0, 6)
	for i := 1; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
