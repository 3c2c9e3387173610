package scan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/watermark"
)

// Printer writes per-file status lines. Each call emits whole lines under
// one lock so output from concurrent workers never interleaves mid-line.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool

	detected lipgloss.Style
	studio   lipgloss.Style
	negative lipgloss.Style
	failed   lipgloss.Style
	dryRun   lipgloss.Style
}

// NewPrinter returns a Printer writing to w. Colour is used only when
// color is true and w is a terminal.
func NewPrinter(w io.Writer, color bool) *Printer {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		colorize: color && IsTerminal(w),
		detected: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		studio:   r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		negative: r.NewStyle().Faint(true),
		failed:   r.NewStyle().Foreground(lipgloss.Color("1")),
		dryRun:   r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Status prints the outcome line for one file.
func (p *Printer) Status(o Outcome) {
	label, style := p.encoding(o)
	if p.colorize {
		label = style.Render(label)
	}
	line := fmt.Sprintf("%3d\t%s\t%s", o.Index, label, filepath.Base(o.Path))
	if o.Result.Failed() {
		line += "\t(" + types.Reason(o.Result.Err) + ")"
	}
	p.println(line)
}

// DryRun announces a tag write that was skipped.
func (p *Printer) DryRun(path string) {
	line := "DRY RUN: Would write tags to " + filepath.Base(path)
	if p.colorize {
		line = p.dryRun.Render(line)
	}
	p.println(line)
}

func (p *Printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line) //nolint:errcheck // Console output is best effort
}

func (p *Printer) encoding(o Outcome) (string, lipgloss.Style) {
	label := Encoding(o.Result)
	switch {
	case o.Result.Failed():
		return label, p.failed
	case !o.Result.Watermarked:
		return label, p.negative
	case o.Result.Studio:
		return label, p.studio
	default:
		return label, p.detected
	}
}

// Encoding returns the short encoding label for a detection result, e.g.
// "MQA Studio 96K", "MQA 44.1K", "MQA" when the rate is unknown, "NOT MQA"
// or "ERROR".
func Encoding(res types.DetectionResult) string {
	switch {
	case res.Failed():
		return "ERROR"
	case !res.Watermarked:
		return "NOT MQA"
	}
	label := "MQA"
	if res.Studio {
		label = "MQA Studio"
	}
	if res.OriginalSampleRate > 0 {
		label += " " + watermark.RateLabel(res.OriginalSampleRate)
	}
	return label
}
