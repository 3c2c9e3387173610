package scan

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Counters are the per-run tallies. Each field is updated independently.
type Counters struct {
	Scanned atomic.Uint64
	Matched atomic.Uint64
	Failed  atomic.Uint64
	Tagged  atomic.Uint64
	Bytes   atomic.Int64
}

// Run is the state shared by the workers of one batch. It is created by
// Orchestrator.Run and dropped once the Summary has been taken.
type Run struct {
	ID       string
	Started  time.Time
	DryRun   bool
	Counters Counters
	Ledger   *Ledger
	Printer  *Printer

	admitted atomic.Int64
}

func newRun(printer *Printer, dryRun bool) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Started: time.Now(),
		DryRun:  dryRun,
		Ledger:  NewLedger(),
		Printer: printer,
	}
}

// nextIndex numbers tasks in admission order, starting at 1.
func (r *Run) nextIndex() int {
	return int(r.admitted.Add(1))
}

// Summary is a snapshot of a finished run.
type Summary struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	DryRun   bool          `json:"dry_run" yaml:"dry_run"`
	Scanned  uint64        `json:"scanned" yaml:"scanned"`
	Matched  uint64        `json:"matched" yaml:"matched"`
	Failed   uint64        `json:"failed" yaml:"failed"`
	Tagged   uint64        `json:"tagged" yaml:"tagged"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Errors   []LedgerEntry `json:"errors" yaml:"errors"`
}

// summary must only be called after every worker has returned.
func (r *Run) summary() Summary {
	return Summary{
		RunID:    r.ID,
		Started:  r.Started,
		Duration: time.Since(r.Started),
		DryRun:   r.DryRun,
		Scanned:  r.Counters.Scanned.Load(),
		Matched:  r.Counters.Matched.Load(),
		Failed:   r.Counters.Failed.Load(),
		Tagged:   r.Counters.Tagged.Load(),
		Bytes:    r.Counters.Bytes.Load(),
		Errors:   r.Ledger.Entries(),
	}
}
