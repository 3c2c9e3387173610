package scan

import (
	"slices"
	"strings"
	"sync"
)

// LedgerEntry groups the paths that failed for the same reason.
type LedgerEntry struct {
	Reason string   `json:"reason" yaml:"reason"`
	Paths  []string `json:"paths" yaml:"paths"`
}

// Ledger maps failure reasons to the paths that hit them. It is safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	reasons map[string][]string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{reasons: make(map[string][]string)}
}

// Add records path under reason. Paths keep insertion order per reason.
func (l *Ledger) Add(reason, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[reason] = append(l.reasons[reason], path)
}

// Entries returns a copy of the ledger with reasons sorted lexically.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]LedgerEntry, 0, len(l.reasons))
	for reason, paths := range l.reasons {
		entries = append(entries, LedgerEntry{Reason: reason, Paths: slices.Clone(paths)})
	}
	slices.SortFunc(entries, func(a, b LedgerEntry) int {
		return strings.Compare(a.Reason, b.Reason)
	})
	return entries
}
