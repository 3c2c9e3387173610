package scan

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mqaid/internal/types"
)

func TestLedger_Ordering(t *testing.T) {
	l := NewLedger()
	l.Add("Permission denied", "/b")
	l.Add("Decoding failed: EOF", "/z")
	l.Add("Permission denied", "/a")

	assert.Equal(t, []LedgerEntry{
		{Reason: "Decoding failed: EOF", Paths: []string{"/z"}},
		{Reason: "Permission denied", Paths: []string{"/b", "/a"}},
	}, l.Entries())
}

func TestLedger_EntriesAreCopies(t *testing.T) {
	l := NewLedger()
	l.Add("r", "/a")
	entries := l.Entries()
	entries[0].Paths[0] = "/changed"

	assert.Equal(t, "/a", l.Entries()[0].Paths[0])
}

func TestLedger_Concurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				l.Add(fmt.Sprintf("reason %d", i%4), fmt.Sprintf("/w%d/%d", w, i))
			}
		}()
	}
	wg.Wait()

	entries := l.Entries()
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Len(t, e.Paths, 200)
	}
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		res  types.DetectionResult
		want string
	}{
		{res: types.DetectionResult{Watermarked: true, Studio: true, OriginalSampleRate: 96000}, want: "MQA Studio 96K"},
		{res: types.DetectionResult{Watermarked: true, OriginalSampleRate: 44100}, want: "MQA 44.1K"},
		{res: types.DetectionResult{Watermarked: true, OriginalSampleRate: 5644800}, want: "MQA DSD128"},
		{res: types.DetectionResult{Watermarked: true}, want: "MQA"},
		{res: types.DetectionResult{}, want: "NOT MQA"},
		{res: types.DetectionResult{Err: &types.DecodeError{Path: "x"}}, want: "ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Encoding(tt.res))
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateNotDetected.Terminal())
	assert.False(t, StateDetected.Terminal())
	assert.False(t, StateTagging.Terminal())
	assert.True(t, StateTagging.Positive())
	assert.Equal(t, "not_detected", StateNotDetected.String())
}
