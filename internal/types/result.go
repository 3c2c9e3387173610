package types

// Match identifies where the synchronization word was found.
type Match struct {
	// BitOffset is 0, 1 or 2 above the stream's base bit position.
	BitOffset uint
	// SampleIndex is the index of the sample that completed the word.
	SampleIndex uint64
}

// DetectionResult is the outcome of scanning one file.
//
// A result without a watermark and without an error is a normal negative
// outcome. Err is set only for failures and Watermarked is false then; Match
// may still be populated when the failure happened after the sync word.
type DetectionResult struct {
	Path               string
	Format             StreamFormat
	Match              *Match
	Err                error
	OriginalSampleRate uint32 // 0 if unknown
	Watermarked        bool
	Studio             bool
}

// ErrorMessage returns the failure text, or "" for a clean result.
func (r DetectionResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Failed reports whether detection ended in an error.
func (r DetectionResult) Failed() bool {
	return r.Err != nil
}
