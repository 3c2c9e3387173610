// Package types provides the core data structures shared by the detector,
// the decoders and the scan pipeline.
//
// This package defines StreamFormat, SamplePair, Source and DetectionResult,
// along with the typed errors every per-file failure is resolved into.
package types

import (
	"fmt"
	"iter"
)

// StreamFormat describes the PCM layout announced by a decoder before any
// samples are produced.
type StreamFormat struct {
	SampleRate    uint32
	Channels      uint32
	BitsPerSample uint32
}

// Supported reports whether watermark detection can run on this layout.
// Only 2-channel, 16- or 24-bit streams carry the watermark.
func (f StreamFormat) Supported() bool {
	return f.Channels == 2 && (f.BitsPerSample == 16 || f.BitsPerSample == 24)
}

// String returns a human-readable representation of the format.
// Example output: "44.1kHz 24-bit stereo".
func (f StreamFormat) String() string {
	channels := fmt.Sprintf("%dch", f.Channels)
	switch f.Channels {
	case 1:
		channels = "mono"
	case 2:
		channels = "stereo"
	}
	return fmt.Sprintf("%gkHz %d-bit %s", float64(f.SampleRate)/1000, f.BitsPerSample, channels)
}

// SamplePair is one decoded stereo sample, sign-extended to 32 bits.
type SamplePair struct {
	Left  int32
	Right int32
}

// Source is a pull-based sample stream for one file.
//
// Format is available as soon as the source is opened. Samples yields the
// decoded pairs in order and may be ranged over only once; a decode failure
// is yielded as a non-nil error after which iteration stops. Breaking out of
// the loop stops decoding.
type Source interface {
	Format() StreamFormat
	Samples() iter.Seq2[SamplePair, error]
	Close() error
}
