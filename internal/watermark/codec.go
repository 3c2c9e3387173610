// Package watermark recovers the MQA synchronization word and payload from
// the least-significant bit-planes of a stereo difference signal.
//
// The package is pure: it operates on decoded sample pairs and never touches
// files or decoders. See Scanner for the detection loop and
// DecodeOriginalRate/DecodeProvenance for the payload fields.
package watermark

import (
	"strconv"

	"github.com/simonhull/mqaid/internal/types"
)

// SyncWord is the 36-bit synchronization constant that marks a watermark.
const SyncWord uint64 = 0xBE0498C88

const (
	syncBits = 36
	syncMask = 1<<syncBits - 1
)

// rateTable holds the decoded original sample rate for every 4-bit code.
var rateTable = func() [16]uint32 {
	var t [16]uint32
	for c := range uint32(16) {
		base := uint32(44100)
		if c&1 != 0 {
			base = 48000
		}

		// The three high bits are a bit-reversed exponent.
		exp := (c>>3)&1 | ((c>>2)&1)<<1 | ((c>>1)&1)<<2
		mult := uint32(1) << exp
		if mult > 16 {
			mult *= 2
		}

		t[c] = base * mult
	}
	return t
}()

// DecodeOriginalRate maps a 4-bit rate code to the pre-folding sample rate
// in Hz. Codes above 15 return an *types.InvalidBytecodeError.
func DecodeOriginalRate(code uint8) (uint32, error) {
	if code > 0b1111 {
		return 0, &types.InvalidBytecodeError{Code: code}
	}
	return rateTable[code], nil
}

// DecodeProvenance reports whether a 5-bit provenance field denotes a
// studio-authenticated master.
func DecodeProvenance(value uint8) bool {
	return value > 8
}

// RateLabel renders a sample rate the way the status line shows it:
// "44.1K" and "192K" up to 768 kHz, then DSD multiples such as "DSD256"
// or "DSD128x48" for the 48 kHz family.
func RateLabel(hz uint32) string {
	switch {
	case hz <= 768000:
		return strconv.FormatFloat(float64(hz)/1000, 'g', -1, 64) + "K"
	case hz%44100 == 0:
		return "DSD" + strconv.FormatUint(uint64(hz/44100), 10)
	default:
		return "DSD" + strconv.FormatUint(uint64(hz/48000), 10) + "x48"
	}
}
