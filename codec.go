package mqaid

import (
	"github.com/simonhull/mqaid/internal/watermark"
)

// DecodeOriginalRate maps a 4-bit rate code from the watermark payload to a
// sample rate in Hz.
func DecodeOriginalRate(code uint8) (uint32, error) {
	return watermark.DecodeOriginalRate(code)
}

// DecodeProvenance reports whether a provenance value marks a studio master.
func DecodeProvenance(value uint8) bool {
	return watermark.DecodeProvenance(value)
}

// RateLabel formats a sample rate as "96K", "DSD128" or "DSD64x48".
func RateLabel(hz uint32) string {
	return watermark.RateLabel(hz)
}
