package mqaid

import (
	"io"

	"github.com/simonhull/mqaid/internal/types"
)

// Format is the container format sniffed from a file header.
type Format = types.Format

// Re-export format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatFLAC    = types.FormatFLAC
	FormatMP3     = types.FormatMP3
	FormatOgg     = types.FormatOgg
	FormatWAV     = types.FormatWAV
	FormatAIFF    = types.FormatAIFF
	FormatMP4     = types.FormatMP4
)

// DetectFormat sniffs the container format of r.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}
