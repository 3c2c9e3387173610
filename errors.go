package mqaid

import (
	"github.com/simonhull/mqaid/internal/types"
)

// ValidationError is returned when a path fails the pre-decode checks.
type ValidationError = types.ValidationError

// UnsupportedFormatError is returned for streams that are not stereo 16 or
// 24 bit PCM.
type UnsupportedFormatError = types.UnsupportedFormatError

// DecodeError wraps a failure from the FLAC decoder.
type DecodeError = types.DecodeError

// InvalidBytecodeError signals an internal scanner defect.
type InvalidBytecodeError = types.InvalidBytecodeError

// TaggingError is returned by Tag.
type TaggingError = types.TaggingError

// UnknownError carries a recovered panic.
type UnknownError = types.UnknownError

// Reason returns the path-free description of err used to group failures.
func Reason(err error) string {
	return types.Reason(err)
}
