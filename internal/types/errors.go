package types

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a per-file failure.
type Kind int

const (
	// KindNone is a clean result.
	KindNone Kind = iota
	// KindValidation covers missing paths, bad headers and wrong extensions.
	KindValidation
	// KindUnsupportedFormat covers wrong channel counts and bit depths.
	KindUnsupportedFormat
	// KindDecode covers codec-layer failures.
	KindDecode
	// KindInvalidBytecode signals an out-of-range rate code; a defect.
	KindInvalidBytecode
	// KindTagging covers tag persistence failures.
	KindTagging
	// KindUnknown is the catch-all for unanticipated faults.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindDecode:
		return "decode"
	case KindInvalidBytecode:
		return "invalid_bytecode"
	case KindTagging:
		return "tagging"
	default:
		return "unknown"
	}
}

// ValidationError is returned when a path fails the pre-decode checks.
type ValidationError struct {
	Err    error
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UnsupportedFormatError is returned when a stream is not 2-channel 16/24-bit.
type UnsupportedFormatError struct {
	Path          string
	Channels      uint32
	BitsPerSample uint32
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %d channels, %d bits", e.Path, e.Channels, e.BitsPerSample)
}

// DecodeStage names where in the codec layer a DecodeError happened.
type DecodeStage string

const (
	// DecodeStageOpen covers opening the file and parsing the stream header.
	DecodeStageOpen DecodeStage = "open"
	// DecodeStageFrames covers decoding audio frames.
	DecodeStageFrames DecodeStage = "frames"
)

// DecodeError wraps a failure reported by the codec layer.
type DecodeError struct {
	Err   error
	Path  string
	Stage DecodeStage
}

// reason describes the failure without naming the file, so the same fault
// on many files groups under one report entry.
func (e *DecodeError) reason() string {
	cause := "unknown cause"
	if e.Err != nil {
		cause = e.Err.Error()
		var pathErr *fs.PathError
		if errors.As(e.Err, &pathErr) {
			cause = pathErr.Err.Error()
		}
	}
	if e.Stage == DecodeStageOpen {
		return "Decoding failed: could not open stream: " + cause
	}
	return "Decoding failed: " + cause
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode failed: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidBytecodeError is returned for an original-rate code outside 0..15.
type InvalidBytecodeError struct {
	Code uint8
}

func (e *InvalidBytecodeError) Error() string {
	return fmt.Sprintf("invalid bytecode 0x%x (expected 4 bits)", e.Code)
}

// TaggingError is returned when findings could not be persisted as tags.
type TaggingError struct {
	Err    error
	Path   string
	Reason string
}

func (e *TaggingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: tagging failed: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: tagging failed: %s", e.Path, e.Reason)
}

func (e *TaggingError) Unwrap() error { return e.Err }

// UnknownError carries a fault recovered at a task boundary.
type UnknownError struct {
	Value any
	Path  string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s: unexpected error: %v", e.Path, e.Value)
}

// KindOf classifies err. A nil error is KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		validation  *ValidationError
		unsupported *UnsupportedFormatError
		decode      *DecodeError
		bytecode    *InvalidBytecodeError
		tagging     *TaggingError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &unsupported):
		return KindUnsupportedFormat
	case errors.As(err, &bytecode):
		return KindInvalidBytecode
	case errors.As(err, &decode):
		return KindDecode
	case errors.As(err, &tagging):
		return KindTagging
	default:
		return KindUnknown
	}
}

// Reason returns the path-free, human-readable text used to group failures
// in the end-of-run report.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation  *ValidationError
		unsupported *UnsupportedFormatError
		decode      *DecodeError
		bytecode    *InvalidBytecodeError
		tagging     *TaggingError
		unknown     *UnknownError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Reason
	case errors.As(err, &unsupported):
		return fmt.Sprintf("Unsupported Audio Format: %d channels, %d bits", unsupported.Channels, unsupported.BitsPerSample)
	case errors.As(err, &bytecode):
		return "Internal error: " + bytecode.Error()
	case errors.As(err, &decode):
		return decode.reason()
	case errors.As(err, &tagging):
		if tagging.Err != nil {
			return fmt.Sprintf("Tagging error: %s: %v", tagging.Reason, tagging.Err)
		}
		return "Tagging error: " + tagging.Reason
	case errors.As(err, &unknown):
		return fmt.Sprintf("Unknown error: %v", unknown.Value)
	default:
		return err.Error()
	}
}
