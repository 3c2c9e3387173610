// Package detect runs watermark detection on one file at a time.
//
// A Detector opens the file through the registered decoder for its
// container, checks the stream layout, buffers the opening window of samples
// and hands them to the bit-plane scanner. Every outcome, including failures,
// is returned as a types.DetectionResult; nothing panics or escapes as an
// error value.
package detect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/mqaid/internal/logging"
	"github.com/simonhull/mqaid/internal/registry"
	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/watermark"
)

// DefaultWindowSeconds is how much audio is inspected from the start of a file.
const DefaultWindowSeconds = 3

// Option configures a Detector.
type Option func(*Detector)

// WithWindow sets how many seconds of audio are scanned.
func WithWindow(seconds uint32) Option {
	return func(d *Detector) {
		if seconds > 0 {
			d.windowSeconds = seconds
		}
	}
}

// WithExtensions overrides the accepted file extensions.
func WithExtensions(exts []string) Option {
	return func(d *Detector) {
		if len(exts) > 0 {
			d.extensions = exts
		}
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// Detector turns files into detection results. It is safe for concurrent use.
type Detector struct {
	fs            billy.Filesystem
	logger        *slog.Logger
	windowSeconds uint32
	extensions    []string
}

// New creates a Detector reading through fsys.
func New(fsys billy.Filesystem, opts ...Option) *Detector {
	d := &Detector{
		fs:            fsys,
		windowSeconds: DefaultWindowSeconds,
		extensions:    types.FormatFLAC.Extensions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.Component(d.logger, "detect")
	return d
}

// Detect validates path, opens it with the decoder registered for its
// container and scans it. It runs Validate, Open, ReadWindow and Scan in
// order; callers that track progress call those steps themselves.
func (d *Detector) Detect(ctx context.Context, path string) types.DetectionResult {
	format, err := d.Validate(path)
	if err != nil {
		return types.DetectionResult{Path: path, Err: err}
	}

	src, err := d.Open(path, format)
	if err != nil {
		return types.DetectionResult{Path: path, Err: err}
	}
	defer src.Close() //nolint:errcheck // Read-only source

	return d.DetectSource(ctx, path, src)
}

// DetectSource scans an already opened source. The caller keeps ownership
// of src.
func (d *Detector) DetectSource(ctx context.Context, path string, src types.Source) types.DetectionResult {
	samples, err := d.ReadWindow(ctx, path, src)
	if err != nil {
		return types.DetectionResult{Path: path, Format: src.Format(), Err: err}
	}
	return d.Scan(ctx, path, src.Format(), samples)
}

// Validate runs the pre-decode checks on path with the detector's
// extensions. Errors are *types.ValidationError.
func (d *Detector) Validate(path string) (types.Format, error) {
	return Validate(d.fs, path, d.extensions)
}

// Open returns a source from the decoder registered for format.
func (d *Detector) Open(path string, format types.Format) (types.Source, error) {
	dec := registry.Get(format)
	if dec == nil {
		return nil, &types.ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("No decoder for %s files", format),
		}
	}

	src, err := dec.Open(d.fs, path)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Stage: types.DecodeStageOpen, Err: err}
	}
	return src, nil
}

// ReadWindow checks the stream layout and decodes the opening window of
// samples. Errors are *types.UnsupportedFormatError or *types.DecodeError.
func (d *Detector) ReadWindow(ctx context.Context, path string, src types.Source) ([]types.SamplePair, error) {
	format := src.Format()
	if !format.Supported() {
		return nil, &types.UnsupportedFormatError{
			Path:          path,
			Channels:      format.Channels,
			BitsPerSample: format.BitsPerSample,
		}
	}

	logger := logging.WithContext(ctx, d.logger).With(slog.String(logging.FieldPath, path))

	window := uint64(format.SampleRate) * uint64(d.windowSeconds)
	samples := make([]types.SamplePair, 0, window)
	if window == 0 {
		return samples, nil
	}
	for p, err := range src.Samples() {
		if err != nil {
			logger.Debug("decode failed", "error", err, "decoded", len(samples))
			return nil, &types.DecodeError{Path: path, Stage: types.DecodeStageFrames, Err: err}
		}
		samples = append(samples, p)
		if uint64(len(samples)) >= window {
			break
		}
	}
	logger.Debug("window decoded", "samples", len(samples), "format", format.String())
	return samples, nil
}

// Scan searches samples for the watermark and decodes its payload.
func (d *Detector) Scan(ctx context.Context, path string, format types.StreamFormat, samples []types.SamplePair) types.DetectionResult {
	logger := logging.WithContext(ctx, d.logger).With(slog.String(logging.FieldPath, path))
	res := types.DetectionResult{Path: path, Format: format}

	match, payload, ok := watermark.NewScanner(format.BitsPerSample).Scan(samples)
	if !ok {
		return res
	}
	res.Match = &match

	if !payload.Complete {
		logger.Debug("watermark payload truncated", "sample_index", match.SampleIndex)
		res.Watermarked = true
		return res
	}

	rate, err := watermark.DecodeOriginalRate(payload.RateCode)
	if err != nil {
		logger.Error("rate code out of range", logging.FieldDefect, true, "error", err)
		res.Err = err
		return res
	}

	res.Watermarked = true
	res.OriginalSampleRate = rate
	res.Studio = watermark.DecodeProvenance(payload.Provenance)
	return res
}
