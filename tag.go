package mqaid

import (
	"github.com/simonhull/mqaid/internal/tagging"
)

// Tag keys written on files carrying a watermark.
const (
	TagEncoder            = tagging.TagEncoder
	TagOriginalSampleRate = tagging.TagOriginalSampleRate
)

// TagResult lists what Tag changed.
type TagResult = tagging.Result

// Tag writes the MQAENCODER and ORIGINALSAMPLERATE comments to a FLAC file.
//
// Existing keys are left untouched, so calling Tag twice is harmless. The
// rate tag is skipped when originalRate is zero. Metadata is rewritten in
// place when the file has enough padding, otherwise the file is rebuilt
// beside the original and renamed over it.
//
// Errors are *TaggingError.
func Tag(path string, originalRate uint32, opts ...TagOption) (TagResult, error) {
	options := defaultTagOptions()
	for _, opt := range opts {
		opt(options)
	}

	writerOpts := []tagging.Option{
		tagging.WithEncoderValue(options.encoderValue),
		tagging.WithDryRun(options.dryRun),
	}
	if options.verify {
		writerOpts = append(writerOpts, tagging.WithValidation())
	}
	return tagging.New(options.fs, writerOpts...).Apply(hostPath(options.host, path), originalRate)
}
