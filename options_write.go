package mqaid

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/simonhull/mqaid/internal/tagging"
)

// TagOption configures Tag.
//
// Example:
//
//	res, err := mqaid.Tag("song.flac", 96000,
//	    mqaid.WithDryRun(),
//	    mqaid.WithVerify(),
//	)
type TagOption func(*tagOptions)

type tagOptions struct {
	fs           billy.Filesystem
	host         bool
	encoderValue string
	dryRun       bool
	verify       bool
}

func defaultTagOptions() *tagOptions {
	return &tagOptions{
		fs:           osfs.New("/"),
		host:         true,
		encoderValue: tagging.DefaultEncoderValue,
	}
}

// WithTagFilesystem writes inside fsys instead of the host filesystem.
func WithTagFilesystem(fsys billy.Filesystem) TagOption {
	return func(o *tagOptions) {
		if fsys != nil {
			o.fs = fsys
			o.host = false
		}
	}
}

// WithEncoderValue replaces the value written to the MQAENCODER tag.
func WithEncoderValue(value string) TagOption {
	return func(o *tagOptions) {
		if value != "" {
			o.encoderValue = value
		}
	}
}

// WithDryRun reports success without touching the file.
func WithDryRun() TagOption {
	return func(o *tagOptions) {
		o.dryRun = true
	}
}

// WithVerify re-reads the comment block after writing and fails if a tag
// did not persist.
func WithVerify() TagOption {
	return func(o *tagOptions) {
		o.verify = true
	}
}
