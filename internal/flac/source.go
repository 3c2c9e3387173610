// Package flac decodes FLAC streams into sample pairs and edits their
// Vorbis comment metadata.
package flac

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/go-git/go-billy/v5"
	mflac "github.com/mewkiz/flac"

	"github.com/simonhull/mqaid/internal/registry"
	"github.com/simonhull/mqaid/internal/types"
)

// decoder implements registry.Decoder on top of github.com/mewkiz/flac.
type decoder struct{}

// Open parses the stream header of the file at path and returns a source
// positioned at the first frame.
func (decoder) Open(fsys billy.Filesystem, path string) (types.Source, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stream, err := mflac.New(bufio.NewReader(f))
	if err != nil {
		_ = f.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("parse stream header: %w", err)
	}

	return &source{
		file:   f,
		stream: stream,
		format: types.StreamFormat{
			SampleRate:    stream.Info.SampleRate,
			Channels:      uint32(stream.Info.NChannels),
			BitsPerSample: uint32(stream.Info.BitsPerSample),
		},
	}, nil
}

// source adapts a frame-oriented stream to per-sample pull iteration.
type source struct {
	file   billy.File
	stream *mflac.Stream
	format types.StreamFormat
	used   bool
}

func (s *source) Format() types.StreamFormat {
	return s.format
}

// Samples yields decoded stereo pairs frame by frame. Only the first two
// channels are read; callers check Format before iterating.
func (s *source) Samples() iter.Seq2[types.SamplePair, error] {
	return func(yield func(types.SamplePair, error) bool) {
		if s.used {
			yield(types.SamplePair{}, errors.New("sample stream already consumed"))
			return
		}
		s.used = true

		for {
			frame, err := s.stream.ParseNext()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(types.SamplePair{}, err)
				return
			}
			if len(frame.Subframes) < 2 {
				yield(types.SamplePair{}, fmt.Errorf("frame %d has %d channels", frame.Num, len(frame.Subframes)))
				return
			}

			left, right := frame.Subframes[0].Samples, frame.Subframes[1].Samples
			for i := range min(len(left), len(right)) {
				if !yield(types.SamplePair{Left: left[i], Right: right[i]}, nil) {
					return
				}
			}
		}
	}
}

func (s *source) Close() error {
	return s.file.Close()
}

// init registers the FLAC decoder and comment editor
func init() {
	registry.Register(types.FormatFLAC, decoder{})
	registry.RegisterEditor(types.FormatFLAC, editor{})
}
