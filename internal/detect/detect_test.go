package detect

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/simonhull/mqaid/internal/flac"
	"github.com/simonhull/mqaid/internal/flac/flactest"
	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/watermark/watermarktest"
)

// fakeSource serves samples from memory and records how many were pulled.
type fakeSource struct {
	format  types.StreamFormat
	samples []types.SamplePair
	err     error
	errAt   int
	pulled  int
}

func (f *fakeSource) Format() types.StreamFormat { return f.format }

func (f *fakeSource) Samples() iter.Seq2[types.SamplePair, error] {
	return func(yield func(types.SamplePair, error) bool) {
		for i, p := range f.samples {
			if f.err != nil && i == f.errAt {
				yield(types.SamplePair{}, f.err)
				return
			}
			f.pulled++
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) Close() error { return nil }

func stereo(rate, bps uint32) types.StreamFormat {
	return types.StreamFormat{SampleRate: rate, Channels: 2, BitsPerSample: bps}
}

func TestDetectSource_UnsupportedFormat(t *testing.T) {
	tests := []struct {
		name   string
		format types.StreamFormat
	}{
		{name: "mono", format: types.StreamFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}},
		{name: "32-bit", format: stereo(44100, 32)},
		{name: "surround", format: types.StreamFormat{SampleRate: 48000, Channels: 6, BitsPerSample: 24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := watermarktest.Carrier(1000)
			watermarktest.Plant(samples, watermarktest.Mark{Start: 10})
			src := &fakeSource{format: tt.format, samples: samples}

			res := New(memfs.New()).DetectSource(context.Background(), "a.flac", src)

			assert.Equal(t, types.KindUnsupportedFormat, types.KindOf(res.Err))
			assert.False(t, res.Watermarked)
			assert.Zero(t, src.pulled, "no samples may be consumed for unsupported layouts")
		})
	}
}

func TestDetectSource_NoWatermark(t *testing.T) {
	src := &fakeSource{format: stereo(1000, 16), samples: watermarktest.Carrier(5000)}

	res := New(memfs.New()).DetectSource(context.Background(), "a.flac", src)

	require.NoError(t, res.Err)
	assert.False(t, res.Watermarked)
	assert.Nil(t, res.Match)
	assert.Equal(t, 3000, src.pulled, "only the first three seconds are read")
}

func TestDetectSource_Watermark(t *testing.T) {
	for _, bps := range []uint32{16, 24} {
		samples := watermarktest.Carrier(2000)
		at := watermarktest.Plant(samples, watermarktest.Mark{
			Start:      100,
			Bit:        uint(bps-16) + 2,
			RateCode:   0b1001,
			Provenance: 12,
		})
		src := &fakeSource{format: stereo(44100, bps), samples: samples}

		res := New(memfs.New()).DetectSource(context.Background(), "a.flac", src)

		require.NoError(t, res.Err)
		assert.True(t, res.Watermarked)
		assert.True(t, res.Studio)
		assert.Equal(t, uint32(96000), res.OriginalSampleRate)
		require.NotNil(t, res.Match)
		assert.Equal(t, uint(2), res.Match.BitOffset)
		assert.Equal(t, uint64(at), res.Match.SampleIndex)
	}
}

func TestDetectSource_Window(t *testing.T) {
	samples := watermarktest.Carrier(5000)
	watermarktest.Plant(samples, watermarktest.Mark{Start: 3100})

	res := New(memfs.New()).DetectSource(context.Background(), "a.flac",
		&fakeSource{format: stereo(1000, 16), samples: samples})
	assert.False(t, res.Watermarked, "sync word after the default window must not be found")

	res = New(memfs.New(), WithWindow(4)).DetectSource(context.Background(), "a.flac",
		&fakeSource{format: stereo(1000, 16), samples: samples})
	assert.True(t, res.Watermarked)
}

func TestDetectSource_TruncatedPayload(t *testing.T) {
	// Window of 3000 samples; sync word completes 10 samples before its end.
	samples := watermarktest.Carrier(5000)
	watermarktest.Plant(samples, watermarktest.Mark{Start: 3000 - 10 - 36, RateCode: 0b1111, Provenance: 31})

	res := New(memfs.New()).DetectSource(context.Background(), "a.flac",
		&fakeSource{format: stereo(1000, 16), samples: samples})

	require.NoError(t, res.Err)
	assert.True(t, res.Watermarked)
	assert.Zero(t, res.OriginalSampleRate)
	assert.False(t, res.Studio)
}

func TestDetectSource_DecodeError(t *testing.T) {
	samples := watermarktest.Carrier(5000)
	watermarktest.Plant(samples, watermarktest.Mark{Start: 10})
	boom := errors.New("crc mismatch")

	res := New(memfs.New()).DetectSource(context.Background(), "a.flac",
		&fakeSource{format: stereo(44100, 16), samples: samples, err: boom, errAt: 20})

	assert.Equal(t, types.KindDecode, types.KindOf(res.Err))
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.Watermarked)
	assert.Equal(t, "Decoding failed: crc mismatch", types.Reason(res.Err))
}

func TestDetectSource_ZeroSampleRate(t *testing.T) {
	samples := watermarktest.Carrier(500)
	watermarktest.Plant(samples, watermarktest.Mark{Start: 10})
	src := &fakeSource{format: stereo(0, 16), samples: samples}

	res := New(memfs.New()).DetectSource(context.Background(), "a.flac", src)

	require.NoError(t, res.Err)
	assert.False(t, res.Watermarked)
	assert.Zero(t, src.pulled)
}

func TestDetect_FLACFile(t *testing.T) {
	samples := watermarktest.Carrier(20000)
	watermarktest.Plant(samples, watermarktest.Mark{Start: 4000, Bit: 9, RateCode: 0b0101, Provenance: 3})
	left, right := watermarktest.Split(samples)

	fsys := memfs.New()
	data := flactest.MustBuild(flactest.Stereo(44100, 24, left, right))
	require.NoError(t, util.WriteFile(fsys, "/music/album/01.flac", data, 0o644))

	res := New(fsys).Detect(context.Background(), "/music/album/01.flac")

	require.NoError(t, res.Err)
	assert.True(t, res.Watermarked)
	assert.False(t, res.Studio)
	assert.Equal(t, uint32(192000), res.OriginalSampleRate)
	assert.Equal(t, stereo(44100, 24), res.Format)
	require.NotNil(t, res.Match)
	assert.Equal(t, uint(1), res.Match.BitOffset)
}

func TestDetect_FLACFileWithoutWatermark(t *testing.T) {
	left, right := watermarktest.Split(watermarktest.Carrier(10000))

	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "/a.flac", flactest.MustBuild(flactest.Stereo(48000, 16, left, right)), 0o644))

	res := New(fsys).Detect(context.Background(), "/a.flac")

	require.NoError(t, res.Err)
	assert.False(t, res.Watermarked)
}

func TestDetect_ValidationFailure(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "/notes.flac", []byte("just some text"), 0o644))

	res := New(fsys).Detect(context.Background(), "/notes.flac")
	assert.Equal(t, types.KindValidation, types.KindOf(res.Err))

	res = New(fsys).Detect(context.Background(), "/missing.flac")
	assert.Equal(t, "Path does not exist", types.Reason(res.Err))
}
