package flac

import (
	"bytes"
	"strings"
	"testing"

	"github.com/simonhull/mqaid/internal/flac/flactest"
)

// ramp returns n samples counting up from start.
func ramp(n int, start int32) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = start + int32(i)
	}
	return s
}

func testStream(n int) flactest.Stream {
	return flactest.Stereo(44100, 16, ramp(n, 0), ramp(n, -100))
}

func TestReadMetadata(t *testing.T) {
	s := testStream(1000)
	s.Application = []byte{1, 2, 3}
	s.Comments = []string{"TITLE=Test Song", "ARTIST=Test Artist"}
	s.Vendor = "flactest"
	s.Padding = 512
	data := flactest.MustBuild(s)

	md, err := ReadMetadata(bytes.NewReader(data), int64(len(data)), "test.flac")
	if err != nil {
		t.Fatalf("ReadMetadata() unexpected error: %v", err)
	}

	f := md.StreamInfo.Format
	if f.SampleRate != 44100 || f.Channels != 2 || f.BitsPerSample != 16 {
		t.Errorf("StreamInfo.Format = %+v", f)
	}
	if md.StreamInfo.TotalSamples != 1000 {
		t.Errorf("TotalSamples = %d, want 1000", md.StreamInfo.TotalSamples)
	}

	wantTypes := []uint8{blockTypeStreamInfo, 2, blockTypeVorbisComment, blockTypePadding}
	if len(md.Blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d", len(md.Blocks), len(wantTypes))
	}
	for i, b := range md.Blocks {
		if b.Type != wantTypes[i] {
			t.Errorf("block %d type = %d, want %d", i, b.Type, wantTypes[i])
		}
	}

	if md.Comments == nil || md.Comments.Vendor != "flactest" {
		t.Fatalf("Comments = %+v", md.Comments)
	}
	if v, _ := md.Comments.Get("artist"); v != "Test Artist" {
		t.Errorf("ARTIST = %q", v)
	}

	if data[md.AudioOffset] != 0xFF || data[md.AudioOffset+1] != 0xF8 {
		t.Errorf("AudioOffset %d does not point at a frame sync code", md.AudioOffset)
	}
}

func TestReadMetadata_NoComments(t *testing.T) {
	data := flactest.MustBuild(testStream(100))

	md, err := ReadMetadata(bytes.NewReader(data), int64(len(data)), "test.flac")
	if err != nil {
		t.Fatalf("ReadMetadata() unexpected error: %v", err)
	}
	if md.Comments != nil {
		t.Errorf("Comments = %+v, want nil", md.Comments)
	}
	if md.AudioOffset != 4+4+34 {
		t.Errorf("AudioOffset = %d, want %d", md.AudioOffset, 4+4+34)
	}
}

func TestReadMetadata_Invalid(t *testing.T) {
	valid := flactest.MustBuild(testStream(100))

	notStreamInfo := bytes.Clone(valid)
	notStreamInfo[4] = 0x01 // PADDING first

	invalidType := bytes.Clone(valid)
	invalidType[4] = 0x7F

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "bad magic", data: []byte("OggS\x00\x00\x00\x00"), want: "invalid FLAC magic"},
		{name: "truncated header", data: []byte("fLaC\x80\x00"), want: "metadata block header"},
		{name: "first block not streaminfo", data: notStreamInfo, want: "not STREAMINFO"},
		{name: "invalid block type", data: invalidType, want: "invalid metadata block type"},
		{name: "block overruns file", data: valid[:20], want: "overruns file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMetadata(bytes.NewReader(tt.data), int64(len(tt.data)), "test.flac")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}
