package types

import (
	"bytes"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{name: "flac", data: []byte("fLaC\x00\x00\x00\x22"), want: FormatFLAC},
		{name: "id3", data: []byte("ID3\x04\x00\x00\x00\x00"), want: FormatMP3},
		{name: "mp3 frame sync", data: []byte{0xFF, 0xFB, 0x90, 0x00}, want: FormatMP3},
		{name: "ogg", data: []byte("OggS\x00\x02\x00\x00"), want: FormatOgg},
		{name: "wav", data: []byte("RIFF\x24\x00\x00\x00WAVEfmt "), want: FormatWAV},
		{name: "aiff", data: []byte("FORM\x00\x00\x00\x00AIFF"), want: FormatAIFF},
		{name: "aifc", data: []byte("FORM\x00\x00\x00\x00AIFC"), want: FormatAIFF},
		{name: "m4a", data: []byte("\x00\x00\x00\x1cftypM4A "), want: FormatMP4},
		{name: "text", data: []byte("hello world"), want: FormatUnknown},
		{name: "too small", data: []byte("fL"), want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(bytes.NewReader(tt.data), int64(len(tt.data)), "test.bin")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat_Extensions(t *testing.T) {
	if exts := FormatFLAC.Extensions(); len(exts) != 1 || exts[0] != ".flac" {
		t.Errorf("FormatFLAC.Extensions() = %v", exts)
	}
	if exts := FormatUnknown.Extensions(); exts != nil {
		t.Errorf("FormatUnknown.Extensions() = %v, want nil", exts)
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".flac"}

	tests := []struct {
		path string
		want bool
	}{
		{"album/01.flac", true},
		{"album/01.FLAC", true},
		{"album/01.Flac", true},
		{"album/01.mp3", false},
		{"album/flac", false},
		{"album/01.flac.bak", false},
	}

	for _, tt := range tests {
		if got := HasExtension(tt.path, exts); got != tt.want {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
