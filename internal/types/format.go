package types

import (
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/simonhull/mqaid/internal/binary"
)

// Format represents the detected container format
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatFLAC represents native FLAC streams, the only scannable container.
	FormatFLAC
	// FormatMP3 represents MP3 audio files.
	FormatMP3
	// FormatOgg represents Ogg-encapsulated audio (Vorbis, Opus, Ogg FLAC).
	FormatOgg
	// FormatWAV represents RIFF/WAVE files.
	FormatWAV
	// FormatAIFF represents AIFF/AIFC files.
	FormatAIFF
	// FormatMP4 represents ISO base media files (M4A, ALAC).
	FormatMP4
)

func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "FLAC"
	case FormatMP3:
		return "MP3"
	case FormatOgg:
		return "Ogg"
	case FormatWAV:
		return "WAV"
	case FormatAIFF:
		return "AIFF"
	case FormatMP4:
		return "MP4"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatFLAC:
		return []string{".flac"}
	case FormatMP3:
		return []string{".mp3"}
	case FormatOgg:
		return []string{".ogg", ".oga", ".opus"}
	case FormatWAV:
		return []string{".wav"}
	case FormatAIFF:
		return []string{".aiff", ".aif"}
	case FormatMP4:
		return []string{".m4a", ".mp4"}
	default:
		return nil
	}
}

// HasExtension reports whether path carries one of exts, compared
// case-insensitively.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// signature is a magic byte sequence at a fixed offset.
type signature struct {
	format Format
	offset int64
	magic  string
}

// signatures are checked in order; the first match wins.
var signatures = []signature{
	{format: FormatFLAC, offset: 0, magic: "fLaC"},
	{format: FormatMP3, offset: 0, magic: "ID3"},
	{format: FormatOgg, offset: 0, magic: "OggS"},
	{format: FormatWAV, offset: 8, magic: "WAVE"},
	{format: FormatAIFF, offset: 8, magic: "AIFF"},
	{format: FormatAIFF, offset: 8, magic: "AIFC"},
	{format: FormatMP4, offset: 4, magic: "ftyp"},
}

// DetectFormat determines the container format by examining magic bytes.
//
// Detection is based on file signatures at the beginning of the file and does
// not validate the rest of the structure. Files that match no signature
// return FormatUnknown and a nil error; only read failures are errors.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return FormatUnknown, nil
	}

	head := make([]byte, min(size, 12))
	sr := binary.NewSafeReader(r, size, path)
	if err := sr.ReadAt(head, 0, "file magic bytes"); err != nil {
		return FormatUnknown, err
	}

	for _, sig := range signatures {
		end := sig.offset + int64(len(sig.magic))
		if end > int64(len(head)) {
			continue
		}
		if string(head[sig.offset:end]) == sig.magic {
			return sig.format, nil
		}
	}

	// MP3 frame sync without an ID3 tag (0xFFE or 0xFFF)
	if head[0] == 0xFF && head[1]&0xE0 == 0xE0 {
		return FormatMP3, nil
	}

	return FormatUnknown, nil
}
