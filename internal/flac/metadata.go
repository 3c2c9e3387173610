package flac

import (
	"fmt"
	"io"

	"github.com/simonhull/mqaid/internal/binary"
	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeVorbisComment = 4
	blockTypeInvalid       = 127
)

// maxBlockLength is the largest body a 24-bit length field can describe.
const maxBlockLength = 1<<24 - 1

// Block locates one metadata block body in the file.
type Block struct {
	Type   uint8
	Offset int64 // start of the body, after the 4-byte header
	Length int64
}

// StreamInfo holds the fields of the mandatory STREAMINFO block.
type StreamInfo struct {
	Format       types.StreamFormat
	TotalSamples uint64
	MD5          [16]byte
}

// Metadata is the parsed metadata region of a FLAC file.
type Metadata struct {
	StreamInfo StreamInfo
	Blocks     []Block
	// Comments is nil when the file has no VORBIS_COMMENT block.
	Comments *vorbis.Comments
	// AudioOffset is where the first frame starts.
	AudioOffset int64
}

// ReadMetadata walks the metadata blocks of a FLAC file.
func ReadMetadata(r io.ReaderAt, size int64, path string) (*Metadata, error) {
	sr := binary.NewSafeReader(r, size, path)

	// Verify FLAC magic bytes ("fLaC")
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return nil, fmt.Errorf("read FLAC magic: %w", err)
	}
	if string(magic) != "fLaC" {
		return nil, fmt.Errorf("%s: invalid FLAC magic bytes", path)
	}

	md := &Metadata{}
	offset := int64(4) // After "fLaC"
	for {
		// Read metadata block header (4 bytes)
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return nil, err
		}

		isLast := (header >> 31) == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)

		offset += 4 // Move past header

		if blockType == blockTypeInvalid {
			return nil, fmt.Errorf("%s: invalid metadata block type at offset %d", path, offset-4)
		}
		if offset+blockLength > size {
			return nil, fmt.Errorf("%s: metadata block at offset %d overruns file", path, offset-4)
		}
		if len(md.Blocks) == 0 && blockType != blockTypeStreamInfo {
			return nil, fmt.Errorf("%s: first metadata block is not STREAMINFO", path)
		}

		md.Blocks = append(md.Blocks, Block{Type: blockType, Offset: offset, Length: blockLength})

		switch blockType {
		case blockTypeStreamInfo:
			if md.StreamInfo, err = parseStreamInfo(sr, offset, blockLength); err != nil {
				return nil, fmt.Errorf("parse STREAMINFO: %w", err)
			}

		case blockTypeVorbisComment:
			// The first comment block wins; extra ones are kept as opaque blocks.
			if md.Comments == nil {
				if md.Comments, err = vorbis.Parse(sr, offset, blockLength); err != nil {
					return nil, fmt.Errorf("parse Vorbis comments: %w", err)
				}
			}
		}

		// Move to next block
		offset += blockLength

		// If this was the last metadata block, we're done
		if isLast {
			break
		}
	}

	md.AudioOffset = offset
	return md, nil
}

// parseStreamInfo extracts audio info from STREAMINFO block
func parseStreamInfo(sr *binary.SafeReader, offset, blockLength int64) (StreamInfo, error) {
	// STREAMINFO is exactly 34 bytes
	if blockLength != 34 {
		return StreamInfo{}, fmt.Errorf("invalid STREAMINFO size: %d (expected 34)", blockLength)
	}

	data := make([]byte, 34)
	if err := sr.ReadAt(data, offset, "STREAMINFO block"); err != nil {
		return StreamInfo{}, err
	}

	// Bytes 10-17: Sample rate (20 bits), channels (3 bits), bits per sample (5 bits), total samples (36 bits)
	packed := uint64(data[10])<<56 | uint64(data[11])<<48 | uint64(data[12])<<40 | uint64(data[13])<<32 |
		uint64(data[14])<<24 | uint64(data[15])<<16 | uint64(data[16])<<8 | uint64(data[17])

	// Channels and bits per sample are stored minus one.
	info := StreamInfo{
		Format: types.StreamFormat{
			SampleRate:    uint32((packed >> 44) & 0xFFFFF),
			Channels:      uint32((packed>>41)&0x7) + 1,
			BitsPerSample: uint32((packed>>36)&0x1F) + 1,
		},
		TotalSamples: packed & 0xFFFFFFFFF,
	}
	copy(info.MD5[:], data[18:34])

	return info, nil
}
