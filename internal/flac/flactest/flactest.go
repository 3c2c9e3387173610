// Package flactest builds small, valid FLAC streams for tests.
//
// Frames use verbatim subframes so the samples written are exactly the
// samples a decoder returns, which makes it possible to plant bit patterns
// in the stereo difference signal.
package flactest

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// Metadata block types.
const (
	BlockStreamInfo    = 0
	BlockPadding       = 1
	BlockApplication   = 2
	BlockVorbisComment = 4
)

// Stream describes a FLAC file to build.
type Stream struct {
	SampleRate    uint32
	BitsPerSample uint32
	// Channels holds one slice of samples per channel; all must be equal length.
	Channels [][]int32
	// BlockSize defaults to 4096.
	BlockSize int
	// Comments, when non-nil, adds a VORBIS_COMMENT block.
	Comments []string
	Vendor   string
	// Padding adds a PADDING block of that many bytes when positive.
	Padding int
	// Application adds an APPLICATION block carrying these bytes.
	Application []byte
}

// Stereo returns a two-channel stream from left/right pairs.
func Stereo(sampleRate, bps uint32, left, right []int32) Stream {
	return Stream{
		SampleRate:    sampleRate,
		BitsPerSample: bps,
		Channels:      [][]int32{left, right},
	}
}

// Build encodes s as a complete FLAC file.
func Build(s Stream) ([]byte, error) {
	if len(s.Channels) == 0 || len(s.Channels) > 8 {
		return nil, fmt.Errorf("unsupported channel count %d", len(s.Channels))
	}
	if s.BitsPerSample%8 != 0 || s.BitsPerSample < 8 || s.BitsPerSample > 24 {
		return nil, fmt.Errorf("unsupported bits per sample %d", s.BitsPerSample)
	}
	n := len(s.Channels[0])
	for _, ch := range s.Channels {
		if len(ch) != n {
			return nil, fmt.Errorf("channels have different lengths")
		}
	}
	blockSize := s.BlockSize
	if blockSize == 0 {
		blockSize = 4096
	}

	var blocks []block
	blocks = append(blocks, block{typ: BlockStreamInfo, body: streamInfo(s, blockSize, n)})
	if s.Application != nil {
		blocks = append(blocks, block{typ: BlockApplication, body: append([]byte("test"), s.Application...)})
	}
	if s.Comments != nil {
		blocks = append(blocks, block{typ: BlockVorbisComment, body: comments(s.Vendor, s.Comments)})
	}
	if s.Padding > 0 {
		blocks = append(blocks, block{typ: BlockPadding, body: make([]byte, s.Padding)})
	}

	var buf bytes.Buffer
	buf.WriteString("fLaC")
	for i, b := range blocks {
		writeBlockHeader(&buf, b.typ, len(b.body), i == len(blocks)-1)
		buf.Write(b.body)
	}

	for num, start := uint64(0), 0; start < n; num, start = num+1, start+blockSize {
		end := min(start+blockSize, n)
		f, err := frame(s, num, start, end)
		if err != nil {
			return nil, err
		}
		buf.Write(f)
	}

	return buf.Bytes(), nil
}

// MustBuild is Build that panics on error.
func MustBuild(s Stream) []byte {
	data, err := Build(s)
	if err != nil {
		panic(err)
	}
	return data
}

type block struct {
	typ  byte
	body []byte
}

func writeBlockHeader(buf *bytes.Buffer, typ byte, length int, last bool) {
	if last {
		typ |= 0x80
	}
	buf.WriteByte(typ)
	buf.WriteByte(byte(length >> 16))
	buf.WriteByte(byte(length >> 8))
	buf.WriteByte(byte(length))
}

func streamInfo(s Stream, blockSize, n int) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, uint16(blockSize))
	binary.Write(buf, binary.BigEndian, uint16(blockSize))
	// Min and max frame size unknown.
	buf.Write(make([]byte, 6))

	packed := uint64(s.SampleRate)<<44 |
		uint64(len(s.Channels)-1)<<41 |
		uint64(s.BitsPerSample-1)<<36 |
		uint64(n)
	binary.Write(buf, binary.BigEndian, packed)

	sum := pcmMD5(s, n)
	buf.Write(sum[:])
	return buf.Bytes()
}

// pcmMD5 hashes interleaved little-endian samples as the STREAMINFO
// signature requires.
func pcmMD5(s Stream, n int) [16]byte {
	h := md5.New()
	width := int(s.BitsPerSample / 8)
	sample := make([]byte, width)
	for i := range n {
		for _, ch := range s.Channels {
			v := uint32(ch[i])
			for b := range width {
				sample[b] = byte(v >> (8 * b))
			}
			h.Write(sample)
		}
	}
	var sum [16]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func comments(vendor string, entries []string) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(entries)))
	for _, e := range entries {
		binary.Write(buf, binary.LittleEndian, uint32(len(e)))
		buf.WriteString(e)
	}
	return buf.Bytes()
}

func frame(s Stream, num uint64, start, end int) ([]byte, error) {
	var buf bytes.Buffer

	// Sync code, fixed blocking strategy.
	buf.Write([]byte{0xFF, 0xF8})
	// Block size follows as 16-bit (n-1) at the end of the header.
	buf.WriteByte(0x70 | sampleRateCode(s.SampleRate))

	size, err := sampleSizeCode(s.BitsPerSample)
	if err != nil {
		return nil, err
	}
	// Independent channels.
	buf.WriteByte(byte(len(s.Channels)-1)<<4 | size<<1)
	buf.Write(utf8Number(num))
	binary.Write(&buf, binary.BigEndian, uint16(end-start-1))
	buf.WriteByte(crc8(buf.Bytes()))

	width := int(s.BitsPerSample / 8)
	for _, ch := range s.Channels {
		// Verbatim subframe, no wasted bits.
		buf.WriteByte(0x02)
		for _, v := range ch[start:end] {
			u := uint32(v)
			for b := width - 1; b >= 0; b-- {
				buf.WriteByte(byte(u >> (8 * b)))
			}
		}
	}

	binary.Write(&buf, binary.BigEndian, crc16(buf.Bytes()))
	return buf.Bytes(), nil
}

func sampleRateCode(hz uint32) byte {
	switch hz {
	case 88200:
		return 0b0001
	case 176400:
		return 0b0010
	case 192000:
		return 0b0011
	case 32000:
		return 0b1000
	case 44100:
		return 0b1001
	case 48000:
		return 0b1010
	case 96000:
		return 0b1011
	default:
		// Taken from STREAMINFO.
		return 0b0000
	}
}

func sampleSizeCode(bps uint32) (byte, error) {
	switch bps {
	case 8:
		return 0b001, nil
	case 16:
		return 0b100, nil
	case 24:
		return 0b110, nil
	default:
		return 0, fmt.Errorf("unsupported bits per sample %d", bps)
	}
}

// utf8Number encodes a frame number with the extended UTF-8 scheme.
func utf8Number(n uint64) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}

	// Count continuation bytes needed.
	var cont int
	for limit := uint64(0x800); cont < 6; limit <<= 5 {
		cont++
		if n < limit {
			break
		}
	}

	out := make([]byte, cont+1)
	for i := cont; i > 0; i-- {
		out[i] = 0x80 | byte(n&0x3F)
		n >>= 6
	}
	lead := byte(0xFF << (7 - cont))
	out[0] = lead | byte(n)
	return out
}

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
