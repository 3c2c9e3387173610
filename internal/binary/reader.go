// Package binary provides bounds-checked binary primitives for FLAC metadata.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Unsigned is the set of fixed-width integers the helpers can decode.
type Unsigned interface {
	uint8 | uint16 | uint32 | uint64
}

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the number of readable bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt reads bytes at the given offset with context for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d out of bounds (file size: %d) while reading %s",
			sr.path, off, sr.size, what)
	}

	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
			sr.path, len(b), off, sr.size, what)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}

	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}

	return nil
}

// Bytes reads n bytes at off.
func (sr *SafeReader) Bytes(off int64, n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read reads a big-endian value of type T from the given offset.
// FLAC metadata block headers and STREAMINFO fields are big-endian.
func Read[T Unsigned](sr *SafeReader, off int64, what string) (T, error) {
	return readOrder[T](sr, off, what, binary.BigEndian)
}

// ReadLE reads a little-endian value of type T from the given offset.
// Vorbis comment lengths are little-endian.
func ReadLE[T Unsigned](sr *SafeReader, off int64, what string) (T, error) {
	return readOrder[T](sr, off, what, binary.LittleEndian)
}

func readOrder[T Unsigned](sr *SafeReader, off int64, what string, order binary.ByteOrder) (T, error) {
	var zero T

	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		val = T(order.Uint16(buf))
	case uint32:
		val = T(order.Uint32(buf))
	case uint64:
		val = T(order.Uint64(buf))
	}

	return val, nil
}

func sizeOf[T Unsigned]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}
