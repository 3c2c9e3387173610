package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeWriter wraps io.Writer with position tracking.
type SafeWriter struct {
	w      io.Writer
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// WriteUint24 writes the low 24 bits of v big-endian, as used by FLAC
// metadata block lengths.
func (sw *SafeWriter) WriteUint24(v uint32) error {
	if v > 0xFFFFFF {
		return fmt.Errorf("value %d does not fit in 24 bits", v)
	}
	return sw.WriteBytes([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
}

// Write writes a value of type T in big-endian byte order.
func Write[T Unsigned](sw *SafeWriter, val T) error {
	return writeOrder(sw, val, binary.BigEndian)
}

// WriteLE writes a value of type T in little-endian byte order.
func WriteLE[T Unsigned](sw *SafeWriter, val T) error {
	return writeOrder(sw, val, binary.LittleEndian)
}

func writeOrder[T Unsigned](sw *SafeWriter, val T, order binary.ByteOrder) error {
	buf := make([]byte, sizeOf[T]())

	var zero T
	switch any(zero).(type) {
	case uint8:
		buf[0] = byte(val)
	case uint16:
		order.PutUint16(buf, uint16(val))
	case uint32:
		order.PutUint32(buf, uint32(val))
	case uint64:
		order.PutUint64(buf, uint64(val))
	}

	return sw.WriteBytes(buf)
}
