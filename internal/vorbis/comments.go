// Package vorbis provides Vorbis comment parsing and encoding.
//
// Vorbis comments are used by both FLAC and Ogg Vorbis formats.
// The format is identical: a vendor string followed by UTF-8 strings in
// "KEY=VALUE" format, all length-prefixed little-endian.
package vorbis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/simonhull/mqaid/internal/binary"
)

// DefaultVendor is written when a file has no comment block yet.
const DefaultVendor = "mqaid"

// Comments is a decoded Vorbis comment block.
//
// Entries keep their original "KEY=VALUE" text and order so that encoding an
// unmodified block reproduces the input bytes.
type Comments struct {
	Vendor  string
	Entries []string
}

// ParseComment splits a single Vorbis comment in "KEY=VALUE" format.
//
// Returns an error if the comment is not in valid "KEY=VALUE" format.
func ParseComment(comment string) (key, value string, err error) {
	key, value, ok := strings.Cut(comment, "=")
	if !ok {
		return "", "", fmt.Errorf("missing '=' in comment: %s", comment)
	}
	if key == "" {
		return "", "", fmt.Errorf("empty field name in comment: %s", comment)
	}
	return key, value, nil
}

// Parse reads a comment block of blockLength bytes starting at offset.
func Parse(sr *binary.SafeReader, offset, blockLength int64) (*Comments, error) {
	end := offset + blockLength
	currentOffset := offset

	// Read vendor string length (32-bit little-endian)
	vendorLength, err := binary.ReadLE[uint32](sr, currentOffset, "vendor string length")
	if err != nil {
		return nil, err
	}
	currentOffset += 4

	if currentOffset+int64(vendorLength) > end {
		return nil, fmt.Errorf("vendor string length %d overruns comment block", vendorLength)
	}
	vendor, err := sr.Bytes(currentOffset, int(vendorLength), "vendor string")
	if err != nil {
		return nil, err
	}
	currentOffset += int64(vendorLength)

	// Read number of comments (32-bit little-endian)
	numComments, err := binary.ReadLE[uint32](sr, currentOffset, "number of comments")
	if err != nil {
		return nil, err
	}
	currentOffset += 4

	c := &Comments{Vendor: string(vendor)}
	for i := uint32(0); i < numComments; i++ {
		commentLength, err := binary.ReadLE[uint32](sr, currentOffset, "comment length")
		if err != nil {
			return nil, fmt.Errorf("read comment %d length: %w", i, err)
		}
		currentOffset += 4

		if currentOffset+int64(commentLength) > end {
			return nil, fmt.Errorf("comment %d length %d overruns comment block", i, commentLength)
		}
		data, err := sr.Bytes(currentOffset, int(commentLength), fmt.Sprintf("comment %d", i))
		if err != nil {
			return nil, fmt.Errorf("read comment %d: %w", i, err)
		}
		currentOffset += int64(commentLength)

		c.Entries = append(c.Entries, string(data))
	}

	return c, nil
}

// Get returns the value of the first entry named key.
// Field names are compared case-insensitively.
func (c *Comments) Get(key string) (string, bool) {
	for _, e := range c.Entries {
		k, v, err := ParseComment(e)
		if err != nil {
			continue
		}
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Has reports whether an entry named key exists.
func (c *Comments) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Add appends KEY=VALUE. The key is upper-cased as is conventional.
func (c *Comments) Add(key, value string) {
	c.Entries = append(c.Entries, strings.ToUpper(key)+"="+value)
}

// Encode serialises the block body, without the FLAC block header.
func (c *Comments) Encode() ([]byte, error) {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)

	if err := binary.WriteLE(sw, uint32(len(c.Vendor))); err != nil {
		return nil, err
	}
	if err := sw.WriteString(c.Vendor); err != nil {
		return nil, err
	}
	if err := binary.WriteLE(sw, uint32(len(c.Entries))); err != nil {
		return nil, err
	}
	for _, e := range c.Entries {
		if err := binary.WriteLE(sw, uint32(len(e))); err != nil {
			return nil, err
		}
		if err := sw.WriteString(e); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
