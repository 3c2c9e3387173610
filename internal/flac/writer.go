package flac

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/mqaid/internal/binary"
	"github.com/simonhull/mqaid/internal/vorbis"
)

// DefaultPadding is the PADDING block size written when the metadata region
// has to be rebuilt.
const DefaultPadding = 4096

// errNoFit means the new metadata does not fit the existing region.
var errNoFit = errors.New("metadata does not fit existing region")

// editor implements registry.CommentEditor for FLAC files.
type editor struct{}

// EditComments loads the comment block of the file at path, lets edit modify
// it and writes the result back.
//
// When the new metadata fits in the old region by shrinking or growing the
// PADDING block, the region is rewritten in place under an exclusive lock.
// Otherwise the file is rebuilt into a temporary file in the same directory
// and renamed over the original, so a failure leaves the original untouched.
func (editor) EditComments(fsys billy.Filesystem, path string, edit func(*vorbis.Comments) bool) (bool, error) {
	md, err := readMetadataFile(fsys, path)
	if err != nil {
		return false, err
	}

	comments := md.Comments
	if comments == nil {
		comments = &vorbis.Comments{Vendor: vorbis.DefaultVendor}
	}
	if !edit(comments) {
		return false, nil
	}

	body, err := comments.Encode()
	if err != nil {
		return false, fmt.Errorf("encode comments: %w", err)
	}
	if len(body) > maxBlockLength {
		return false, fmt.Errorf("comment block of %d bytes exceeds FLAC limit", len(body))
	}

	err = writeInPlace(fsys, path, md, body)
	if errors.Is(err, errNoFit) {
		err = rewrite(fsys, path, md, body)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReadMetadataFile opens path through fsys and parses its metadata.
func ReadMetadataFile(fsys billy.Filesystem, path string) (*Metadata, error) {
	return readMetadataFile(fsys, path)
}

func readMetadataFile(fsys billy.Filesystem, path string) (*Metadata, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	return ReadMetadata(f, info.Size(), path)
}

// layout builds the new metadata region. Every block except PADDING and the
// first VORBIS_COMMENT is copied verbatim; the comment block keeps its
// position or is appended after the last copied block. padding < 0 means no
// PADDING block.
func layout(src io.ReaderAt, size int64, path string, md *Metadata, comments []byte, padding int64) ([]byte, error) {
	sr := binary.NewSafeReader(src, size, path)

	type pending struct {
		typ  uint8
		body []byte
	}
	var blocks []pending
	placed := false
	for _, b := range md.Blocks {
		switch {
		case b.Type == blockTypePadding:
			continue
		case b.Type == blockTypeVorbisComment && !placed:
			blocks = append(blocks, pending{typ: blockTypeVorbisComment, body: comments})
			placed = true
			continue
		}
		body, err := sr.Bytes(b.Offset, int(b.Length), "metadata block")
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, pending{typ: b.Type, body: body})
	}
	if !placed {
		blocks = append(blocks, pending{typ: blockTypeVorbisComment, body: comments})
	}
	if padding >= 0 {
		blocks = append(blocks, pending{typ: blockTypePadding, body: make([]byte, padding)})
	}

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	for i, b := range blocks {
		typ := b.typ
		if i == len(blocks)-1 {
			typ |= 0x80
		}
		if err := binary.Write(sw, typ); err != nil {
			return nil, err
		}
		if err := sw.WriteUint24(uint32(len(b.body))); err != nil {
			return nil, fmt.Errorf("block type %d: %w", b.typ, err)
		}
		if err := sw.WriteBytes(b.body); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// regionSize is the byte size of the metadata blocks without PADDING and
// with the comment block replaced by one of n bytes.
func regionSize(md *Metadata, n int) int64 {
	total := int64(4 + n)
	placed := false
	for _, b := range md.Blocks {
		switch {
		case b.Type == blockTypePadding:
		case b.Type == blockTypeVorbisComment && !placed:
			placed = true
		default:
			total += 4 + b.Length
		}
	}
	return total
}

func writeInPlace(fsys billy.Filesystem, path string, md *Metadata, comments []byte) error {
	available := md.AudioOffset - 4
	needed := regionSize(md, len(comments))

	var padding int64
	switch {
	case needed == available:
		padding = -1
	case needed+4 <= available && available-needed-4 <= maxBlockLength:
		padding = available - needed - 4
	default:
		return errNoFit
	}

	f, err := fsys.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open for writing: %w", err)
	}
	defer f.Close() //nolint:errcheck // Close error is checked below on success

	if err := f.Lock(); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	defer f.Unlock() //nolint:errcheck // Released on close regardless

	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	// Re-read under the lock so a concurrent writer cannot slip in between.
	locked, err := ReadMetadata(f, info.Size(), path)
	if err != nil {
		return err
	}
	if locked.AudioOffset != md.AudioOffset {
		return errNoFit
	}

	region, err := layout(f, info.Size(), path, locked, comments, padding)
	if err != nil {
		return err
	}
	if int64(len(region)) != available {
		return fmt.Errorf("internal error: rebuilt metadata is %d bytes, want %d", len(region), available)
	}

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if _, err := f.Write(region); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := f.Unlock(); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return f.Close()
}

func rewrite(fsys billy.Filesystem, path string, md *Metadata, comments []byte) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	src, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer src.Close() //nolint:errcheck // Read-only handle

	region, err := layout(src, info.Size(), path, md, comments, DefaultPadding)
	if err != nil {
		return err
	}

	// Temp file lives beside the output so the rename stays atomic. It is
	// created with the original permissions since most billy filesystems
	// cannot chmod afterwards.
	tempPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".mqaid-tmp")
	tmp, err := fsys.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()           //nolint:errcheck // Best effort cleanup
			_ = fsys.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := tmp.Write([]byte("fLaC")); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if _, err := tmp.Write(region); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	frames := io.NewSectionReader(src, md.AudioOffset, info.Size()-md.AudioOffset)
	if _, err := io.Copy(tmp, frames); err != nil {
		return fmt.Errorf("copy audio frames: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if ch, ok := fsys.(billy.Change); ok {
		if err := ch.Chmod(tempPath, info.Mode().Perm()); err != nil {
			return fmt.Errorf("preserve mode: %w", err)
		}
	}

	// Atomic rename temp -> output
	if err := fsys.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}

	success = true
	return nil
}
