// Package registry manages format-specific decoders and comment editors.
package registry

import (
	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/vorbis"
)

// Decoder is the interface all format decoders implement.
type Decoder interface {
	// Open returns a sample source for the file at path. The caller closes it.
	Open(fsys billy.Filesystem, path string) (types.Source, error)
}

// CommentEditor is the interface format tag writers implement.
type CommentEditor interface {
	// EditComments loads the file's comment block, calls edit on it and
	// persists the block when edit reports a change. A missing block is
	// passed to edit as an empty one.
	EditComments(fsys billy.Filesystem, path string, edit func(*vorbis.Comments) bool) (modified bool, err error)
}

// decoders maps formats to their decoders.
var decoders = make(map[types.Format]Decoder)

// editors maps formats to their comment editors.
var editors = make(map[types.Format]CommentEditor)

// Register registers a decoder for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, decoder Decoder) {
	decoders[format] = decoder
}

// Get returns the decoder for a given format.
// Returns nil if no decoder is registered for the format.
func Get(format types.Format) Decoder {
	return decoders[format]
}

// RegisterEditor registers a comment editor for a format.
// This is called by format packages during initialization (init functions).
func RegisterEditor(format types.Format, editor CommentEditor) {
	editors[format] = editor
}

// GetEditor returns the comment editor for a given format.
// Returns nil if no editor is registered for the format.
func GetEditor(format types.Format) CommentEditor {
	return editors[format]
}
