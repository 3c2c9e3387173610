package detect

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/mqaid/internal/types"
)

// Validate runs the pre-decode checks on path, in order: it must exist, be a
// regular file, start with the FLAC stream marker and carry one of exts.
// Symlinks are followed. The first failure is returned as a
// *types.ValidationError whose Reason does not mention the path.
func Validate(fsys billy.Filesystem, path string, exts []string) (types.Format, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return types.FormatUnknown, PathError(path, err)
	}
	if !info.Mode().IsRegular() {
		return types.FormatUnknown, &types.ValidationError{Path: path, Reason: "Not a regular file"}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return types.FormatUnknown, &types.ValidationError{Err: err, Path: path, Reason: "Cannot open file: " + statReason(err)}
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	format, err := types.DetectFormat(f, info.Size(), path)
	if err != nil {
		return types.FormatUnknown, &types.ValidationError{Err: err, Path: path, Reason: "Cannot read file header"}
	}
	switch format {
	case types.FormatFLAC:
	case types.FormatUnknown:
		return format, &types.ValidationError{Path: path, Reason: "Not a FLAC file (unrecognized header)"}
	default:
		return format, &types.ValidationError{Path: path, Reason: fmt.Sprintf("Not a FLAC file (%s header)", format)}
	}

	if !types.HasExtension(path, exts) {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			ext = "none"
		}
		return format, &types.ValidationError{Path: path, Reason: fmt.Sprintf("Unexpected file extension (%s)", ext)}
	}

	return format, nil
}

// PathError converts a filesystem failure on path into a validation error
// with a path-free reason.
func PathError(path string, err error) *types.ValidationError {
	return &types.ValidationError{Err: err, Path: path, Reason: statReason(err)}
}

func statReason(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "Path does not exist"
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied"
	default:
		return "Filesystem error"
	}
}
