package scan

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/simonhull/mqaid/internal/detect"
	"github.com/simonhull/mqaid/internal/types"
)

// errStop ends a walk early when the context is cancelled.
var errStop = errors.New("discovery stopped")

// maxLinkHops bounds symlink resolution for directory arguments.
const maxLinkHops = 16

// discover expands args into file paths and sends them to emit in order.
//
// Arguments that are not directories are emitted as is, so a missing path
// or a misnamed file is reported by validation. Directories are walked
// recursively; files inside them are emitted only when their extension is
// in exts. Symlinked files are emitted, symlinked directories below an
// argument are not descended. Unreadable entries are passed to onError and
// the walk continues.
//
// emit returns false to stop discovery.
func discover(ctx context.Context, fsys billy.Filesystem, args, exts []string, emit func(string) bool, onError func(path string, err error)) error {
	for _, arg := range args {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		info, err := fsys.Stat(arg)
		if err != nil || !info.IsDir() {
			if !emit(arg) {
				return errStop
			}
			continue
		}

		root, err := resolveDir(fsys, arg)
		if err != nil {
			onError(arg, err)
			continue
		}

		err = util.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
			if ctx.Err() != nil {
				return errStop
			}
			if err != nil {
				onError(p, err)
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() || !types.HasExtension(p, exts) {
				return nil
			}
			if info.Mode()&fs.ModeSymlink != 0 {
				target, err := fsys.Stat(p)
				if err != nil {
					onError(p, err)
					return nil
				}
				if !target.Mode().IsRegular() {
					return nil
				}
			}
			if !emit(p) {
				return errStop
			}
			return nil
		})
		if errors.Is(err, errStop) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errStop
		}
		if err != nil {
			onError(root, err)
		}
	}
	return nil
}

// resolveDir follows symlinks on a directory argument so the walk descends
// into its target.
func resolveDir(fsys billy.Filesystem, dir string) (string, error) {
	for range maxLinkHops {
		info, err := fsys.Lstat(dir)
		if err != nil {
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			return dir, nil
		}
		target, err := fsys.Readlink(dir)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dir), target)
		}
		dir = target
	}
	return "", &fs.PathError{Op: "readlink", Path: dir, Err: errors.New("too many levels of symbolic links")}
}

// walkError converts a traversal failure into a ledger-ready error.
func walkError(p string, err error) error {
	return detect.PathError(p, err)
}
