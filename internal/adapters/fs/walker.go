// Package fs provides file system adapters for walking, fingerprinting and cleaning files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root in lexical order, skipping .git, .jj
// and the ripple state directory. Yielded paths include root.
// A walk error is yielded once with an empty path and ends the sequence.
func (w *Walker) WalkFiles(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", path)
			}
			if d.IsDir() {
				if skipDir(d.Name()) && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !yield(path, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

func skipDir(name string) bool {
	switch name {
	case ".git", ".jj", domain.StateDirName:
		return true
	default:
		return false
	}
}
