package fs

import (
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Cleaner = (*Cleaner)(nil)

// Cleaner removes generated outputs.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Remove deletes the given root-relative paths, directories recursively, and
// returns the ones that existed. Missing paths are not an error and parent
// directories are left in place.
func (c *Cleaner) Remove(root string, paths []string) ([]string, error) {
	var removed []string
	var errs error
	for _, p := range paths {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if _, err := os.Lstat(abs); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errs = errors.Join(errs, zerr.With(zerr.Wrap(domain.ErrCleanFailed, err.Error()), "path", p))
			continue
		}
		if err := os.RemoveAll(abs); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(domain.ErrCleanFailed, err.Error()), "path", p))
			continue
		}
		removed = append(removed, p)
	}
	return removed, errs
}
