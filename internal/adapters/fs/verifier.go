package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier provides functionality to verify the existence of files.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Missing returns the paths that do not exist under root, in the given order.
func (v *Verifier) Missing(root string, paths []string) ([]string, error) {
	var missing []string
	for _, p := range paths {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, p)
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", abs)
		}
	}
	return missing, nil
}
