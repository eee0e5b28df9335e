package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Fingerprinter)(nil)

// Fingerprinter computes xxhash-based path signatures.
type Fingerprinter struct {
	walker *Walker
}

// NewFingerprinter creates a new Fingerprinter.
func NewFingerprinter(walker *Walker) *Fingerprinter {
	return &Fingerprinter{walker: walker}
}

// Fingerprint hashes a regular file's content, or a directory's sorted
// entry metadata (relative path, size and modification time).
func (f *Fingerprinter) Fingerprint(path string) (domain.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "path", path)
	}
	if info.IsDir() {
		return f.fingerprintDir(path)
	}

	sum, err := ComputeFileHash(path)
	if err != nil {
		return domain.Fingerprint{}, err
	}
	return domain.Fingerprint{
		Kind:   domain.FingerprintContent,
		Digest: fmt.Sprintf("%016x", sum),
		Size:   info.Size(),
	}, nil
}

func (f *Fingerprinter) fingerprintDir(dir string) (domain.Fingerprint, error) {
	hasher := xxhash.New()
	var total int64

	// WalkDir visits entries in lexical order, so the digest is stable.
	for path, err := range f.walker.WalkFiles(dir) {
		if err != nil {
			return domain.Fingerprint{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}

		_, _ = hasher.WriteString(filepath.ToSlash(rel))
		_, _ = hasher.Write([]byte{0})
		if err := binary.Write(hasher, binary.LittleEndian, info.Size()); err != nil {
			return domain.Fingerprint{}, zerr.Wrap(err, "failed to write size to digest")
		}
		if err := binary.Write(hasher, binary.LittleEndian, info.ModTime().UnixNano()); err != nil {
			return domain.Fingerprint{}, zerr.Wrap(err, "failed to write mtime to digest")
		}
		total += info.Size()
	}

	return domain.Fingerprint{
		Kind:   domain.FingerprintMeta,
		Digest: fmt.Sprintf("%016x", hasher.Sum64()),
		Size:   total,
	}, nil
}

// ComputeFileHash computes the XXHash of a file's content.
func ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}
