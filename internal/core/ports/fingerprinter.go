package ports

import "go.trai.ch/ripple/internal/core/domain"

// Fingerprinter defines the interface for computing path signatures.
//
//go:generate mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint returns the signature of an absolute path. Regular files are
	// content-hashed and directories get an aggregate metadata hash.
	// A missing path yields an error matching fs.ErrNotExist.
	Fingerprint(path string) (domain.Fingerprint, error)
}
