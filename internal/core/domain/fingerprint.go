package domain

// FingerprintKind tells how a fingerprint was derived.
type FingerprintKind string

const (
	// FingerprintContent is an xxhash64 of the file bytes.
	FingerprintContent FingerprintKind = "content"
	// FingerprintMeta is an xxhash64 of sorted child-entry metadata, used for directories.
	FingerprintMeta FingerprintKind = "meta"
)

// Fingerprint is the change-detection value recorded for a path.
type Fingerprint struct {
	Kind   FingerprintKind `json:"kind"`
	Digest string          `json:"digest"`
	Size   int64           `json:"size"`
}

// Equal reports whether two fingerprints describe the same state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Kind == other.Kind && f.Digest == other.Digest && f.Size == other.Size
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f.Kind == "" && f.Digest == ""
}
