package domain

import (
	"path/filepath"
	"unique"
)

// InternedString wraps a unique.Handle[string].
// Node ids and file paths repeat across nodes, edges and records, so they are interned once.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// NewInternedPath interns a project-relative path in its cleaned, slash-separated form.
func NewInternedPath(p string) InternedString {
	return NewInternedString(CleanPath(p))
}

// CleanPath normalizes a project-relative path so that "data/../data/raw.csv"
// and "data/raw.csv" name the same graph vertex.
func CleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never set.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}

// Strings converts interned values back to plain strings.
func Strings(values []InternedString) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
