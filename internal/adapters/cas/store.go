// Package cas implements the JSON-file signature store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SignatureStore = (*Store)(nil)

const formatVersion = 1

type document struct {
	Version  int                          `json:"version"`
	Sequence uint64                       `json:"sequence"`
	Records  map[string]domain.NodeRecord `json:"records"`
}

// Store implements ports.SignatureStore using a flat JSON file.
// Every Put and Delete rewrites the file atomically.
type Store struct {
	path string
	mu   sync.RWMutex
	doc  document
}

// NewStore creates a store backed by the file at the given path.
// A missing file is an empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path: filepath.Clean(path),
		doc:  document{Version: formatVersion, Records: make(map[string]domain.NodeRecord)},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", s.path)
	}
	if doc.Records == nil {
		doc.Records = make(map[string]domain.NodeRecord)
	}
	// Never hand out a sequence below one already recorded.
	for _, rec := range doc.Records {
		doc.Sequence = max(doc.Sequence, rec.Sequence)
	}
	doc.Version = formatVersion
	s.doc = doc
	return nil
}

// save writes the document to a temp file and renames it over the store.
// Callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", tmpName)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", tmpName)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", s.path)
	}
	return nil
}

// Get retrieves the record of a node.
func (s *Store) Get(node string) (*domain.NodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.doc.Records[node]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put stores a record under the next completion sequence.
func (s *Store) Put(rec domain.NodeRecord) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevSeq := s.doc.Sequence
	prev, existed := s.doc.Records[rec.Node]

	s.doc.Sequence++
	rec.Sequence = s.doc.Sequence
	s.doc.Records[rec.Node] = rec

	if err := s.save(); err != nil {
		s.doc.Sequence = prevSeq
		if existed {
			s.doc.Records[rec.Node] = prev
		} else {
			delete(s.doc.Records, rec.Node)
		}
		return 0, zerr.With(err, "node", rec.Node)
	}
	return rec.Sequence, nil
}

// Delete removes the records of the given nodes.
func (s *Store) Delete(nodes ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]domain.NodeRecord)
	for _, n := range nodes {
		if rec, ok := s.doc.Records[n]; ok {
			removed[n] = rec
			delete(s.doc.Records, n)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	if err := s.save(); err != nil {
		for n, rec := range removed {
			s.doc.Records[n] = rec
		}
		return err
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *Store) Close() error {
	return nil
}

// Opener opens the JSON store of a project root.
type Opener struct{}

// Open returns the store at .ripple/signatures.json under root.
func (Opener) Open(root string) (ports.SignatureStore, error) {
	return NewStore(filepath.Join(domain.StateDir(root), domain.JSONStoreFile))
}
