// Package sqlite implements the SQLite signature store.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var _ ports.SignatureStore = (*Store)(nil)

const schemaVersion = 1

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

const schema = `
	CREATE TABLE IF NOT EXISTS node_records (
		node         TEXT PRIMARY KEY,
		sequence     INTEGER NOT NULL,
		run_id       TEXT NOT NULL DEFAULT '',
		completed_at TEXT NOT NULL DEFAULT '',
		definition   TEXT NOT NULL DEFAULT '',
		inputs       TEXT NOT NULL,
		outputs      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_node_records_sequence ON node_records(sequence);

	CREATE TABLE IF NOT EXISTS store_sequence (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO store_sequence (id, value) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
`

// Store implements ports.SignatureStore on a single SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", path)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", path)
	}
	// Sequence allocation relies on writes being serialized.
	conn.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", path), "pragma", pragma)
		}
	}

	s := &Store{conn: conn, path: path}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", s.path)
	}
	if _, err := s.conn.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion,
	); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, err.Error()), "path", s.path)
	}
	return nil
}

// Get retrieves the record of a node.
func (s *Store) Get(node string) (*domain.NodeRecord, error) {
	var (
		rec                    domain.NodeRecord
		completedAt            string
		inputsJSON, outputJSON string
	)
	err := s.conn.QueryRow(`
		SELECT node, sequence, run_id, completed_at, definition, inputs, outputs
		FROM node_records WHERE node = ?`, node,
	).Scan(&rec.Node, &rec.Sequence, &rec.RunID, &completedAt, &rec.Definition, &inputsJSON, &outputJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "node", node)
	}

	if completedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "node", node)
		}
		rec.CompletedAt = t
	}
	if err := json.Unmarshal([]byte(inputsJSON), &rec.Inputs); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "node", node)
	}
	if err := json.Unmarshal([]byte(outputJSON), &rec.Outputs); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "node", node)
	}
	return &rec, nil
}

// Put stores a record under the next completion sequence.
func (s *Store) Put(rec domain.NodeRecord) (uint64, error) {
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}
	outputs, err := json.Marshal(rec.Outputs)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}
	var completedAt string
	if !rec.CompletedAt.IsZero() {
		completedAt = rec.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	var seq uint64
	if err := tx.QueryRow(
		"UPDATE store_sequence SET value = value + 1 WHERE id = 1 RETURNING value",
	).Scan(&seq); err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO node_records (node, sequence, run_id, completed_at, definition, inputs, outputs)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Node, seq, rec.RunID, completedAt, rec.Definition, string(inputs), string(outputs),
	); err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}

	if err := tx.Commit(); err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", rec.Node)
	}
	return seq, nil
}

// Delete removes the records of the given nodes.
func (s *Store) Delete(nodes ...string) error {
	if len(nodes) == 0 {
		return nil
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	for _, n := range nodes {
		if _, err := tx.Exec("DELETE FROM node_records WHERE node = ?", n); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "node", n)
		}
	}
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Opener opens the SQLite store of a project root.
type Opener struct{}

// Open returns the store at .ripple/signatures.db under root.
func (Opener) Open(root string) (ports.SignatureStore, error) {
	return OpenStore(filepath.Join(domain.StateDir(root), domain.SQLiteStoreFile))
}
