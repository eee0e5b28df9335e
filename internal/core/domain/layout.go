package domain

import "path/filepath"

const (
	// StateDirName is the hidden directory under the project root holding persistent state.
	StateDirName = ".ripple"

	// JSONStoreFile is the signature store file used by the json backend.
	JSONStoreFile = "signatures.json"

	// SQLiteStoreFile is the signature store database used by the sqlite backend.
	SQLiteStoreFile = "signatures.db"

	// DirPerm is the permission used for directories created by ripple.
	DirPerm = 0o750

	// FilePerm is the permission used for files written by ripple.
	FilePerm = 0o644

	// AllTarget is the reserved alias meaning every declared node.
	AllTarget = "all"
)

// StateDir returns the state directory for a project root.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}
