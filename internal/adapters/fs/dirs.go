package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// EnsureOutputDirs creates the parent directory of every declared output and
// every declared project path. It is idempotent.
func EnsureOutputDirs(g *domain.Graph) error {
	project := g.Project()
	dirs := make(map[string]bool)

	for node := range g.Declared() {
		for _, out := range node.Outputs {
			dirs[filepath.Dir(project.Abs(out.String()))] = true
		}
	}
	for _, name := range project.PathNames() {
		dirs[project.Abs(project.Paths[name])] = true
	}

	for dir := range dirs {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrEnsureDirFailed, err.Error()), "path", dir)
		}
	}
	return nil
}
