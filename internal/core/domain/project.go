package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// Project is the explicit configuration handed to every stage invocation.
// It replaces per-script path globals.
type Project struct {
	// Root is the absolute project root.
	Root string
	// Paths maps a symbolic name (e.g. "data", "output") to a root-relative directory.
	Paths map[string]string
	// Runners maps a source file extension (e.g. ".R") to the argv prefix used to run it.
	Runners map[string][]string
}

// Abs resolves a root-relative path against the project root.
func (p Project) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// RunnerFor returns the runner registered for the source's extension.
// Extensions are matched case-sensitively first, then case-insensitively,
// so ".R" and ".r" may both be declared.
func (p Project) RunnerFor(source string) ([]string, bool) {
	ext := filepath.Ext(source)
	if ext == "" {
		return nil, false
	}
	if r, ok := p.Runners[ext]; ok {
		return r, true
	}
	for k, r := range p.Runners {
		if strings.EqualFold(k, ext) {
			return r, true
		}
	}
	return nil, false
}

// PathNames returns the declared path names in sorted order.
func (p Project) PathNames() []string {
	names := make([]string, 0, len(p.Paths))
	for name := range p.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
