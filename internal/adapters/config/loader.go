// Package config provides the declaration loader for ripple.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	toml "github.com/pelletier/go-toml/v2"
	fsadapter "go.trai.ch/ripple/internal/adapters/fs"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileNames are the declaration files searched for, in order of precedence.
var FileNames = []string{"ripple.yaml", "ripple.hcl", "ripple.toml"}

// Loader implements ports.ConfigLoader.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the declaration, builds the validated graph and creates the
// output directories. With an empty file the declaration is discovered by
// walking up from cwd; otherwise file is resolved against cwd.
// The project root is the directory holding the declaration.
func (l *Loader) Load(cwd, file string) (*domain.Graph, error) {
	path, err := l.resolve(cwd, file)
	if err != nil {
		return nil, err
	}

	decl, err := Decode(path)
	if err != nil {
		return nil, err
	}

	g, err := domain.BuildGraph(decl, filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}

	if err := fsadapter.EnsureOutputDirs(g); err != nil {
		return nil, err
	}

	l.Logger.Debug("loaded declaration", "file", path, "nodes", g.NodeCount())
	return g, nil
}

// DiscoverRoot returns the directory holding the nearest declaration file.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	path, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func (l *Loader) resolve(cwd, file string) (string, error) {
	if file == "" {
		return l.findConfiguration(cwd)
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "file", file)
	}
	return path, nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, err.Error()), "cwd", cwd)
	}

	for {
		var found []string
		for _, name := range FileNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				found = append(found, candidate)
			}
		}
		if len(found) > 0 {
			if len(found) > 1 {
				l.Logger.Warn("multiple declaration files found, using the first", "file", found[0], "ignored", found[1:])
			}
			return found[0], nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no declaration file"), "cwd", cwd)
}

// Decode reads a declaration file and decodes it by extension.
// Unknown fields are rejected in every format.
func Decode(path string) (domain.Declaration, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Declaration{}, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no declaration file"), "file", path)
		}
		return domain.Declaration{}, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "file", path)
	}

	var decl domain.Declaration
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		decl, err = decodeYAML(data)
	case ".hcl":
		decl, err = decodeHCL(data, path)
	case ".toml":
		decl, err = decodeTOML(data)
	default:
		return domain.Declaration{}, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "unknown extension"), "file", path)
	}
	if err != nil {
		return domain.Declaration{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "file", path)
	}
	return decl, nil
}

func decodeYAML(data []byte) (domain.Declaration, error) {
	var f Ripplefile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return domain.Declaration{}, err
	}
	return f.declaration(), nil
}

func decodeHCL(data []byte, path string) (domain.Declaration, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return domain.Declaration{}, diags
	}

	var f hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return domain.Declaration{}, diags
	}
	return f.declaration(), nil
}

func decodeTOML(data []byte) (domain.Declaration, error) {
	var f tomlFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return domain.Declaration{}, err
	}
	return f.declaration(), nil
}
