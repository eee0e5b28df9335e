package config

import (
	"maps"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
)

// Ripplefile is the YAML form of a declaration.
type Ripplefile struct {
	Version string              `yaml:"version"`
	Paths   map[string]string   `yaml:"paths"`
	Runners map[string][]string `yaml:"runners"`
	Nodes   []NodeDTO           `yaml:"nodes"`
	Aliases map[string][]string `yaml:"aliases"`
}

// NodeDTO is one node entry of a YAML or TOML declaration.
type NodeDTO struct {
	ID      string            `yaml:"id"      toml:"id"`
	Source  string            `yaml:"source"  toml:"source"`
	Command []string          `yaml:"command" toml:"command"`
	Outputs []string          `yaml:"outputs" toml:"outputs"`
	Deps    []string          `yaml:"deps"    toml:"deps"`
	Env     map[string]string `yaml:"env"     toml:"env"`
}

// tomlFile is the TOML form of a declaration.
type tomlFile struct {
	Version string              `toml:"version"`
	Paths   map[string]string   `toml:"paths"`
	Runners map[string][]string `toml:"runners"`
	Nodes   []NodeDTO           `toml:"nodes"`
	Aliases map[string][]string `toml:"aliases"`
}

// hclFile is the HCL form of a declaration. Nodes, aliases and runners are
// labelled blocks:
//
//	node "clean" { source = "code/clean.R" outputs = ["data/clean.csv"] }
//	alias "figures" { members = ["fig1", "fig2"] }
//	runner ".R" { command = ["Rscript", "--vanilla"] }
type hclFile struct {
	Version *string           `hcl:"version,optional"`
	Paths   map[string]string `hcl:"paths,optional"`
	Runners []hclRunner       `hcl:"runner,block"`
	Nodes   []hclNode         `hcl:"node,block"`
	Aliases []hclAlias        `hcl:"alias,block"`
}

type hclNode struct {
	ID      string            `hcl:"id,label"`
	Source  *string           `hcl:"source,optional"`
	Command []string          `hcl:"command,optional"`
	Outputs []string          `hcl:"outputs"`
	Deps    []string          `hcl:"deps,optional"`
	Env     map[string]string `hcl:"env,optional"`
}

type hclAlias struct {
	Name    string   `hcl:"name,label"`
	Members []string `hcl:"members"`
}

type hclRunner struct {
	Extension string   `hcl:"extension,label"`
	Command   []string `hcl:"command"`
}

func (f *Ripplefile) declaration() domain.Declaration {
	return domain.Declaration{
		Version: f.Version,
		Paths:   f.Paths,
		Runners: f.Runners,
		Nodes:   nodeDeclarations(f.Nodes),
		Aliases: aliasDeclarations(f.Aliases),
	}
}

func (f *tomlFile) declaration() domain.Declaration {
	return domain.Declaration{
		Version: f.Version,
		Paths:   f.Paths,
		Runners: f.Runners,
		Nodes:   nodeDeclarations(f.Nodes),
		Aliases: aliasDeclarations(f.Aliases),
	}
}

func (f *hclFile) declaration() domain.Declaration {
	decl := domain.Declaration{Paths: f.Paths}
	if f.Version != nil {
		decl.Version = *f.Version
	}
	if len(f.Runners) > 0 {
		decl.Runners = make(map[string][]string, len(f.Runners))
		for _, r := range f.Runners {
			decl.Runners[r.Extension] = r.Command
		}
	}
	for _, n := range f.Nodes {
		nd := domain.NodeDeclaration{
			ID:           n.ID,
			Command:      n.Command,
			Outputs:      n.Outputs,
			Dependencies: n.Deps,
			Environment:  n.Env,
		}
		if n.Source != nil {
			nd.Source = *n.Source
		}
		decl.Nodes = append(decl.Nodes, nd)
	}
	for _, a := range f.Aliases {
		decl.Aliases = append(decl.Aliases, domain.AliasDeclaration{Name: a.Name, Members: a.Members})
	}
	return decl
}

func nodeDeclarations(dtos []NodeDTO) []domain.NodeDeclaration {
	out := make([]domain.NodeDeclaration, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, domain.NodeDeclaration{
			ID:           dto.ID,
			Source:       dto.Source,
			Command:      dto.Command,
			Outputs:      dto.Outputs,
			Dependencies: dto.Deps,
			Environment:  dto.Env,
		})
	}
	return out
}

// aliasDeclarations orders map-declared aliases by name.
func aliasDeclarations(aliases map[string][]string) []domain.AliasDeclaration {
	out := make([]domain.AliasDeclaration, 0, len(aliases))
	for _, name := range slices.Sorted(maps.Keys(aliases)) {
		out = append(out, domain.AliasDeclaration{Name: name, Members: aliases[name]})
	}
	return out
}
