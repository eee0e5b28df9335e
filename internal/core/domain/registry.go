package domain

import (
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// BuildGraph turns a declaration into a validated graph rooted at root.
// Output and dependency paths are cleaned; a node without an explicit id is
// named after its first output. A node's source is an implicit first dependency.
func BuildGraph(decl Declaration, root string) (*Graph, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot resolve project root"), "root", root)
	}

	project := Project{
		Root:    absRoot,
		Paths:   maps.Clone(decl.Paths),
		Runners: maps.Clone(decl.Runners),
	}
	for name, p := range project.Paths {
		project.Paths[name] = CleanPath(p)
	}

	explicit := make(map[string]bool, len(decl.Nodes))
	for _, nd := range decl.Nodes {
		if nd.ID != "" {
			explicit[nd.ID] = true
		}
	}

	g := NewGraph(project)
	for i, nd := range decl.Nodes {
		node, err := nodeFromDeclaration(nd, explicit)
		if err != nil {
			return nil, zerr.With(err, "index", i)
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, ad := range decl.Aliases {
		if len(ad.Members) == 0 {
			return nil, zerr.With(zerr.Wrap(ErrInvalidDeclaration, "alias has no members"), "alias", ad.Name)
		}
		if err := g.AddAlias(ad.Name, ad.Members); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func nodeFromDeclaration(nd NodeDeclaration, explicit map[string]bool) (*Node, error) {
	if len(nd.Outputs) == 0 {
		return nil, zerr.With(zerr.Wrap(ErrInvalidDeclaration, "node declares no outputs"), "node", nd.ID)
	}
	if nd.Source == "" && len(nd.Command) == 0 {
		return nil, zerr.With(zerr.Wrap(ErrInvalidDeclaration, "node needs a source or a command"), "node", nd.ID)
	}

	outputs := make([]InternedString, 0, len(nd.Outputs))
	for _, o := range nd.Outputs {
		if o == "" {
			return nil, zerr.With(zerr.Wrap(ErrInvalidDeclaration, "empty output path"), "node", nd.ID)
		}
		outputs = append(outputs, NewInternedPath(o))
	}

	id := nd.ID
	if id == "" {
		id = outputs[0].String()
	}

	tokens := nd.Dependencies
	if nd.Source != "" && !slices.Contains(tokens, nd.Source) {
		tokens = append([]string{nd.Source}, tokens...)
	}

	deps := make([]InternedString, 0, len(tokens))
	for _, d := range tokens {
		switch {
		case d == "":
			return nil, zerr.With(zerr.Wrap(ErrInvalidDeclaration, "empty dependency"), "node", id)
		case explicit[d]:
			deps = append(deps, NewInternedString(d))
		default:
			deps = append(deps, NewInternedPath(d))
		}
	}

	var source InternedString
	if nd.Source != "" {
		source = NewInternedPath(nd.Source)
	}

	return &Node{
		ID:           NewInternedString(id),
		Source:       source,
		Command:      slices.Clone(nd.Command),
		Outputs:      outputs,
		Dependencies: deps,
		Environment:  maps.Clone(nd.Environment),
	}, nil
}
