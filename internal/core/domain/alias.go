package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Aliases returns alias names in declaration order.
func (g *Graph) Aliases() []string {
	return slices.Clone(g.aliasOrder)
}

// AliasMembers returns the declared members of an alias.
func (g *Graph) AliasMembers(name string) ([]string, bool) {
	members, ok := g.aliases[name]
	return slices.Clone(members), ok
}

func (g *Graph) validateAliases() error {
	for _, name := range g.aliasOrder {
		if _, conflict := g.nodes[NewInternedString(name)]; conflict {
			return zerr.With(zerr.Wrap(ErrNameConflict, "invalid alias"), "alias", name)
		}
		if owner, conflict := g.owners[NewInternedPath(name)]; conflict {
			err := zerr.With(zerr.Wrap(ErrNameConflict, "alias shadows an output path"), "alias", name)
			return zerr.With(err, "node", owner.String())
		}
	}
	for _, name := range g.aliasOrder {
		if _, err := g.ResolveAlias(name); err != nil {
			return err
		}
	}
	return nil
}

// ResolveAlias expands an alias to node ids, following nested aliases.
// Members may be node ids, output paths or other aliases. The result keeps
// first-seen order and holds no duplicates.
func (g *Graph) ResolveAlias(name string) ([]InternedString, error) {
	var (
		out   []InternedString
		seen  = make(map[InternedString]bool)
		stack []string
	)

	var expand func(alias string) error
	expand = func(alias string) error {
		if i := slices.Index(stack, alias); i >= 0 {
			return zerr.With(zerr.Wrap(ErrCycleDetected, "invalid alias"), "cycle", chain(stack[i:], alias))
		}
		members, ok := g.aliases[alias]
		if !ok {
			return zerr.With(zerr.Wrap(ErrUnknownAlias, "cannot resolve alias"), "alias", alias)
		}
		stack = append(stack, alias)
		defer func() { stack = stack[:len(stack)-1] }()

		for _, m := range members {
			if id, ok := g.lookupNode(m); ok {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
				continue
			}
			if _, isAlias := g.aliases[m]; !isAlias {
				err := zerr.With(zerr.Wrap(ErrUnknownAlias, "cannot resolve alias member"), "alias", alias)
				return zerr.With(err, "member", m)
			}
			if err := expand(m); err != nil {
				return err
			}
		}
		return nil
	}

	if err := expand(name); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveTargets maps requested names to node ids. Each name may be a node id,
// an output path or an alias; "all" or an empty request selects every node.
func (g *Graph) ResolveTargets(names []string) ([]InternedString, error) {
	if !g.validated {
		return nil, ErrGraphNotValidated
	}
	if len(names) == 0 {
		return slices.Clone(g.executionOrder), nil
	}

	var out []InternedString
	seen := make(map[InternedString]bool)
	add := func(id InternedString) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	all := false
	for _, name := range names {
		if name == AllTarget {
			all = true
			continue
		}
		if id, ok := g.lookupNode(name); ok {
			add(id)
			continue
		}
		if _, ok := g.aliases[name]; ok {
			ids, err := g.ResolveAlias(name)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				add(id)
			}
			continue
		}
		return nil, zerr.With(zerr.Wrap(ErrUnknownTarget, "cannot resolve target"), "target", name)
	}
	// Every other name is still checked so a typo next to "all" is reported.
	if all {
		return slices.Clone(g.executionOrder), nil
	}
	return out, nil
}

// Closure returns the given nodes and all of their transitive upstream nodes,
// in execution order.
func (g *Graph) Closure(ids []InternedString) ([]InternedString, error) {
	if !g.validated {
		return nil, ErrGraphNotValidated
	}
	in := make(map[InternedString]bool, len(g.nodes))
	var visit func(id InternedString)
	visit = func(id InternedString) {
		if in[id] {
			return
		}
		in[id] = true
		for _, up := range g.nodes[id].Upstream {
			visit(up)
		}
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; !ok {
			return nil, zerr.With(zerr.Wrap(ErrUnknownTarget, "cannot compute closure"), "target", id.String())
		}
		visit(id)
	}

	out := make([]InternedString, 0, len(in))
	for _, id := range g.executionOrder {
		if in[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// lookupNode resolves a node id or an output path to a node id.
func (g *Graph) lookupNode(name string) (InternedString, bool) {
	if _, ok := g.nodes[NewInternedString(name)]; ok {
		return NewInternedString(name), true
	}
	if owner, ok := g.owners[NewInternedPath(name)]; ok {
		return owner, true
	}
	return InternedString{}, false
}

func chain(stack []string, last string) string {
	return strings.Join(append(slices.Clone(stack), last), " -> ")
}
