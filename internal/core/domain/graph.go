// Package domain contains the core domain models of the build graph engine:
// nodes, the dependency graph, alias resolution, fingerprints and run reports.
package domain

import (
	"iter"
	"path"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the dependency graph of declared nodes.
// Vertices are nodes and plain file leaves; edges run from a dependency to its dependents.
type Graph struct {
	project Project

	nodes  map[InternedString]*Node
	order  []InternedString
	owners map[InternedString]InternedString

	aliases    map[string][]string
	aliasOrder []string

	dependents     map[InternedString][]InternedString
	executionOrder []InternedString
	validated      bool
}

// NewGraph creates an empty graph for the given project.
func NewGraph(project Project) *Graph {
	return &Graph{
		project:    project,
		nodes:      make(map[InternedString]*Node),
		owners:     make(map[InternedString]InternedString),
		aliases:    make(map[string][]string),
		dependents: make(map[InternedString][]InternedString),
	}
}

// Project returns the project configuration the graph was built for.
func (g *Graph) Project() Project {
	return g.project
}

// Root returns the absolute project root.
func (g *Graph) Root() string {
	return g.project.Root
}

// AddNode registers a node. Its Index is set to the declaration position.
func (g *Graph) AddNode(n *Node) error {
	id := n.ID.String()
	if err := validateName(id); err != nil {
		return err
	}
	if id == AllTarget {
		return zerr.With(zerr.Wrap(ErrReservedName, "cannot add node"), "node", id)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateNode, "cannot add node"), "node", id)
	}
	if len(n.Outputs) == 0 {
		return zerr.With(zerr.Wrap(ErrInvalidDeclaration, "node declares no outputs"), "node", id)
	}

	for _, out := range n.Outputs {
		p := out.String()
		if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") || p == "." {
			err := zerr.With(zerr.Wrap(ErrOutputOutsideRoot, "cannot add node"), "node", id)
			return zerr.With(err, "output", p)
		}
		if owner, claimed := g.owners[out]; claimed {
			err := zerr.Wrap(ErrDuplicateOutput, "cannot add node")
			err = zerr.With(err, "output", p)
			err = zerr.With(err, "node", id)
			return zerr.With(err, "claimed_by", owner.String())
		}
	}

	node := *n
	node.Index = len(g.order)
	for _, out := range node.Outputs {
		g.owners[out] = node.ID
	}
	g.nodes[node.ID] = &node
	g.order = append(g.order, node.ID)
	g.validated = false
	return nil
}

// AddAlias registers a named group of node ids or other aliases.
func (g *Graph) AddAlias(name string, members []string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if name == AllTarget {
		return zerr.With(zerr.Wrap(ErrReservedName, "cannot add alias"), "alias", name)
	}
	if _, exists := g.aliases[name]; exists {
		return zerr.With(zerr.Wrap(ErrInvalidDeclaration, "alias declared twice"), "alias", name)
	}
	g.aliases[name] = slices.Clone(members)
	g.aliasOrder = append(g.aliasOrder, name)
	g.validated = false
	return nil
}

// Validate resolves dependencies, rejects cycles and computes the execution order.
// Dependency tokens resolve to a node id, then to a node's output path, and
// otherwise to a plain file leaf.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		if err := g.resolveNode(g.nodes[id]); err != nil {
			return err
		}
	}

	if err := g.detectCycles(); err != nil {
		return err
	}

	g.dependents = make(map[InternedString][]InternedString, len(g.nodes))
	for _, id := range g.order {
		for _, up := range g.nodes[id].Upstream {
			g.dependents[up] = append(g.dependents[up], id)
		}
	}
	g.executionOrder = g.topologicalOrder()

	if err := g.validateAliases(); err != nil {
		return err
	}

	g.validated = true
	return nil
}

func (g *Graph) resolveNode(n *Node) error {
	n.Upstream = nil
	n.Inputs = nil
	n.Leaves = nil

	seenUp := make(map[InternedString]bool)
	seenInput := make(map[InternedString]bool)
	addInput := func(p InternedString) {
		if !seenInput[p] {
			seenInput[p] = true
			n.Inputs = append(n.Inputs, p)
		}
	}
	addUpstream := func(id InternedString) error {
		if id == n.ID {
			return g.buildCycleError([]InternedString{n.ID}, n.ID)
		}
		if !seenUp[id] {
			seenUp[id] = true
			n.Upstream = append(n.Upstream, id)
		}
		return nil
	}

	for _, dep := range n.Dependencies {
		if up, ok := g.nodes[dep]; ok {
			if err := addUpstream(up.ID); err != nil {
				return err
			}
			for _, out := range up.Outputs {
				addInput(out)
			}
			continue
		}
		if owner, ok := g.owners[dep]; ok {
			if err := addUpstream(owner); err != nil {
				return err
			}
			addInput(dep)
			continue
		}
		if !seenInput[dep] {
			n.Leaves = append(n.Leaves, dep)
		}
		addInput(dep)
	}
	return nil
}

// detectCycles runs a depth-first traversal with recursion-stack marking.
func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[InternedString]int, len(g.nodes))
	var stack []InternedString

	var visit func(id InternedString) error
	visit = func(id InternedString) error {
		state[id] = visiting
		stack = append(stack, id)
		for _, up := range g.nodes[id].Upstream {
			switch state[up] {
			case visiting:
				return g.buildCycleError(stack, up)
			case unvisited:
				if err := visit(up); err != nil {
					return err
				}
			}
		}
		state[id] = visited
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCycleError reports the chain from the first occurrence of dep on the stack back to dep.
func (g *Graph) buildCycleError(stack []InternedString, dep InternedString) error {
	start := slices.Index(stack, dep)
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(stack)-start+1)
	for _, id := range stack[start:] {
		parts = append(parts, id.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(zerr.Wrap(ErrCycleDetected, "invalid dependency graph"), "cycle", strings.Join(parts, " -> "))
}

// topologicalOrder is Kahn's algorithm where the ready node with the lowest
// declaration index always goes first, so the order is deterministic.
func (g *Graph) topologicalOrder() []InternedString {
	inDegree := make(map[InternedString]int, len(g.nodes))
	var ready []InternedString
	for _, id := range g.order {
		inDegree[id] = len(g.nodes[id].Upstream)
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]InternedString, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for _, dep := range g.dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = g.insertByIndex(ready, dep)
			}
		}
	}
	return out
}

func (g *Graph) insertByIndex(queue []InternedString, id InternedString) []InternedString {
	idx := g.nodes[id].Index
	pos, _ := slices.BinarySearchFunc(queue, idx, func(e InternedString, t int) int {
		return g.nodes[e].Index - t
	})
	return slices.Insert(queue, pos, id)
}

// Walk yields nodes in execution order. It yields nothing before Validate succeeded.
func (g *Graph) Walk() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, id := range g.executionOrder {
			if !yield(*g.nodes[id]) {
				return
			}
		}
	}
}

// Declared yields nodes in declaration order.
func (g *Graph) Declared() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, id := range g.order {
			if !yield(*g.nodes[id]) {
				return
			}
		}
	}
}

// GetNode returns a copy of the node with the given id.
func (g *Graph) GetNode(id InternedString) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// NodeCount returns the number of declared nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Dependents returns the ids of nodes that directly depend on id, in declaration order.
func (g *Graph) Dependents(id InternedString) []InternedString {
	return g.dependents[id]
}

// OwnerOf returns the node producing the given output path.
func (g *Graph) OwnerOf(p string) (InternedString, bool) {
	owner, ok := g.owners[NewInternedPath(p)]
	return owner, ok
}

// Less orders two nodes by declaration position.
func (g *Graph) Less(a, b InternedString) bool {
	return g.nodes[a].Index < g.nodes[b].Index
}

// Index returns a node's declaration position, or -1 for an unknown id.
func (g *Graph) Index(id InternedString) int {
	n, ok := g.nodes[id]
	if !ok {
		return -1
	}
	return n.Index
}

func validateName(name string) error {
	if name == "" {
		return zerr.Wrap(ErrInvalidName, "empty name")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '/':
		default:
			return zerr.With(zerr.Wrap(ErrInvalidName, "unsupported character"), "name", name)
		}
	}
	return nil
}
