package domain

// Node is a declared unit of build work.
// The declared fields are immutable once the graph is built; the resolved
// fields are filled in by Graph.Validate.
type Node struct {
	ID           InternedString
	Source       InternedString
	Command      []string
	Outputs      []InternedString
	Dependencies []InternedString
	Environment  map[string]string

	// Index is the declaration position, used to break scheduling ties.
	Index int

	// Upstream holds the ids of nodes this node depends on, in declaration order.
	Upstream []InternedString
	// Inputs holds every path whose fingerprint is recorded for this node:
	// plain file leaves and the outputs of upstream nodes that were referenced.
	Inputs []InternedString
	// Leaves holds the plain file dependencies that no node produces.
	Leaves []InternedString
}

// Primary returns the node's primary output, or the zero value when it declares none.
func (n *Node) Primary() InternedString {
	if len(n.Outputs) == 0 {
		return InternedString{}
	}
	return n.Outputs[0]
}
