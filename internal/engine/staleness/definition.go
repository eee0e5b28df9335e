package staleness

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/ripple/internal/core/domain"
)

// Definition hashes the declared parts of a node that change what its stage
// does: source, command, outputs, dependencies and environment.
func Definition(n *domain.Node) string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(n.Source.String())
	_, _ = hasher.Write([]byte{0})

	for _, arg := range n.Command {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, out := range n.Outputs {
		_, _ = hasher.WriteString(out.String())
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	for _, dep := range n.Dependencies {
		_, _ = hasher.WriteString(dep.String())
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	for _, k := range slices.Sorted(maps.Keys(n.Environment)) {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(n.Environment[k])
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}
