package cas

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the JSON store opener Graft node.
const NodeID graft.ID = "adapter.store.json"

func init() {
	graft.Register(graft.Node[Opener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Opener, error) {
			return Opener{}, nil
		},
	})
}
