package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ripple/internal/core/ports"
)

const (
	WalkerNodeID        graft.ID = "adapter.fs.walker"
	FingerprinterNodeID graft.ID = "adapter.fs.fingerprinter"
	VerifierNodeID      graft.ID = "adapter.fs.verifier"
	CleanerNodeID       graft.ID = "adapter.fs.cleaner"
)

func init() {
	// Walker Node (Concrete implementation needed by Fingerprinter)
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.Fingerprinter]{
		ID:        FingerprinterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.Fingerprinter, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewFingerprinter(walker), nil
		},
	})

	graft.Register(graft.Node[ports.Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Verifier, error) {
			return NewVerifier(), nil
		},
	})

	graft.Register(graft.Node[ports.Cleaner]{
		ID:        CleanerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Cleaner, error) {
			return NewCleaner(), nil
		},
	})
}
