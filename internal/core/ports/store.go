package ports

import "go.trai.ch/ripple/internal/core/domain"

// SignatureStore defines the interface for the persistent node records.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SignatureStore interface {
	// Get retrieves the record of a node.
	// Returns nil, nil if the node was never built.
	Get(node string) (*domain.NodeRecord, error)

	// Put stores a record, assigning it the next completion sequence, and
	// returns that sequence.
	Put(rec domain.NodeRecord) (uint64, error)

	// Delete removes the records of the given nodes. Unknown nodes are ignored.
	Delete(nodes ...string) error

	// Close releases the store.
	Close() error
}

// SignatureStoreOpener opens the store of a project root.
type SignatureStoreOpener interface {
	Open(root string) (SignatureStore, error)
}
