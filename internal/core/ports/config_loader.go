package ports

import "go.trai.ch/ripple/internal/core/domain"

// ConfigLoader defines the interface for loading the build declaration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the declaration file starting at cwd, or uses file when it is
	// not empty, and returns the validated graph.
	Load(cwd, file string) (*domain.Graph, error)

	// DiscoverRoot walks up from cwd to the directory holding a declaration file.
	DiscoverRoot(cwd string) (string, error)
}
