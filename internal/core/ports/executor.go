// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/ripple/internal/core/domain"
)

// Executor defines the interface for running one pipeline stage.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the stage described by req.
	//
	// On success every declared output must exist; the engine verifies this
	// afterwards. A non-nil error marks the node as failed.
	Execute(ctx context.Context, req *domain.StageRequest) error
}
