// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/ripple/internal/adapters/cas"
	_ "go.trai.ch/ripple/internal/adapters/config"
	_ "go.trai.ch/ripple/internal/adapters/fs"
	_ "go.trai.ch/ripple/internal/adapters/logger"
	_ "go.trai.ch/ripple/internal/adapters/shell"
	_ "go.trai.ch/ripple/internal/adapters/sqlite"
	_ "go.trai.ch/ripple/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/ripple/internal/app"
	_ "go.trai.ch/ripple/internal/engine/scheduler"
)
