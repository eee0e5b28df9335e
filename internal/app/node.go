package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ripple/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/adapters/sqlite"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			scheduler.NodeID,
			fs.CleanerNodeID,
			logger.NodeID,
			cas.NodeID,
			sqlite.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	cleaner, err := graft.Dep[ports.Cleaner](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	jsonStore, err := graft.Dep[cas.Opener](ctx)
	if err != nil {
		return nil, err
	}

	sqliteStore, err := graft.Dep[sqlite.Opener](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, sched, cleaner, log, jsonStore, sqliteStore), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, tel), nil
}
