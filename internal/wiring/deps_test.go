package wiring_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/cas"
	"go.trai.ch/ripple/internal/adapters/config"
	"go.trai.ch/ripple/internal/adapters/fs"
	"go.trai.ch/ripple/internal/adapters/logger"
	"go.trai.ch/ripple/internal/adapters/shell"
	"go.trai.ch/ripple/internal/adapters/sqlite"
	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/app"
	"go.trai.ch/ripple/internal/engine/scheduler"
	_ "go.trai.ch/ripple/internal/wiring"
)

// TestRegistry checks that importing wiring registers every node the
// application graph needs.
func TestRegistry(t *testing.T) {
	registry := graft.Registry()

	for _, id := range []graft.ID{
		cas.NodeID,
		sqlite.NodeID,
		config.NodeID,
		fs.WalkerNodeID,
		fs.FingerprinterNodeID,
		fs.VerifierNodeID,
		fs.CleanerNodeID,
		logger.NodeID,
		shell.NodeID,
		telemetry.NodeID,
		scheduler.NodeID,
		app.AppNodeID,
		app.ComponentsNodeID,
	} {
		assert.Contains(t, registry, id)
	}
}

// TestGraph checks that every declared dependency is registered and that
// the scheduler feeds the app.
func TestGraph(t *testing.T) {
	require.NoError(t, graft.PrintGraph(io.Discard))

	var buf bytes.Buffer
	require.NoError(t, graft.PrintMermaid(&buf))
	assert.Contains(t, buf.String(), string(scheduler.NodeID)+" --> "+string(app.AppNodeID))
	assert.Contains(t, buf.String(), string(app.AppNodeID)+" --> "+string(app.ComponentsNodeID))
}
