package scheduler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/cas"
	"go.trai.ch/ripple/internal/adapters/fs"
	"go.trai.ch/ripple/internal/adapters/logger"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/core/ports/mocks"
	"go.trai.ch/ripple/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// mocked drives the scheduler with every file system port mocked.
type mocked struct {
	exec      *mocks.MockExecutor
	verifier  *mocks.MockVerifier
	cleaner   *mocks.MockCleaner
	telemetry *mocks.MockTelemetry
	vertex    *mocks.MockVertex
	store     ports.SignatureStore
	sched     *scheduler.Scheduler
	graph     *domain.Graph
}

func newMocked(t *testing.T) *mocked {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	store, err := cas.Opener{}.Open(root)
	require.NoError(t, err)

	log := logger.New()
	log.SetOutput(io.Discard)

	m := &mocked{
		exec:      mocks.NewMockExecutor(ctrl),
		verifier:  mocks.NewMockVerifier(ctrl),
		cleaner:   mocks.NewMockCleaner(ctrl),
		telemetry: mocks.NewMockTelemetry(ctrl),
		vertex:    mocks.NewMockVertex(ctrl),
		store:     store,
	}
	m.sched = scheduler.NewScheduler(
		m.exec,
		fs.NewFingerprinter(fs.NewWalker()),
		m.verifier,
		m.cleaner,
		m.telemetry,
		log,
	)

	m.graph, err = domain.BuildGraph(domain.Declaration{Nodes: []domain.NodeDeclaration{
		{ID: "A", Command: []string{"a"}, Outputs: []string{"out/a.txt"}},
	}}, root)
	require.NoError(t, err)

	m.telemetry.EXPECT().Record(gomock.Any(), "A").DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, m.vertex
		}).AnyTimes()
	return m
}

func (m *mocked) run(t *testing.T) *domain.Report {
	t.Helper()
	report, err := m.sched.Run(context.Background(), m.graph, m.store, nil, scheduler.Options{Parallelism: 1})
	require.NoError(t, err)
	return report
}

func TestScheduler_Run_CleanupFailure(t *testing.T) {
	m := newMocked(t)
	root := m.graph.Root()

	m.verifier.EXPECT().Missing(root, gomock.Any()).Return(nil, nil)
	m.cleaner.EXPECT().Remove(root, []string{"out/a.txt"}).Return(nil, errors.New("device busy"))
	m.vertex.EXPECT().Complete(gomock.Not(gomock.Nil()))
	// The stage never runs when stale outputs cannot be removed.
	m.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Times(0)

	report := m.run(t)

	res, ok := report.Result("A")
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "device busy")
}

func TestScheduler_Run_OutputNotProduced(t *testing.T) {
	m := newMocked(t)
	root := m.graph.Root()

	gomock.InOrder(
		m.verifier.EXPECT().Missing(root, gomock.Any()).Return(nil, nil),
		m.cleaner.EXPECT().Remove(root, []string{"out/a.txt"}).Return(nil, nil),
		m.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil),
		m.verifier.EXPECT().Missing(root, []string{"out/a.txt"}).Return([]string{"out/a.txt"}, nil),
	)
	m.vertex.EXPECT().Stdout().Return(io.Discard)
	m.vertex.EXPECT().Stderr().Return(io.Discard)
	m.vertex.EXPECT().Complete(gomock.Not(gomock.Nil()))

	report := m.run(t)

	res, ok := report.Result("A")
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Contains(t, res.Reason, domain.ErrMissingOutput.Error())
	assert.Contains(t, res.Reason, "(out/a.txt)")

	rec, err := m.store.Get("A")
	require.NoError(t, err)
	assert.Nil(t, rec, "a node without its outputs is never recorded")
}

func TestScheduler_Run_VertexLifecycle(t *testing.T) {
	m := newMocked(t)
	root := m.graph.Root()

	m.verifier.EXPECT().Missing(root, gomock.Any()).Return(nil, nil).AnyTimes()
	m.cleaner.EXPECT().Remove(root, []string{"out/a.txt"}).Return(nil, nil)

	var stdout, stderr bytes.Buffer
	m.vertex.EXPECT().Stdout().Return(&stdout)
	m.vertex.EXPECT().Stderr().Return(&stderr)
	m.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *domain.StageRequest) error {
			_, _ = io.WriteString(req.Stdout, "fitted\n")
			_, _ = io.WriteString(req.Stderr, "converged slowly\n")
			path := req.Project.Abs("out/a.txt")
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return err
			}
			return os.WriteFile(path, []byte("a"), 0o600)
		})

	gomock.InOrder(
		m.vertex.EXPECT().Complete(nil),
		// The second run finds the node fresh.
		m.vertex.EXPECT().Cached(),
	)

	report := m.run(t)
	assert.Equal(t, map[string]domain.NodeStatus{"A": domain.StatusBuilt}, statuses(report))
	assert.Equal(t, "fitted\n", stdout.String())
	assert.Equal(t, "converged slowly\n", stderr.String())

	report = m.run(t)
	assert.Equal(t, map[string]domain.NodeStatus{"A": domain.StatusFresh}, statuses(report))
}
