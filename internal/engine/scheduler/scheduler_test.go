package scheduler_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/cas"
	"go.trai.ch/ripple/internal/adapters/fs"
	"go.trai.ch/ripple/internal/adapters/logger"
	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/core/ports/mocks"
	"go.trai.ch/ripple/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t     *testing.T
	root  string
	exec  *mocks.MockExecutor
	store ports.SignatureStore
	sched *scheduler.Scheduler

	mu    sync.Mutex
	calls []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	store, err := cas.Opener{}.Open(root)
	require.NoError(t, err)

	log := logger.New()
	log.SetOutput(io.Discard)

	exec := mocks.NewMockExecutor(ctrl)
	return &harness{
		t:     t,
		root:  root,
		exec:  exec,
		store: store,
		sched: scheduler.NewScheduler(
			exec,
			fs.NewFingerprinter(fs.NewWalker()),
			fs.NewVerifier(),
			fs.NewCleaner(),
			telemetry.NewNoOp(),
			log,
		),
	}
}

func (h *harness) write(rel, content string) {
	h.t.Helper()
	path := filepath.Join(h.root, rel)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o600))
}

func (h *harness) graph(nodes ...domain.NodeDeclaration) *domain.Graph {
	h.t.Helper()
	g, err := domain.BuildGraph(domain.Declaration{Nodes: nodes}, h.root)
	require.NoError(h.t, err)
	return g
}

// produce writes every declared output, each derived from the node's inputs.
func (h *harness) produce(_ context.Context, req *domain.StageRequest) error {
	h.mu.Lock()
	h.calls = append(h.calls, req.NodeID)
	h.mu.Unlock()

	content := req.NodeID
	for _, in := range req.Inputs {
		data, err := os.ReadFile(req.Project.Abs(in))
		if err != nil {
			return err
		}
		content += "|" + string(data)
	}
	for _, out := range req.Outputs {
		path := req.Project.Abs(out)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (h *harness) executed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.calls
	h.calls = nil
	return out
}

func (h *harness) run(g *domain.Graph, targets []string, opts scheduler.Options) *domain.Report {
	h.t.Helper()
	report, err := h.sched.Run(context.Background(), g, h.store, targets, opts)
	require.NoError(h.t, err)
	return report
}

func statuses(report *domain.Report) map[string]domain.NodeStatus {
	out := make(map[string]domain.NodeStatus, len(report.Results))
	for _, res := range report.Results {
		out[res.Node] = res.Status
	}
	return out
}

func reason(t *testing.T, report *domain.Report, node string) string {
	t.Helper()
	res, ok := report.Result(node)
	require.True(t, ok, "no result for %s", node)
	return res.Reason
}

func chain(h *harness) *domain.Graph {
	h.write("data/raw.csv", "raw")
	return h.graph(
		domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"out/a.txt"}, Dependencies: []string{"data/raw.csv"}},
		domain.NodeDeclaration{ID: "B", Command: []string{"b"}, Outputs: []string{"out/b.txt"}, Dependencies: []string{"A"}},
		domain.NodeDeclaration{ID: "C", Command: []string{"c"}, Outputs: []string{"out/c.txt"}, Dependencies: []string{"B"}},
	)
}

func TestScheduler_Run_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		// A depends on B and C, which both depend on D.
		g := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"a.txt"}, Dependencies: []string{"B", "C"}},
			domain.NodeDeclaration{ID: "B", Command: []string{"b"}, Outputs: []string{"b.txt"}, Dependencies: []string{"D"}},
			domain.NodeDeclaration{ID: "C", Command: []string{"c"}, Outputs: []string{"c.txt"}, Dependencies: []string{"D"}},
			domain.NodeDeclaration{ID: "D", Command: []string{"d"}, Outputs: []string{"d.txt"}},
		)

		// Channels for synchronization
		dProceed := make(chan struct{})
		bStarted := make(chan struct{})
		bProceed := make(chan struct{})
		cStarted := make(chan struct{})
		cProceed := make(chan struct{})

		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req *domain.StageRequest) error {
				switch req.NodeID {
				case "D":
					<-dProceed
					return h.produce(ctx, req)
				case "B":
					close(bStarted)
					<-bProceed
					return errors.New("B failed")
				case "C":
					close(cStarted)
					<-cProceed
					return h.produce(ctx, req)
				default:
					t.Errorf("Unexpected node: %s", req.NodeID)
					return nil
				}
			}).Times(3)

		reportCh := make(chan *domain.Report)
		go func() {
			reportCh <- h.run(g, nil, scheduler.Options{Parallelism: 2})
		}()

		// Only D is runnable.
		synctest.Wait()
		select {
		case <-bStarted:
			t.Fatal("B started before D finished")
		default:
		}
		close(dProceed)

		// B and C run concurrently.
		<-bStarted
		<-cStarted
		close(bProceed)
		close(cProceed)

		report := <-reportCh
		assert.Equal(t, map[string]domain.NodeStatus{
			"A": domain.StatusUpstreamFailed,
			"B": domain.StatusFailed,
			"C": domain.StatusBuilt,
			"D": domain.StatusBuilt,
		}, statuses(report))
		assert.Equal(t, "upstream failure: B", reason(t, report, "A"))
		assert.Contains(t, reason(t, report, "B"), "B failed")

		// A failed node leaves no record; C's record is kept.
		rec, err := h.store.Get("B")
		require.NoError(t, err)
		assert.Nil(t, rec)
		rec, err = h.store.Get("C")
		require.NoError(t, err)
		assert.NotNil(t, rec)

		assert.Equal(t, map[domain.InternedString]domain.NodeStatus{
			domain.NewInternedString("A"): domain.StatusUpstreamFailed,
			domain.NewInternedString("B"): domain.StatusFailed,
			domain.NewInternedString("C"): domain.StatusBuilt,
			domain.NewInternedString("D"): domain.StatusBuilt,
		}, h.sched.GetNodeStatusMap())
	})
}

func TestScheduler_Run_Idempotent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, 3, report.Count(domain.StatusBuilt))
		assert.Equal(t, "output missing: out/a.txt", reason(t, report, "A"))
		assert.Equal(t, []string{"A", "B", "C"}, h.executed())

		report = h.run(g, nil, scheduler.Options{})
		assert.Equal(t, 3, report.Count(domain.StatusFresh))
		assert.Empty(t, h.executed())
	})
}

func TestScheduler_Run_PropagatesDownstream(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{})
		h.executed()

		h.write("data/raw.csv", "changed")
		report := h.run(g, nil, scheduler.Options{})

		assert.Equal(t, []string{"A", "B", "C"}, h.executed())
		assert.Equal(t, "dependency changed: data/raw.csv", reason(t, report, "A"))
		assert.Equal(t, "dependency changed: out/a.txt", reason(t, report, "B"))
	})
}

func TestScheduler_Run_UpstreamRebuilt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{})
		h.executed()

		// Rebuilding A alone yields identical content, but B is now older than A.
		report := h.run(g, []string{"A"}, scheduler.Options{Force: true})
		assert.Equal(t, "forced", reason(t, report, "A"))
		assert.Equal(t, []string{"A"}, h.executed())

		report = h.run(g, nil, scheduler.Options{})
		assert.Equal(t, domain.StatusFresh, statuses(report)["A"])
		assert.Equal(t, "upstream rebuilt: A", reason(t, report, "B"))
		assert.Equal(t, []string{"B", "C"}, h.executed())
	})
}

func TestScheduler_Run_Independence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		h.write("left.txt", "l")
		h.write("right.txt", "r")
		g := h.graph(
			domain.NodeDeclaration{ID: "left", Command: []string{"l"}, Outputs: []string{"l.out"}, Dependencies: []string{"left.txt"}},
			domain.NodeDeclaration{ID: "right", Command: []string{"r"}, Outputs: []string{"r.out"}, Dependencies: []string{"right.txt"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{})
		h.executed()

		h.write("left.txt", "l2")
		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, map[string]domain.NodeStatus{
			"left":  domain.StatusBuilt,
			"right": domain.StatusFresh,
		}, statuses(report))
	})
}

func TestScheduler_Run_OutputTampered(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{})
		h.executed()

		h.write("out/c.txt", "edited by hand")
		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, "output modified: out/c.txt", reason(t, report, "C"))
		assert.Equal(t, []string{"C"}, h.executed())

		require.NoError(t, os.Remove(filepath.Join(h.root, "out", "b.txt")))
		report = h.run(g, nil, scheduler.Options{})
		assert.Equal(t, "output missing: out/b.txt", reason(t, report, "B"))
	})
}

func TestScheduler_Run_DeclarationChanged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{})
		h.executed()

		changed := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a", "--verbose"}, Outputs: []string{"out/a.txt"}, Dependencies: []string{"data/raw.csv"}},
			domain.NodeDeclaration{ID: "B", Command: []string{"b"}, Outputs: []string{"out/b.txt"}, Dependencies: []string{"A"}},
			domain.NodeDeclaration{ID: "C", Command: []string{"c"}, Outputs: []string{"out/c.txt"}, Dependencies: []string{"B"}},
		)
		report := h.run(changed, nil, scheduler.Options{})
		assert.Equal(t, "declaration changed", reason(t, report, "A"))
	})
}

func TestScheduler_Run_MissingDependencyFile(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"a.txt"}, Dependencies: []string{"absent.csv"}},
			domain.NodeDeclaration{ID: "B", Command: []string{"b"}, Outputs: []string{"b.txt"}, Dependencies: []string{"A"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Times(0)

		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, map[string]domain.NodeStatus{
			"A": domain.StatusFailed,
			"B": domain.StatusUpstreamFailed,
		}, statuses(report))
		assert.Contains(t, reason(t, report, "A"), "absent.csv")
	})
}

func TestScheduler_Run_MissingOutput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"a.txt", "extra.txt"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *domain.StageRequest) error {
				return os.WriteFile(req.Project.Abs("a.txt"), []byte("a"), 0o600)
			}).Times(1)

		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, domain.StatusFailed, statuses(report)["A"])
		assert.Contains(t, reason(t, report, "A"), "extra.txt")

		rec, err := h.store.Get("A")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestScheduler_Run_StaleOutputsRemovedBeforeStage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		h.write("a.txt", "left over")
		g := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"a.txt"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		// The stage succeeds without writing; the stale file must not count.
		report := h.run(g, nil, scheduler.Options{})
		assert.Equal(t, domain.StatusFailed, statuses(report)["A"])
	})
}

func TestScheduler_Run_Parallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		var nodes []domain.NodeDeclaration
		for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
			nodes = append(nodes, domain.NodeDeclaration{ID: id, Command: []string{id}, Outputs: []string{id + ".txt"}})
		}
		g := h.graph(nodes...)

		var running, peak atomic.Int32
		gate := make(chan struct{})
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req *domain.StageRequest) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-gate
				running.Add(-1)
				return h.produce(ctx, req)
			}).Times(5)

		reportCh := make(chan *domain.Report)
		go func() {
			reportCh <- h.run(g, nil, scheduler.Options{Parallelism: 2})
		}()

		synctest.Wait()
		assert.Equal(t, int32(2), running.Load())
		close(gate)

		report := <-reportCh
		assert.Equal(t, 5, report.Count(domain.StatusBuilt))
		assert.Equal(t, int32(2), peak.Load())
	})
}

func TestScheduler_Run_DeclarationOrderWithOneJob(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(
			domain.NodeDeclaration{ID: "z", Command: []string{"z"}, Outputs: []string{"z.txt"}},
			domain.NodeDeclaration{ID: "m", Command: []string{"m"}, Outputs: []string{"m.txt"}, Dependencies: []string{"y"}},
			domain.NodeDeclaration{ID: "y", Command: []string{"y"}, Outputs: []string{"y.txt"}},
			domain.NodeDeclaration{ID: "a", Command: []string{"a"}, Outputs: []string{"a.txt"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).AnyTimes()

		h.run(g, nil, scheduler.Options{Parallelism: 1})
		assert.Equal(t, []string{"z", "y", "m", "a"}, h.executed())
	})
}

func TestScheduler_Run_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(
			domain.NodeDeclaration{ID: "slow", Command: []string{"slow"}, Outputs: []string{"slow.txt"}},
			domain.NodeDeclaration{ID: "after", Command: []string{"after"}, Outputs: []string{"after.txt"}, Dependencies: []string{"slow"}},
		)

		started := make(chan struct{})
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ *domain.StageRequest) error {
				close(started)
				<-ctx.Done()
				return ctx.Err()
			}).Times(1)

		ctx, cancel := context.WithCancel(context.Background())
		type outcome struct {
			report *domain.Report
			err    error
		}
		done := make(chan outcome)
		go func() {
			report, err := h.sched.Run(ctx, g, h.store, nil, scheduler.Options{Parallelism: 1})
			done <- outcome{report, err}
		}()

		<-started
		cancel()
		res := <-done

		require.ErrorIs(t, res.err, context.Canceled)
		assert.Equal(t, map[string]domain.NodeStatus{
			"slow":  domain.StatusCancelled,
			"after": domain.StatusCancelled,
		}, statuses(res.report))
		assert.Equal(t, "not started", reason(t, res.report, "after"))
		assert.True(t, res.report.Failed())
	})
}

func TestScheduler_Run_DryRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := chain(h)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).Times(3)

		report := h.run(g, nil, scheduler.Options{DryRun: true})
		assert.True(t, report.DryRun)
		assert.Equal(t, 3, report.Count(domain.StatusWouldBuild))
		assert.NoFileExists(t, filepath.Join(h.root, "out", "a.txt"))

		h.run(g, nil, scheduler.Options{})
		h.executed()

		h.write("data/raw.csv", "new")
		report = h.run(g, []string{"B"}, scheduler.Options{DryRun: true})
		assert.Equal(t, map[string]domain.NodeStatus{
			"A": domain.StatusWouldBuild,
			"B": domain.StatusWouldBuild,
		}, statuses(report))
		assert.Equal(t, "upstream would build: A", reason(t, report, "B"))
		assert.Empty(t, h.executed())
	})
}

func TestScheduler_Run_StorePutFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		ctrl := gomock.NewController(t)
		store := mocks.NewMockSignatureStore(ctrl)

		g := h.graph(
			domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"a.txt"}},
			domain.NodeDeclaration{ID: "B", Command: []string{"b"}, Outputs: []string{"b.txt"}, Dependencies: []string{"A"}},
		)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce).Times(1)
		store.EXPECT().Get(gomock.Any()).Return(nil, nil).AnyTimes()
		store.EXPECT().Put(gomock.Any()).Return(uint64(0), domain.ErrStoreWriteFailed)

		report, err := h.sched.Run(context.Background(), g, store, nil, scheduler.Options{})
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.NodeStatus{
			"A": domain.StatusFailed,
			"B": domain.StatusUpstreamFailed,
		}, statuses(report))
	})
}

func TestScheduler_Run_UnknownTarget(t *testing.T) {
	h := newHarness(t)
	g := chain(h)

	_, err := h.sched.Run(context.Background(), g, h.store, []string{"nope"}, scheduler.Options{})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)
}

func TestPlan(t *testing.T) {
	h := newHarness(t)
	g := chain(h)

	plan, err := scheduler.Plan(g, []string{"out/b.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, domain.Strings(plan))
}

func TestScheduler_Run_InputEditedDuringStage(t *testing.T) {
	h := newHarness(t)
	h.write("data/raw.csv", "raw")
	g := h.graph(
		domain.NodeDeclaration{ID: "A", Command: []string{"a"}, Outputs: []string{"out/a.txt"}, Dependencies: []string{"data/raw.csv"}},
	)

	h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *domain.StageRequest) error {
			err := h.produce(ctx, req)
			h.write("data/raw.csv", "edited while running")
			return err
		})
	report := h.run(g, nil, scheduler.Options{})
	assert.Equal(t, domain.StatusBuilt, statuses(report)["A"])

	// The record holds the inputs the stage started from.
	h.exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(h.produce)
	report = h.run(g, nil, scheduler.Options{})
	assert.Equal(t, domain.StatusBuilt, statuses(report)["A"])
	assert.Equal(t, "dependency changed: data/raw.csv", reason(t, report, "A"))
}
