// Package scheduler implements the node execution scheduler.
package scheduler

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// Options control a single run.
type Options struct {
	// Parallelism bounds the number of concurrently running stages.
	// Zero or less means runtime.NumCPU().
	Parallelism int
	// Force treats every node in the plan as stale.
	Force bool
	// DryRun predicts the rebuild set without executing or recording anything.
	DryRun bool
	// RunID is stored in the records written by this run.
	RunID string
}

// Scheduler manages the execution of nodes in the dependency graph.
type Scheduler struct {
	executor  ports.Executor
	fp        ports.Fingerprinter
	verifier  ports.Verifier
	cleaner   ports.Cleaner
	telemetry ports.Telemetry
	logger    ports.Logger
	now       func() time.Time

	mu         sync.RWMutex
	nodeStatus map[domain.InternedString]domain.NodeStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	fp ports.Fingerprinter,
	verifier ports.Verifier,
	cleaner ports.Cleaner,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:   executor,
		fp:         fp,
		verifier:   verifier,
		cleaner:    cleaner,
		telemetry:  telemetry,
		logger:     logger,
		now:        time.Now,
		nodeStatus: make(map[domain.InternedString]domain.NodeStatus),
	}
}

// initNodeStatuses resets the status of the planned nodes to Pending.
func (s *Scheduler) initNodeStatuses(nodes []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.nodeStatus)
	for _, n := range nodes {
		s.nodeStatus[n] = domain.StatusPending
	}
}

func (s *Scheduler) updateStatus(id domain.InternedString, status domain.NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeStatus[id] = status
}

func (s *Scheduler) getStatus(id domain.InternedString) domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeStatus[id]
}

// Plan resolves targets (node ids, output paths or aliases; empty means all)
// and returns their dependency closure in execution order.
func Plan(graph *domain.Graph, targets []string) ([]domain.InternedString, error) {
	ids, err := graph.ResolveTargets(targets)
	if err != nil {
		return nil, err
	}
	return graph.Closure(ids)
}

// Run builds the requested targets and their dependencies.
//
// Node failures do not make Run return an error; they are reported per node
// in the returned report. Run returns an error when the targets cannot be
// resolved, and the context error when the run was cancelled.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	store ports.SignatureStore,
	targets []string,
	opts Options,
) (*domain.Report, error) {
	plan, err := Plan(graph, targets)
	if err != nil {
		return nil, err
	}

	s.initNodeStatuses(plan)
	detector := staleness.New(s.fp, store)

	if opts.DryRun {
		return s.predict(graph, detector, plan, opts)
	}

	state := s.newRunState(ctx, graph, store, detector, plan, opts)
	state.runExecutionLoop()

	report := state.report()
	if ctx.Err() != nil {
		return report, zerr.Wrap(ctx.Err(), "build cancelled")
	}
	return report, nil
}

type result struct {
	node     domain.InternedString
	status   domain.NodeStatus
	reason   string
	err      error
	duration time.Duration
	record   *domain.NodeRecord
}

type schedulerRunState struct {
	ctx         context.Context
	s           *Scheduler
	graph       *domain.Graph
	store       ports.SignatureStore
	detector    *staleness.Detector
	opts        Options
	parallelism int

	plan      []domain.InternedString
	inPlan    map[domain.InternedString]bool
	inDegree  map[domain.InternedString]int
	ready     []domain.InternedString
	active    int
	resultsCh chan result
	results   map[domain.InternedString]domain.NodeResult
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	store ports.SignatureStore,
	detector *staleness.Detector,
	plan []domain.InternedString,
	opts Options,
) *schedulerRunState {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state := &schedulerRunState{
		ctx:         ctx,
		s:           s,
		graph:       graph,
		store:       store,
		detector:    detector,
		opts:        opts,
		parallelism: parallelism,
		plan:        plan,
		inPlan:      make(map[domain.InternedString]bool, len(plan)),
		inDegree:    make(map[domain.InternedString]int, len(plan)),
		resultsCh:   make(chan result, parallelism),
		results:     make(map[domain.InternedString]domain.NodeResult, len(plan)),
	}

	for _, id := range plan {
		state.inPlan[id] = true
	}
	// The plan is a closure, so every upstream node is part of it.
	for _, id := range plan {
		node, _ := graph.GetNode(id)
		state.inDegree[id] = len(node.Upstream)
		if state.inDegree[id] == 0 {
			state.ready = append(state.ready, id)
		}
	}
	return state
}

// runExecutionLoop owns all run state. Workers only report on resultsCh.
// After cancellation nothing new is scheduled, but running stages are drained.
func (state *schedulerRunState) runExecutionLoop() {
	for {
		state.schedule()
		if state.active == 0 {
			return
		}
		state.handleResult(<-state.resultsCh)
	}
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		id := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		node, _ := state.graph.GetNode(id)
		go func() {
			state.resultsCh <- state.executeNode(&node)
		}()
	}
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.status == domain.StatusBuilt && res.record != nil {
		seq, err := state.store.Put(*res.record)
		if err != nil {
			res.status = domain.StatusFailed
			res.err = zerr.With(err, "node", res.node.String())
			res.reason = res.err.Error()
		} else {
			state.s.logger.Debug("recorded node", "node", res.node.String(), "sequence", seq)
		}
	}

	if res.status == domain.StatusFailed && state.ctx.Err() != nil {
		res.status = domain.StatusCancelled
		res.reason = state.ctx.Err().Error()
	}

	state.s.updateStatus(res.node, res.status)
	state.results[res.node] = domain.NodeResult{
		Node:     res.node.String(),
		Status:   res.status,
		Reason:   res.reason,
		Duration: res.duration,
	}

	switch res.status {
	case domain.StatusBuilt, domain.StatusFresh:
		for _, dep := range state.graph.Dependents(res.node) {
			if !state.inPlan[dep] {
				continue
			}
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = insertByIndex(state.graph, state.ready, dep)
			}
		}
	case domain.StatusFailed:
		state.s.logger.Error(res.err)
		state.skipDependents(res.node)
	case domain.StatusPending, domain.StatusUpstreamFailed, domain.StatusCancelled, domain.StatusWouldBuild:
	}
}

// skipDependents marks every transitive dependent of a failed node in the plan.
func (state *schedulerRunState) skipDependents(failed domain.InternedString) {
	queue := slices.Clone(state.graph.Dependents(failed))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !state.inPlan[id] {
			continue
		}
		if _, done := state.results[id]; done {
			continue
		}
		state.s.updateStatus(id, domain.StatusUpstreamFailed)
		state.results[id] = domain.NodeResult{
			Node:     id.String(),
			Status:   domain.StatusUpstreamFailed,
			Reason:   "upstream failure: " + failed.String(),
			Upstream: failed.String(),
		}
		queue = append(queue, state.graph.Dependents(id)...)
	}
}

// report lists every planned node in plan order. Nodes that never finished
// were cut off by cancellation.
func (state *schedulerRunState) report() *domain.Report {
	report := &domain.Report{RunID: state.opts.RunID}
	for _, id := range state.plan {
		res, ok := state.results[id]
		if !ok {
			state.s.updateStatus(id, domain.StatusCancelled)
			res = domain.NodeResult{Node: id.String(), Status: domain.StatusCancelled, Reason: "not started"}
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// insertByIndex keeps the ready queue ordered by declaration position.
func insertByIndex(graph *domain.Graph, queue []domain.InternedString, id domain.InternedString) []domain.InternedString {
	pos, _ := slices.BinarySearchFunc(queue, graph.Index(id), func(e domain.InternedString, idx int) int {
		return graph.Index(e) - idx
	})
	return slices.Insert(queue, pos, id)
}

// newRecord assembles the record stored after a successful run. Inputs are the
// fingerprints taken before the stage ran, so an input edited mid-run stays stale.
func (state *schedulerRunState) newRecord(
	node *domain.Node,
	inputs, outputs map[string]domain.Fingerprint,
) *domain.NodeRecord {
	return &domain.NodeRecord{
		Node:        node.ID.String(),
		RunID:       state.opts.RunID,
		CompletedAt: state.s.now().UTC(),
		Definition:  staleness.Definition(node),
		Inputs:      maps.Clone(inputs),
		Outputs:     outputs,
	}
}
