package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// executeNode runs on a worker goroutine. It must not touch run state; the
// store is only read here, through the detector.
func (state *schedulerRunState) executeNode(node *domain.Node) result {
	start := state.s.now()
	id := node.ID.String()
	project := state.graph.Project()

	ctx, vertex := state.s.telemetry.Record(state.ctx, id)

	fail := func(err error) result {
		vertex.Complete(err)
		return result{
			node:     node.ID,
			status:   domain.StatusFailed,
			reason:   reasonOf(err),
			err:      err,
			duration: state.s.now().Sub(start),
		}
	}

	missing, err := state.s.verifier.Missing(project.Root, domain.Strings(node.Leaves))
	if err != nil {
		return fail(zerr.With(err, "node", id))
	}
	if len(missing) > 0 {
		err := zerr.With(zerr.Wrap(domain.ErrMissingDependencyFile, "cannot build node"), "node", id)
		return fail(zerr.With(err, "path", strings.Join(missing, ", ")))
	}

	verdict, err := state.detector.Check(node, project, state.opts.Force)
	if err != nil {
		return fail(err)
	}
	if !verdict.Stale {
		vertex.Cached()
		return result{
			node:     node.ID,
			status:   domain.StatusFresh,
			reason:   "already fresh",
			duration: state.s.now().Sub(start),
		}
	}

	state.s.logger.Info("building", "node", id, "reason", verdict.Reason)

	// Stale artifacts must not satisfy the output check after a broken stage.
	if _, err := state.s.cleaner.Remove(project.Root, domain.Strings(node.Outputs)); err != nil {
		return fail(zerr.With(err, "node", id))
	}

	req := domain.NewStageRequest(node, project)
	req.Stdout = vertex.Stdout()
	req.Stderr = vertex.Stderr()
	if err := state.s.executor.Execute(ctx, req); err != nil {
		return fail(zerr.With(fmt.Errorf("%w: %w", domain.ErrStageExecutionFailed, err), "node", id))
	}

	missing, err = state.s.verifier.Missing(project.Root, domain.Strings(node.Outputs))
	if err != nil {
		return fail(zerr.With(err, "node", id))
	}
	if len(missing) > 0 {
		err := zerr.With(zerr.Wrap(domain.ErrMissingOutput, "cannot record node"), "node", id)
		return fail(zerr.With(err, "path", strings.Join(missing, ", ")))
	}

	outputs, err := state.detector.FingerprintAll(project, node.Outputs)
	if err != nil {
		return fail(zerr.With(err, "node", id))
	}

	vertex.Complete(nil)
	return result{
		node:     node.ID,
		status:   domain.StatusBuilt,
		reason:   verdict.Reason,
		duration: state.s.now().Sub(start),
		record:   state.newRecord(node, verdict.Inputs, outputs),
	}
}

// reasonOf renders an error with its path metadata for the report.
func reasonOf(err error) string {
	msg := err.Error()
	var z *zerr.Error
	if !errors.As(err, &z) {
		return msg
	}
	if p, ok := z.Metadata()["path"].(string); ok && p != "" {
		return msg + " (" + p + ")"
	}
	return msg
}
