package scheduler

import (
	"strings"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// predict walks the plan in order without executing stages or writing the
// store. A node would build when it is stale or any upstream node would build.
func (s *Scheduler) predict(
	graph *domain.Graph,
	detector *staleness.Detector,
	plan []domain.InternedString,
	opts Options,
) (*domain.Report, error) {
	report := &domain.Report{RunID: opts.RunID, DryRun: true}
	project := graph.Project()
	outcome := make(map[domain.InternedString]domain.NodeResult, len(plan))

	for _, id := range plan {
		node, _ := graph.GetNode(id)
		res := s.predictNode(&node, project, detector, opts.Force, outcome)
		outcome[id] = res
		s.updateStatus(id, res.Status)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (s *Scheduler) predictNode(
	node *domain.Node,
	project domain.Project,
	detector *staleness.Detector,
	force bool,
	outcome map[domain.InternedString]domain.NodeResult,
) domain.NodeResult {
	id := node.ID.String()

	for _, up := range node.Upstream {
		switch prev := outcome[up]; prev.Status {
		case domain.StatusFailed:
			return domain.NodeResult{Node: id, Status: domain.StatusUpstreamFailed, Reason: "upstream failure: " + up.String(), Upstream: up.String()}
		case domain.StatusUpstreamFailed:
			return domain.NodeResult{Node: id, Status: domain.StatusUpstreamFailed, Reason: prev.Reason, Upstream: prev.Upstream}
		case domain.StatusPending, domain.StatusBuilt, domain.StatusFresh, domain.StatusCancelled, domain.StatusWouldBuild:
		}
	}

	missing, err := s.verifier.Missing(project.Root, domain.Strings(node.Leaves))
	if err != nil {
		return domain.NodeResult{Node: id, Status: domain.StatusFailed, Reason: err.Error()}
	}
	if len(missing) > 0 {
		err := zerr.With(zerr.Wrap(domain.ErrMissingDependencyFile, "cannot build node"), "path", strings.Join(missing, ", "))
		return domain.NodeResult{Node: id, Status: domain.StatusFailed, Reason: reasonOf(err)}
	}

	for _, up := range node.Upstream {
		if outcome[up].Status == domain.StatusWouldBuild {
			return domain.NodeResult{Node: id, Status: domain.StatusWouldBuild, Reason: "upstream would build: " + up.String()}
		}
	}

	verdict, err := detector.Check(node, project, force)
	if err != nil {
		return domain.NodeResult{Node: id, Status: domain.StatusFailed, Reason: err.Error()}
	}
	if verdict.Stale {
		return domain.NodeResult{Node: id, Status: domain.StatusWouldBuild, Reason: verdict.Reason}
	}
	return domain.NodeResult{Node: id, Status: domain.StatusFresh, Reason: "already fresh"}
}
