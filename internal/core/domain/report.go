package domain

import "time"

// NodeStatus is the outcome of a node in one run.
type NodeStatus string

const (
	// StatusPending means the node has not been evaluated yet.
	StatusPending NodeStatus = "Pending"
	// StatusBuilt means the stage executor ran and succeeded.
	StatusBuilt NodeStatus = "Built"
	// StatusFresh means the node was already up to date.
	StatusFresh NodeStatus = "Fresh"
	// StatusFailed means the node was attempted and failed.
	StatusFailed NodeStatus = "Failed"
	// StatusUpstreamFailed means the node was skipped because a dependency failed.
	StatusUpstreamFailed NodeStatus = "UpstreamFailed"
	// StatusCancelled means the run was cancelled before the node completed.
	StatusCancelled NodeStatus = "Cancelled"
	// StatusWouldBuild is used in dry-run reports for nodes that would run.
	StatusWouldBuild NodeStatus = "WouldBuild"
)

// NodeResult is one line of the final report.
type NodeResult struct {
	Node     string
	Status   NodeStatus
	Reason   string
	Upstream string
	Duration time.Duration
}

// Report summarizes a run in plan order.
type Report struct {
	RunID   string
	DryRun  bool
	Results []NodeResult
}

// Count returns how many nodes ended with the given status.
func (r *Report) Count(status NodeStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any node failed, was skipped by a failure or was cancelled.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		switch res.Status {
		case StatusFailed, StatusUpstreamFailed, StatusCancelled:
			return true
		case StatusPending, StatusBuilt, StatusFresh, StatusWouldBuild:
		}
	}
	return false
}

// Result returns the result for a node id.
func (r *Report) Result(node string) (NodeResult, bool) {
	for _, res := range r.Results {
		if res.Node == node {
			return res, true
		}
	}
	return NodeResult{}, false
}
