package domain

import "io"

// StageRequest is everything the stage executor needs to run one node.
// Paths are root-relative; Project carries the root and declared layout.
type StageRequest struct {
	NodeID  string
	Source  string
	Command []string
	Inputs  []string
	Outputs []string
	Env     map[string]string
	Project Project

	Stdout io.Writer
	Stderr io.Writer
}

// NewStageRequest builds the request for a resolved node.
func NewStageRequest(n *Node, project Project) *StageRequest {
	return &StageRequest{
		NodeID:  n.ID.String(),
		Source:  n.Source.String(),
		Command: n.Command,
		Inputs:  Strings(n.Inputs),
		Outputs: Strings(n.Outputs),
		Env:     n.Environment,
		Project: project,
	}
}
