package domain

import "time"

// NodeRecord is the signature store entry for a node's last successful build.
type NodeRecord struct {
	Node        string                 `json:"node"`
	Sequence    uint64                 `json:"sequence"`
	RunID       string                 `json:"run_id,omitzero"`
	CompletedAt time.Time              `json:"completed_at,omitzero"`
	Definition  string                 `json:"definition,omitzero"`
	Inputs      map[string]Fingerprint `json:"inputs"`
	Outputs     map[string]Fingerprint `json:"outputs"`
}
