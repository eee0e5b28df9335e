package scheduler

import (
	"maps"
	"time"

	"go.trai.ch/ripple/internal/core/domain"
)

// GetNodeStatusMap returns a copy of the internal node status map.
// This is exported for testing purposes only.
func (s *Scheduler) GetNodeStatusMap() map[domain.InternedString]domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.nodeStatus)
}

// SetClock replaces the scheduler's time source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}
