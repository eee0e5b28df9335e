// Package style provides shared colors and icons for terminal output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/ripple/internal/core/domain"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)

// Status is how a node status is drawn in reports.
type Status struct {
	Icon  string
	Color lipgloss.Color
}

var statuses = map[domain.NodeStatus]Status{
	domain.StatusBuilt:          {Check, Green},
	domain.StatusFresh:          {Circle, Slate},
	domain.StatusFailed:         {Cross, Red},
	domain.StatusUpstreamFailed: {Tilde, Yellow},
	domain.StatusCancelled:      {Warning, Yellow},
	domain.StatusWouldBuild:     {Dot, Iris},
	domain.StatusPending:        {Circle, Slate},
}

// ForStatus returns the icon and color for a node status.
func ForStatus(s domain.NodeStatus) Status {
	if st, ok := statuses[s]; ok {
		return st
	}
	return Status{Circle, Slate}
}
