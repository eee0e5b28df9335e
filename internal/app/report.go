package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/ui/output"
	"go.trai.ch/ripple/internal/ui/style"
)

func (a *App) renderer() *lipgloss.Renderer {
	return lipgloss.NewRenderer(a.out, termenv.WithProfile(output.ColorProfile()))
}

func (a *App) renderReport(report *domain.Report) error {
	r := a.renderer()
	dim := r.NewStyle().Foreground(style.Slate)

	nodeWidth, statusWidth := 0, 0
	for _, res := range report.Results {
		nodeWidth = max(nodeWidth, len(res.Node))
		statusWidth = max(statusWidth, len(res.Status))
	}

	var b strings.Builder
	for _, res := range report.Results {
		st := style.ForStatus(res.Status)
		colored := r.NewStyle().Foreground(st.Color)

		b.WriteString(colored.Render(st.Icon))
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%-*s", nodeWidth, res.Node))
		b.WriteString("  ")
		b.WriteString(colored.Render(fmt.Sprintf("%-*s", statusWidth, res.Status)))
		if res.Reason != "" {
			b.WriteString("  ")
			b.WriteString(dim.Render(res.Reason))
		}
		if res.Status == domain.StatusBuilt && res.Duration > 0 {
			b.WriteString(dim.Render(" (" + res.Duration.Round(time.Millisecond).String() + ")"))
		}
		b.WriteString("\n")
	}

	b.WriteString(summary(report))
	b.WriteString("\n")

	_, err := fmt.Fprint(a.out, b.String())
	return err
}

func summary(report *domain.Report) string {
	if report.DryRun {
		return fmt.Sprintf("dry run: %d would build, %d fresh, %d failed, %d skipped",
			report.Count(domain.StatusWouldBuild),
			report.Count(domain.StatusFresh),
			report.Count(domain.StatusFailed),
			report.Count(domain.StatusUpstreamFailed),
		)
	}
	line := fmt.Sprintf("%d built, %d fresh, %d failed, %d skipped",
		report.Count(domain.StatusBuilt),
		report.Count(domain.StatusFresh),
		report.Count(domain.StatusFailed),
		report.Count(domain.StatusUpstreamFailed),
	)
	if n := report.Count(domain.StatusCancelled); n > 0 {
		line += fmt.Sprintf(", %d cancelled", n)
	}
	if report.RunID != "" {
		line += " (run " + report.RunID + ")"
	}
	return line
}

func (a *App) renderPlan(graph *domain.Graph, plan []domain.InternedString) error {
	r := a.renderer()
	accent := r.NewStyle().Foreground(style.Iris)
	dim := r.NewStyle().Foreground(style.Slate)

	var b strings.Builder
	for i, id := range plan {
		node, _ := graph.GetNode(id)
		fmt.Fprintf(&b, "%3d. %s", i+1, accent.Render(id.String()))
		b.WriteString(dim.Render(" -> " + strings.Join(domain.Strings(node.Outputs), ", ")))
		if len(node.Upstream) > 0 {
			b.WriteString(dim.Render(" (after " + strings.Join(domain.Strings(node.Upstream), ", ") + ")"))
		}
		b.WriteString("\n")
	}
	_, err := fmt.Fprint(a.out, b.String())
	return err
}

func (a *App) renderClean(nodes int, removed []string) error {
	r := a.renderer()
	ok := r.NewStyle().Foreground(style.Green)
	_, err := fmt.Fprintf(a.out, "%s cleaned %d node(s), removed %d path(s)\n", ok.Render(style.Check), nodes, len(removed))
	return err
}
