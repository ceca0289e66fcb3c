package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fndando/dispatchsim/controller"
	"github.com/fndando/dispatchsim/simulation"
)

// Styles mirror the palette lox-pokerforbots/internal/tui/styles.go uses
// for its own terminal summaries — bold header, a success/warning split on
// whether a controller actually completed every train.
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)
)

// RenderSummary builds a lipgloss-styled terminal table across every
// controller family that ran this scenario (spec.md §6 "Outputs" — "a
// report listing trains, per-controller stats").
func RenderSummary(title string, controllers []*controller.BaseController) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n\n")

	for _, c := range controllers {
		statusStyle := warningStyle
		if c.BestSolutionStatus == simulation.StatusSuccess {
			statusStyle = successStyle
		}

		fmt.Fprintf(&sb, "%s\n", lipgloss.NewStyle().Bold(true).Render(c.Name))
		fmt.Fprintf(&sb, "  %s %d    %s %d    %s %s\n",
			labelStyle.Render("iterations:"), c.IterationsCounter,
			labelStyle.Render("successful:"), c.SuccessfulIterationsCounter,
			labelStyle.Render("stop reason:"), c.StopReason)
		fmt.Fprintf(&sb, "  %s %v    %s %s    %s %s\n\n",
			labelStyle.Render("best cost:"), c.BestSolutionCost,
			labelStyle.Render("status:"), statusStyle.Render(string(c.BestSolutionStatus)),
			labelStyle.Render("runtime:"), c.Runtime)
	}
	return sb.String()
}

// WriteReportFile writes the plain-text per-controller report (each
// BaseController.Report()) to filename, the teacher's report_to_file
// equivalent — a durable artifact alongside the styled stdout summary.
func WriteReportFile(filename string, controllers []*controller.BaseController) error {
	var sb strings.Builder
	for _, c := range controllers {
		sb.WriteString(c.Report())
	}
	return os.WriteFile(filename, []byte(sb.String()), 0o644)
}
