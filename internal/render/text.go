package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFAF"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87AF87"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AF5F5F"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7AF5F"))
	idStyle     = lipgloss.NewStyle().Width(12)
)

// Text renders a batch for a terminal. Colors are dropped automatically
// when the output is not a TTY.
func Text(b runner.Batch) string {
	var sb strings.Builder
	sum := runner.Summarize(b)

	sb.WriteString(titleStyle.Render("Suggestion check"))
	sb.WriteString("\n\n")

	for _, e := range b.Entries() {
		sb.WriteString(idStyle.Render(e.ScenarioID))
		sb.WriteString(status(e.Status()))
		sb.WriteString("\n")
		switch {
		case e.Err != nil:
			sb.WriteString(subtleStyle.Render("    " + e.Err.Error()))
			sb.WriteString("\n")
		case e.Result != nil:
			for _, f := range e.Result.Findings {
				sb.WriteString(subtleStyle.Render("    - " + f))
				sb.WriteString("\n")
			}
		}
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s  %d passed, %d failed, %d errored of %d\n",
		status(sum.Status), sum.Passed, sum.Failed, sum.Errored, sum.Total)
	return sb.String()
}

func status(s suggestion.Status) string {
	switch s {
	case suggestion.StatusPass:
		return passStyle.Render(string(s))
	case suggestion.StatusFail:
		return failStyle.Render(string(s))
	default:
		return errorStyle.Render(string(s))
	}
}
