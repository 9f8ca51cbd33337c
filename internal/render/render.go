// Package render produces Markdown and terminal reports from a batch run.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

// Markdown renders a batch as a Markdown report.
func Markdown(b runner.Batch) string {
	var sb strings.Builder
	sum := runner.Summarize(b)

	// Summary
	sb.WriteString("# Suggestion Check Report\n\n")
	fmt.Fprintf(&sb, "**Status:** %s\n", sum.Status)
	fmt.Fprintf(&sb, "**Scenarios:** %d total, %d passed, %d failed, %d errored\n\n",
		sum.Total, sum.Passed, sum.Failed, sum.Errored)

	if sum.Total == 0 {
		sb.WriteString("No scenarios were run.\n")
		return sb.String()
	}

	// Overview table
	sb.WriteString("| Scenario | Status | Items | Findings |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, e := range b.Entries() {
		items := "-"
		if e.Result != nil {
			items = fmt.Sprint(e.Result.Candidate.Len())
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %d |\n", e.ScenarioID, e.Status(), items, findingCount(e))
	}
	sb.WriteString("\n")

	// Failures and errors by scenario
	var failed, errored []runner.Entry
	for _, e := range b.Entries() {
		switch e.Status() {
		case suggestion.StatusFail:
			failed = append(failed, e)
		case runner.StatusError:
			errored = append(errored, e)
		}
	}

	if len(failed) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, e := range failed {
			renderFailure(&sb, e.Result)
		}
	}

	if len(errored) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, e := range errored {
			fmt.Fprintf(&sb, "### %s\n\n", e.ScenarioID)
			fmt.Fprintf(&sb, "> %s\n\n", errText(e))
		}
	}

	if len(failed) == 0 && len(errored) == 0 {
		sb.WriteString("All scenarios passed.\n")
	}

	return sb.String()
}

func renderFailure(sb *strings.Builder, r *runner.Result) {
	fmt.Fprintf(sb, "### %s\n\n", r.ScenarioID)
	for _, f := range r.Findings {
		fmt.Fprintf(sb, "- %s\n", f)
	}
	if len(r.Expected) > 0 {
		writeDetails(sb, "Expected", pretty(r.Expected))
	}
	writeDetails(sb, "Candidate", pretty(r.Candidate))
	sb.WriteString("\n")
}

func writeDetails(sb *strings.Builder, summary, body string) {
	fmt.Fprintf(sb, "\n<details><summary>%s</summary>\n\n```json\n", summary)
	sb.WriteString(body)
	sb.WriteString("\n```\n\n</details>\n")
}

func findingCount(e runner.Entry) int {
	if e.Result == nil {
		return 0
	}
	return len(e.Result.Findings)
}

func errText(e runner.Entry) string {
	if e.Err == nil {
		return "no result"
	}
	return e.Err.Error()
}

func pretty(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
