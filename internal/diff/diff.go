// Package diff writes unified diffs between expected and candidate
// responses for failing scenarios.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/dshills/suggestcheck/internal/suggestion"
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff from the expectation to the candidate of
// r. Both sides are normalized to indented JSON with sorted keys so only
// content differences show.
func Unified(r *runner.Result) (string, error) {
	expected, err := normalize(r.Expected)
	if err != nil {
		return "", fmt.Errorf("diff.Unified: expected: %w", err)
	}
	candidate := r.Candidate
	if candidate == nil {
		candidate = suggestion.Empty()
	}
	raw, err := json.Marshal(candidate)
	if err != nil {
		return "", fmt.Errorf("diff.Unified: candidate: %w", err)
	}
	got, err := normalize(raw)
	if err != nil {
		return "", fmt.Errorf("diff.Unified: candidate: %w", err)
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(got),
		FromFile: "expected/" + r.ScenarioID + ".json",
		ToFile:   "candidate/" + r.ScenarioID + ".json",
		Context:  3,
	})
}

func normalize(raw json.RawMessage) (string, error) {
	var v any
	if len(raw) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// WriteFile writes diffs for every failing scenario in b to outPath, in
// scenario id order. If nothing failed, any existing file at outPath is
// removed.
func WriteFile(b runner.Batch, outPath string) error {
	var sb strings.Builder
	for _, e := range b.Entries() {
		if e.Status() != suggestion.StatusFail {
			continue
		}
		d, err := Unified(e.Result)
		if err != nil {
			return err
		}
		sb.WriteString(d)
		if d != "" && !strings.HasSuffix(d, "\n") {
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("diff.WriteFile: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("diff.WriteFile: %w", err)
	}
	return nil
}
