package runner

import (
	"encoding/json"
	"sort"

	"github.com/dshills/suggestcheck/internal/suggestion"
)

// StatusError marks a scenario that could not be evaluated.
const StatusError suggestion.Status = "ERROR"

// Entry is one scenario's slot in a Batch: a Result, or the error that
// prevented one.
type Entry struct {
	ScenarioID string
	Result     *Result
	Err        error
}

// Status returns the result status, or StatusError.
func (e Entry) Status() suggestion.Status {
	if e.Err != nil || e.Result == nil {
		return StatusError
	}
	return e.Result.Status
}

// MarshalJSON encodes the result, or {"scenarioId", "error"} on failure.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Err != nil || e.Result == nil {
		msg := "no result"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return json.Marshal(struct {
			ScenarioID string `json:"scenarioId"`
			Error      string `json:"error"`
		}{e.ScenarioID, msg})
	}
	return json.Marshal(e.Result)
}

// Batch maps scenario id to its entry.
type Batch map[string]Entry

// IDs returns the batch's scenario ids in sorted order.
func (b Batch) IDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns the entries ordered by scenario id.
func (b Batch) Entries() []Entry {
	out := make([]Entry, 0, len(b))
	for _, id := range b.IDs() {
		out = append(out, b[id])
	}
	return out
}

// Summary counts outcomes across a batch.
type Summary struct {
	Status  suggestion.Status `json:"status"`
	Total   int               `json:"total"`
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Errored int               `json:"errored"`
}

// Summarize derives the overall status and per-outcome counts. The batch
// passes only when every scenario passed; any error makes it ERROR,
// otherwise any failure makes it FAIL.
func Summarize(b Batch) Summary {
	s := Summary{Total: len(b)}
	for _, e := range b {
		switch e.Status() {
		case suggestion.StatusPass:
			s.Passed++
		case suggestion.StatusFail:
			s.Failed++
		default:
			s.Errored++
		}
	}

	switch {
	case s.Errored > 0:
		s.Status = StatusError
	case s.Failed > 0:
		s.Status = suggestion.StatusFail
	default:
		s.Status = suggestion.StatusPass
	}
	return s
}
