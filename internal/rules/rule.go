// Package rules provides composable predicates over suggestion responses.
//
// A rule is built once from fixed parameters and may be checked any number
// of times, from any goroutine. Check never mutates its input and never
// panics on malformed values: anything it cannot accept becomes a finding.
package rules

import (
	"fmt"
	"time"

	"github.com/dshills/suggestcheck/internal/suggestion"
)

// Input is what every rule sees for one evaluation.
type Input struct {
	Candidate *suggestion.Response
	Expected  *suggestion.Response
	Context   map[string]any
}

// Rule checks one semantic property and returns a finding per violation.
// An empty result means the property holds.
type Rule interface {
	Name() string
	Check(in Input) []string
}

type ruleFunc struct {
	name string
	fn   func(Input) []string
}

func (r ruleFunc) Name() string            { return r.name }
func (r ruleFunc) Check(in Input) []string { return r.fn(in) }

// New wraps fn as a Rule.
func New(name string, fn func(Input) []string) Rule {
	return ruleFunc{name: name, fn: fn}
}

// Type returns a pointer to t, for rules that take an optional item type.
func Type(t suggestion.ItemType) *suggestion.ItemType {
	return &t
}

func items(r *suggestion.Response) []suggestion.Item {
	if r == nil {
		return nil
	}
	return r.Items
}

func matches(filter *suggestion.ItemType, it suggestion.Item) bool {
	return filter == nil || it.ItemType == *filter
}

func typeSuffix(filter *suggestion.ItemType) string {
	if filter == nil {
		return ""
	}
	return fmt.Sprintf(", item_type=%d", int(*filter))
}

// parseTime accepts RFC 3339 instants. Anything else yields ok=false.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
