package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/dshills/suggestcheck/internal/suggestion"
)

// InstanceCheck requires a candidate with an items sequence. With
// allowNoneOnly, a nil candidate is accepted.
func InstanceCheck(allowNoneOnly bool) Rule {
	name := "instance_check"
	if allowNoneOnly {
		name = "instance_check(allow_none)"
	}
	return New(name, func(in Input) []string {
		if in.Candidate == nil {
			if allowNoneOnly {
				return nil
			}
			return []string{"candidate response is nil"}
		}
		if in.Candidate.Items == nil {
			return []string{"candidate response has no items sequence"}
		}
		return nil
	})
}

// ItemCountAtMost fails when the candidate has more than n items.
func ItemCountAtMost(n int) Rule {
	return New(fmt.Sprintf("item_count_at_most(%d)", n), func(in Input) []string {
		if got := in.Candidate.Len(); got > n {
			return []string{fmt.Sprintf("too many items: got %d, want at most %d", got, n)}
		}
		return nil
	})
}

// ItemCountExactly fails unless the candidate has exactly n items.
func ItemCountExactly(n int) Rule {
	return New(fmt.Sprintf("item_count_exactly(%d)", n), func(in Input) []string {
		if got := in.Candidate.Len(); got != n {
			return []string{fmt.Sprintf("item count mismatch: got %d, want %d", got, n)}
		}
		return nil
	})
}

// ConfidenceInRange requires every confidence, item-level and
// response-level, to be a number within [0, 1].
func ConfidenceInRange() Rule {
	return New("confidence_in_range", func(in Input) []string {
		var findings []string
		check := func(label string, c float64) {
			switch {
			case math.IsNaN(c) || math.IsInf(c, 0):
				findings = append(findings, fmt.Sprintf("%s confidence not numeric: %v", label, c))
			case c < 0 || c > 1:
				findings = append(findings, fmt.Sprintf("%s confidence out of range: %v", label, c))
			}
		}
		if in.Candidate != nil && in.Candidate.Confidence != nil {
			check("response", *in.Candidate.Confidence)
		}
		for i, it := range items(in.Candidate) {
			check(fmt.Sprintf("item %d", i), it.Confidence)
		}
		return findings
	})
}

// ConfidenceAtMost flags any confidence above max. It guards scenarios with
// no actionable slot, where a confident answer is wrong.
func ConfidenceAtMost(max float64) Rule {
	return New(fmt.Sprintf("confidence_at_most(%g)", max), func(in Input) []string {
		var findings []string
		check := func(label string, c float64) {
			switch {
			case math.IsNaN(c):
				findings = append(findings, fmt.Sprintf("%s confidence not numeric: %v", label, c))
			case c > max:
				findings = append(findings, fmt.Sprintf("%s confidence too high: %v > %v", label, c, max))
			}
		}
		if in.Candidate != nil && in.Candidate.Confidence != nil {
			check("response", *in.Candidate.Confidence)
		}
		for i, it := range items(in.Candidate) {
			check(fmt.Sprintf("item %d", i), it.Confidence)
		}
		return findings
	})
}

// RequiredItemFields requires every named field on every item to be
// present and, for text fields, not blank.
func RequiredItemFields(fields []string) Rule {
	fields = append([]string(nil), fields...)
	return New(fmt.Sprintf("required_item_fields(%s)", strings.Join(fields, ",")), func(in Input) []string {
		var findings []string
		for i, it := range items(in.Candidate) {
			for _, f := range fields {
				v, ok := it.Field(f)
				if s, isStr := v.(string); ok && isStr && strings.TrimSpace(s) == "" {
					ok = false
				}
				if !ok {
					findings = append(findings, fmt.Sprintf("item %d missing required field %q", i, f))
				}
			}
		}
		return findings
	})
}

// AtLeastOneItemType passes when some item has item_type t.
func AtLeastOneItemType(t suggestion.ItemType) Rule {
	return New(fmt.Sprintf("at_least_one_item_type(%d)", int(t)), func(in Input) []string {
		for _, it := range items(in.Candidate) {
			if it.ItemType == t {
				return nil
			}
		}
		return []string{fmt.Sprintf("no item with item_type=%d (%s) found", int(t), t)}
	})
}

// NoItemType fails when any item has item_type t.
func NoItemType(t suggestion.ItemType) Rule {
	return New(fmt.Sprintf("no_item_type(%d)", int(t)), func(in Input) []string {
		for i, it := range items(in.Candidate) {
			if it.ItemType == t {
				return []string{fmt.Sprintf("unexpected item_type=%d (%s) present at item %d", int(t), t, i)}
			}
		}
		return nil
	})
}
