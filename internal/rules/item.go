package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/suggestcheck/internal/suggestion"
)

// ParentNullForType passes when some item of type t has no parent task.
func ParentNullForType(t suggestion.ItemType) Rule {
	return New(fmt.Sprintf("parent_null_for_type(%d)", int(t)), func(in Input) []string {
		for _, it := range items(in.Candidate) {
			if it.ItemType == t && !it.HasParent() {
				return nil
			}
		}
		return []string{fmt.Sprintf("no item_type=%d item found with parentTaskId=null", int(t))}
	})
}

// ParentEquals passes when some item of type t has parentTaskId equal to
// id. Comparison is on the string form.
func ParentEquals(t suggestion.ItemType, id string) Rule {
	return New(fmt.Sprintf("parent_equals(%d,%s)", int(t), id), func(in Input) []string {
		for _, it := range items(in.Candidate) {
			if it.ItemType == t && it.HasParent() && it.ParentID() == id {
				return nil
			}
		}
		return []string{fmt.Sprintf("no item_type=%d item found with parentTaskId=%s", int(t), id)}
	})
}

// DeadlineBefore fails for matching items whose deadline is after limit,
// or at limit when allowEqual is false. A nil itemType matches every item.
// Unparseable deadlines are skipped; the schema rejects those.
func DeadlineBefore(limit time.Time, itemType *suggestion.ItemType, allowEqual bool) Rule {
	limit = limit.UTC()
	name := fmt.Sprintf("deadline_before(%s%s)", formatTime(limit), typeSuffix(itemType))
	return New(name, func(in Input) []string {
		var findings []string
		for i, it := range items(in.Candidate) {
			if !matches(itemType, it) {
				continue
			}
			d, ok := parseTime(it.Deadline)
			if !ok {
				continue
			}
			switch {
			case allowEqual && d.After(limit):
				findings = append(findings, fmt.Sprintf("item %d deadline too late: %s > %s", i, formatTime(d), formatTime(limit)))
			case !allowEqual && !d.Before(limit):
				findings = append(findings, fmt.Sprintf("item %d deadline not strictly before %s: %s", i, formatTime(limit), formatTime(d)))
			}
		}
		return findings
	})
}

// EstimatedMinutesAtMost fails for matching items estimated above max.
func EstimatedMinutesAtMost(max int, itemType *suggestion.ItemType) Rule {
	name := fmt.Sprintf("estimated_minutes_at_most(%d%s)", max, typeSuffix(itemType))
	return New(name, func(in Input) []string {
		var findings []string
		for i, it := range items(in.Candidate) {
			if !matches(itemType, it) {
				continue
			}
			em := it.EstimatedMinutes
			switch {
			case em == 0:
			case em < 0:
				findings = append(findings, fmt.Sprintf("item %d estimatedMinutes not a valid number: %d", i, em))
			case em > max:
				findings = append(findings, fmt.Sprintf("item %d estimatedMinutes too large: %d > %d", i, em, max))
			}
		}
		return findings
	})
}

// AvoidTimeRange flags any item timestamp (deadline, startUtc, endUtc)
// inside the inclusive window [start, end].
func AvoidTimeRange(start, end time.Time) Rule {
	start, end = start.UTC(), end.UTC()
	name := fmt.Sprintf("avoid_time_range(%s,%s)", formatTime(start), formatTime(end))
	return New(name, func(in Input) []string {
		var findings []string
		for i, it := range items(in.Candidate) {
			for _, f := range []struct {
				name  string
				value string
			}{
				{"deadline", it.Deadline},
				{"startUtc", it.StartUTC},
				{"endUtc", it.EndUTC},
			} {
				d, ok := parseTime(f.value)
				if !ok || d.Before(start) || d.After(end) {
					continue
				}
				findings = append(findings, fmt.Sprintf("item %d %s=%s overlaps forbidden window %s - %s",
					i, f.name, formatTime(d), formatTime(start), formatTime(end)))
			}
		}
		return findings
	})
}

// TimeoutAndRetry fails when the recorded response time exceeds
// thresholdMS and no retry was recorded. Without timing metadata the rule
// holds.
func TimeoutAndRetry(thresholdMS int64) Rule {
	return New(fmt.Sprintf("timeout_and_retry(%d)", thresholdMS), func(in Input) []string {
		if in.Candidate == nil || in.Candidate.Metadata == nil {
			return nil
		}
		md := in.Candidate.Metadata
		if md.ResponseMS == nil || *md.ResponseMS == 0 {
			return nil
		}
		retries := 0
		if md.Retries != nil {
			retries = *md.Retries
		}
		if *md.ResponseMS > thresholdMS && retries < 1 {
			return []string{fmt.Sprintf("response_ms %d > %d without retry", *md.ResponseMS, thresholdMS)}
		}
		return nil
	})
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
