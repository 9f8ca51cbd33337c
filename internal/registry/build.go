package registry

import (
	"fmt"
	"math"
	"time"

	"github.com/dshills/suggestcheck/internal/rules"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

// RuleSpec is the YAML form of one rule. Only the parameters the named rule
// uses are read.
type RuleSpec struct {
	Rule          string   `yaml:"rule"`
	N             *int     `yaml:"n"`
	Max           *float64 `yaml:"max"`
	Fields        []string `yaml:"fields"`
	ItemType      *int     `yaml:"item_type"`
	ParentID      string   `yaml:"parent_id"`
	Limit         string   `yaml:"limit"`
	AllowEqual    *bool    `yaml:"allow_equal"`
	Keywords      []string `yaml:"keywords"`
	AnyOf         *bool    `yaml:"any_of"`
	Where         string   `yaml:"where"`
	Start         string   `yaml:"start"`
	End           string   `yaml:"end"`
	ThresholdMS   *int64   `yaml:"threshold_ms"`
	AllowNoneOnly bool     `yaml:"allow_none_only"`
}

// Build constructs the rule a spec describes.
func Build(s RuleSpec) (rules.Rule, error) {
	switch s.Rule {
	case "instance_check":
		return rules.InstanceCheck(s.AllowNoneOnly), nil

	case "item_count_at_most", "item_count_exactly":
		if s.N == nil || *s.N < 0 {
			return nil, fmt.Errorf("%s: n must be a non-negative integer", s.Rule)
		}
		if s.Rule == "item_count_at_most" {
			return rules.ItemCountAtMost(*s.N), nil
		}
		return rules.ItemCountExactly(*s.N), nil

	case "confidence_in_range":
		return rules.ConfidenceInRange(), nil

	case "confidence_at_most":
		if s.Max == nil {
			return nil, fmt.Errorf("%s: max is required", s.Rule)
		}
		return rules.ConfidenceAtMost(*s.Max), nil

	case "required_item_fields":
		if len(s.Fields) == 0 {
			return nil, fmt.Errorf("%s: fields is required", s.Rule)
		}
		return rules.RequiredItemFields(s.Fields), nil

	case "at_least_one_item_type", "no_item_type", "parent_null_for_type":
		t, err := requiredType(s)
		if err != nil {
			return nil, err
		}
		switch s.Rule {
		case "at_least_one_item_type":
			return rules.AtLeastOneItemType(t), nil
		case "no_item_type":
			return rules.NoItemType(t), nil
		default:
			return rules.ParentNullForType(t), nil
		}

	case "parent_equals":
		t, err := requiredType(s)
		if err != nil {
			return nil, err
		}
		if s.ParentID == "" {
			return nil, fmt.Errorf("%s: parent_id is required", s.Rule)
		}
		return rules.ParentEquals(t, s.ParentID), nil

	case "deadline_before":
		limit, err := parseInstant(s.Rule, "limit", s.Limit)
		if err != nil {
			return nil, err
		}
		filter, err := optionalType(s)
		if err != nil {
			return nil, err
		}
		allowEqual := true
		if s.AllowEqual != nil {
			allowEqual = *s.AllowEqual
		}
		return rules.DeadlineBefore(limit, filter, allowEqual), nil

	case "estimated_minutes_at_most":
		if s.Max == nil || *s.Max != math.Trunc(*s.Max) {
			return nil, fmt.Errorf("%s: max must be an integer", s.Rule)
		}
		filter, err := optionalType(s)
		if err != nil {
			return nil, err
		}
		return rules.EstimatedMinutesAtMost(int(*s.Max), filter), nil

	case "reason_contains":
		if len(s.Keywords) == 0 {
			return nil, fmt.Errorf("%s: keywords is required", s.Rule)
		}
		where, err := rules.ParseScope(s.Where)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Rule, err)
		}
		anyOf := true
		if s.AnyOf != nil {
			anyOf = *s.AnyOf
		}
		return rules.ReasonContains(s.Keywords, anyOf, where), nil

	case "reason_matches_expected":
		return rules.ReasonMatchesExpected(), nil

	case "avoid_time_range":
		start, err := parseInstant(s.Rule, "start", s.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseInstant(s.Rule, "end", s.End)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%s: end %s is before start %s", s.Rule, s.End, s.Start)
		}
		return rules.AvoidTimeRange(start, end), nil

	case "timeout_and_retry":
		threshold := int64(15000)
		if s.ThresholdMS != nil {
			threshold = *s.ThresholdMS
		}
		return rules.TimeoutAndRetry(threshold), nil

	case "":
		return nil, fmt.Errorf("rule name is required")
	}
	return nil, fmt.Errorf("unknown rule %q", s.Rule)
}

func requiredType(s RuleSpec) (suggestion.ItemType, error) {
	if s.ItemType == nil {
		return 0, fmt.Errorf("%s: item_type is required", s.Rule)
	}
	t := suggestion.ItemType(*s.ItemType)
	if !t.Valid() {
		return 0, fmt.Errorf("%s: invalid item_type %d", s.Rule, *s.ItemType)
	}
	return t, nil
}

func optionalType(s RuleSpec) (*suggestion.ItemType, error) {
	if s.ItemType == nil {
		return nil, nil
	}
	t, err := requiredType(s)
	if err != nil {
		return nil, err
	}
	return rules.Type(t), nil
}

func parseInstant(rule, field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%s: %s is required", rule, field)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid %s %q: %w", rule, field, v, err)
	}
	return t, nil
}
