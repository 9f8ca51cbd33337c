package rules

import (
	"fmt"
	"strings"
)

// Scope selects which reason fields a keyword rule searches.
type Scope string

const (
	ScopeResponse Scope = "response"
	ScopeItem     Scope = "item"
	ScopeEither   Scope = "either"
)

// ParseScope converts a configured scope name. "global" is accepted as an
// alias of "response".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "response", "global":
		return ScopeResponse, nil
	case "item", "items":
		return ScopeItem, nil
	case "either", "any":
		return ScopeEither, nil
	}
	return "", fmt.Errorf("rules.ParseScope: unknown scope %q (want response, item, or either)", s)
}

// ReasonContains checks reason text for keywords, case-insensitively.
// With anyOf one keyword suffices; otherwise a single reason must contain
// all of them. A failure yields exactly one finding.
func ReasonContains(keywords []string, anyOf bool, where Scope) Rule {
	kws := lowerAll(keywords)
	mode := "all"
	if anyOf {
		mode = "any"
	}
	name := fmt.Sprintf("reason_contains(%s:%s,%s)", mode, strings.Join(keywords, "|"), where)

	has := func(text string) bool {
		if text == "" {
			return false
		}
		t := strings.ToLower(text)
		for _, k := range kws {
			found := strings.Contains(t, k)
			if anyOf && found {
				return true
			}
			if !anyOf && !found {
				return false
			}
		}
		return !anyOf
	}

	return New(name, func(in Input) []string {
		if in.Candidate != nil {
			if (where == ScopeResponse || where == ScopeEither) && has(in.Candidate.Reason) {
				return nil
			}
			if where == ScopeItem || where == ScopeEither {
				for _, it := range in.Candidate.Items {
					if has(it.Reason) {
						return nil
					}
				}
			}
		}
		return []string{fmt.Sprintf("reason does not contain %s of keywords %q (where=%s)", mode, keywords, where)}
	})
}

// ReasonMatchesExpected requires the expectation's reason to appear inside
// the candidate's reason, ignoring case and surrounding space. When either
// side has no reason the rule holds.
func ReasonMatchesExpected() Rule {
	return New("reason_matches_expected", func(in Input) []string {
		var got, want string
		if in.Candidate != nil {
			got = strings.ToLower(strings.TrimSpace(in.Candidate.Reason))
		}
		if in.Expected != nil {
			want = strings.ToLower(strings.TrimSpace(in.Expected.Reason))
		}
		if got == "" || want == "" {
			return nil
		}
		if !strings.Contains(got, want) {
			return []string{fmt.Sprintf("reason mismatch: candidate=%q expected~=%q", got, want)}
		}
		return nil
	})
}
