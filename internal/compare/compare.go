// Package compare evaluates a candidate suggestion response against a
// scenario's expectation fixture.
package compare

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/suggestcheck/internal/rules"
	"github.com/dshills/suggestcheck/internal/schema"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

// RuleSource supplies the ordered rules for a scenario.
type RuleSource interface {
	Rules(scenarioID string) []rules.Rule
}

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Status   suggestion.Status `json:"status"`
	Findings []string          `json:"findings,omitempty"`
}

// Passed reports whether the verdict has no findings.
func (v Verdict) Passed() bool { return v.Status == suggestion.StatusPass }

// Comparator runs rules from a RuleSource. It holds no per-evaluation
// state and is safe for concurrent use.
type Comparator struct {
	source RuleSource
}

// New returns a Comparator drawing rules from source.
func New(source RuleSource) *Comparator {
	return &Comparator{source: source}
}

// Evaluate validates the expectation, then applies every rule for the
// scenario to the candidate. All findings are collected; a failing or
// panicking rule never stops the rules after it.
func (c *Comparator) Evaluate(candidate *suggestion.Response, expected json.RawMessage, ctx map[string]any, scenarioID string) Verdict {
	exp, err := schema.Parse(expected)
	if err != nil {
		return Verdict{
			Status:   suggestion.StatusFail,
			Findings: []string{fmt.Sprintf("expectation fixture invalid: %v", err)},
		}
	}

	in := rules.Input{Candidate: candidate, Expected: exp, Context: ctx}
	var findings []string
	for _, rule := range c.source.Rules(scenarioID) {
		findings = append(findings, run(rule, in)...)
	}
	return verdictOf(findings)
}

// run applies one rule, converting a panic into a finding.
func run(rule rules.Rule, in rules.Input) (findings []string) {
	name := ruleName(rule)
	defer func() {
		if p := recover(); p != nil {
			findings = []string{fmt.Sprintf("rule %s failed to execute: %v", name, p)}
		}
	}()
	for _, f := range rule.Check(in) {
		findings = append(findings, fmt.Sprintf("[%s] %s", name, f))
	}
	return findings
}

func ruleName(rule rules.Rule) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", rule)
		}
	}()
	return rule.Name()
}

func verdictOf(findings []string) Verdict {
	if len(findings) == 0 {
		return Verdict{Status: suggestion.StatusPass}
	}
	return Verdict{Status: suggestion.StatusFail, Findings: findings}
}
