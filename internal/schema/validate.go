// Package schema parses and validates suggestion payloads against the
// suggestion contract.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/suggestcheck/internal/suggestion"
	"github.com/google/uuid"
)

const (
	MinEstimatedMinutes = 1
	MaxEstimatedMinutes = 300
)

var deadlinePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// SchemaError is returned when a payload violates the contract. It carries
// every violation found, in document order.
type SchemaError struct {
	Errors []ValidationError
}

func (e *SchemaError) Error() string {
	if len(e.Errors) == 1 {
		return "schema violation: " + e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		parts[i] = v.Error()
	}
	return fmt.Sprintf("%d schema violations: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Validate checks a constructed Response for value constraints. It does not
// detect missing fields; Parse does that against the raw document.
func Validate(r *suggestion.Response) []ValidationError {
	var errs []ValidationError
	if r == nil {
		return []ValidationError{{"", "response is nil"}}
	}
	for i, it := range r.Items {
		errs = append(errs, validateItem(fmt.Sprintf("items[%d]", i), it)...)
	}
	return errs
}

func validateItem(prefix string, it suggestion.Item) []ValidationError {
	var errs []ValidationError
	if !it.ItemType.Valid() {
		errs = append(errs, ValidationError{prefix + ".item_type", fmt.Sprintf("must be 0 (task) or 1 (checklist), got %d", int(it.ItemType))})
	}
	if strings.TrimSpace(it.Title) == "" {
		errs = append(errs, ValidationError{prefix + ".title", "must not be empty"})
	}
	if it.ParentTaskID != nil {
		if _, err := uuid.Parse(*it.ParentTaskID); err != nil {
			errs = append(errs, ValidationError{prefix + ".parentTaskId", fmt.Sprintf("must be a UUID, got %q", *it.ParentTaskID)})
		}
	}
	if it.EstimatedMinutes < MinEstimatedMinutes || it.EstimatedMinutes > MaxEstimatedMinutes {
		errs = append(errs, ValidationError{prefix + ".estimatedMinutes", fmt.Sprintf("must be between %d and %d, got %d", MinEstimatedMinutes, MaxEstimatedMinutes, it.EstimatedMinutes)})
	}
	if !ValidDeadline(it.Deadline) {
		errs = append(errs, ValidationError{prefix + ".deadline", fmt.Sprintf("must match YYYY-MM-DDTHH:MM:SSZ, got %q", it.Deadline)})
	}
	if math.IsNaN(it.Confidence) || it.Confidence < 0 || it.Confidence > 1 {
		errs = append(errs, ValidationError{prefix + ".confidence", fmt.Sprintf("must be within [0, 1], got %v", it.Confidence)})
	}
	return errs
}

// ValidDeadline reports whether s is a canonical UTC instant.
func ValidDeadline(s string) bool {
	if !deadlinePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(suggestion.DeadlineLayout, s)
	return err == nil
}
