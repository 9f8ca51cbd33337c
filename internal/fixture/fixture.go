// Package fixture loads per-scenario context and expectation documents.
package fixture

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is matched by every error reporting a missing or unreadable
// fixture.
var ErrNotFound = errors.New("fixture not found")

// NotFoundError names the scenario and file that could not be loaded.
type NotFoundError struct {
	ScenarioID string
	Path       string
	Err        error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fixture %s for scenario %s: %v", e.Path, e.ScenarioID, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Scenario holds the two documents for one scenario.
type Scenario struct {
	ID           string
	Context      map[string]any
	Expected     json.RawMessage
	ContextHash  string
	ExpectedHash string
}

// Store loads scenarios by id.
type Store interface {
	Load(ctx context.Context, id string) (*Scenario, error)
	List(ctx context.Context) ([]string, error)
}

const (
	contextDir  = "context"
	expectedDir = "expected"
)

// ContextPath and ExpectedPath are the slash-separated locations of a
// scenario's documents relative to a store root.
func ContextPath(id string) string  { return path.Join(contextDir, id+".json") }
func ExpectedPath(id string) string { return path.Join(expectedDir, id+".json") }

// decode builds a Scenario from the raw bytes of both documents. The
// context must be a JSON object; the expectation must be well-formed JSON.
// Schema validation of the expectation is left to the comparator.
func decode(id string, ctxData, expData []byte) (*Scenario, error) {
	var ctxDoc map[string]any
	if err := json.Unmarshal(ctxData, &ctxDoc); err != nil {
		return nil, &NotFoundError{ScenarioID: id, Path: ContextPath(id), Err: fmt.Errorf("not a JSON object: %w", err)}
	}
	if ctxDoc == nil {
		return nil, &NotFoundError{ScenarioID: id, Path: ContextPath(id), Err: errors.New("context is null")}
	}
	if !json.Valid(expData) {
		return nil, &NotFoundError{ScenarioID: id, Path: ExpectedPath(id), Err: errors.New("invalid JSON")}
	}
	return &Scenario{
		ID:           id,
		Context:      ctxDoc,
		Expected:     json.RawMessage(expData),
		ContextHash:  hash(ctxData),
		ExpectedHash: hash(expData),
	}, nil
}

func hash(data []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data))
}

// validID rejects ids that would escape the store layout.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("fixture: invalid scenario id %q", id)
	}
	return nil
}
