// Package runner executes scenarios end to end: load fixtures, generate a
// candidate, evaluate it against the scenario's rules.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/dshills/suggestcheck/internal/compare"
	"github.com/dshills/suggestcheck/internal/fixture"
	"github.com/dshills/suggestcheck/internal/suggestion"
	"golang.org/x/sync/errgroup"
)

// DefaultParallel caps concurrent scenarios in RunAll when Runner.Parallel
// is not set.
const DefaultParallel = 4

// Generator produces a candidate response for a scenario context.
type Generator interface {
	Generate(ctx context.Context, scenarioCtx map[string]any) (*suggestion.Response, error)
}

// Result is the outcome of one scenario.
type Result struct {
	ScenarioID string               `json:"scenarioId"`
	Status     suggestion.Status    `json:"status"`
	Findings   []string             `json:"findings,omitempty"`
	Expected   json.RawMessage      `json:"expected"`
	Candidate  *suggestion.Response `json:"candidate"`
}

// Runner wires a fixture store, a generator and a comparator together.
type Runner struct {
	Store      fixture.Store
	Generator  Generator
	Comparator *compare.Comparator
	Parallel   int
	Logger     *log.Logger
}

// Run executes one scenario. Missing or corrupt fixtures return an error
// matching fixture.ErrNotFound; a failed provider call returns the
// generator's error. Rule failures are reported in the Result, never as an
// error.
func (r *Runner) Run(ctx context.Context, id string) (*Result, error) {
	logger := r.logger()

	sc, err := r.Store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	logger.Printf("run %s: loaded fixtures (context %s, expected %s)", id, short(sc.ContextHash), short(sc.ExpectedHash))

	candidate, err := r.Generator.Generate(ctx, sc.Context)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	v := r.Comparator.Evaluate(candidate, sc.Expected, sc.Context, id)
	logger.Printf("run %s: %s (%d findings)", id, v.Status, len(v.Findings))

	return &Result{
		ScenarioID: id,
		Status:     v.Status,
		Findings:   v.Findings,
		Expected:   sc.Expected,
		Candidate:  candidate,
	}, nil
}

// RunAll executes ids concurrently, at most Parallel at a time. A failing
// scenario never cancels its siblings; its error is recorded in its entry.
func (r *Runner) RunAll(ctx context.Context, ids []string) Batch {
	limit := r.Parallel
	if limit <= 0 {
		limit = DefaultParallel
	}

	var (
		mu    sync.Mutex
		batch = make(Batch, len(ids))
		g     errgroup.Group
	)
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			res, err := r.Run(ctx, id)
			e := Entry{ScenarioID: id, Result: res}
			if err != nil {
				r.logger().Printf("run %s: error: %v", id, err)
				e.Err = err
			}
			mu.Lock()
			batch[id] = e
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return batch
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Logger
}

func short(hash string) string {
	const n = len("sha256:") + 12
	if len(hash) > n {
		return hash[:n]
	}
	return hash
}
