// Package generate turns a scenario context into a candidate suggestion
// response by prompting an LLM provider.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/dshills/suggestcheck/internal/prompt"
	"github.com/dshills/suggestcheck/internal/redact"
	"github.com/dshills/suggestcheck/internal/schema"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

// DefaultTimeout bounds a single provider call when Generator.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// GenerationError reports a provider call that did not produce any output:
// transport failures, provider errors and timeouts.
type GenerationError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("generation via %s timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator produces candidate responses. It is safe for concurrent use
// when its Provider is.
type Generator struct {
	Provider llm.Provider
	Settings llm.Settings
	Timeout  time.Duration
	// Redact scrubs secrets from the context before it leaves the process.
	Redact bool
	Logger *log.Logger
}

// Generate prompts the provider with scenarioCtx and parses the reply.
// Output that is not valid JSON or violates the schema degrades to an
// empty response; only a failed provider call returns an error.
// The returned response always carries measured metadata.response_ms.
func (g *Generator) Generate(ctx context.Context, scenarioCtx map[string]any) (*suggestion.Response, error) {
	logger := g.logger()
	if g.Redact {
		scenarioCtx = redact.Context(scenarioCtx)
	}
	text := prompt.Build(scenarioCtx)

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.Provider.Generate(callCtx, text, g.Settings)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, &GenerationError{
			Provider: g.Provider.Name(),
			Timeout:  errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded),
			Err:      err,
		}
	}
	logger.Printf("generate: %s replied in %dms (%d bytes)", g.Provider.Name(), elapsed, len(raw))

	resp, err := schema.ParseString(llm.ExtractJSON(raw))
	if err != nil {
		logger.Printf("generate: discarding malformed output: %v", err)
		resp = suggestion.Empty()
	}
	stamp(resp, elapsed)
	return resp, nil
}

// stamp records the measured latency. A retry count reported by the model
// is kept; otherwise it is zero.
func stamp(r *suggestion.Response, elapsed int64) {
	if r.Metadata == nil {
		r.Metadata = &suggestion.Metadata{}
	}
	r.Metadata.ResponseMS = &elapsed
	if r.Metadata.Retries == nil {
		zero := 0
		r.Metadata.Retries = &zero
	}
}

func (g *Generator) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return g.Logger
}
