// Package llm defines the provider interface and implementations used to
// generate task suggestions.
package llm

import "context"

// Settings configures a generation request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
}

// Provider generates text from a prompt. Implementations request JSON
// output where the API supports it.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}
