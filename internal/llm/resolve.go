package llm

import (
	"context"
	"fmt"
	"strings"
)

// Keys holds the API keys available to ResolveProvider.
type Keys struct {
	Gemini    string
	OpenAI    string
	Anthropic string
}

// ResolveProvider selects a provider from the model name and the available
// keys. A model starting with "gemini", "gpt" or "claude", or carrying an
// explicit "gemini:", "openai:" or "anthropic:" prefix picks that provider.
// Otherwise the first provider with a key wins, Gemini first.
func ResolveProvider(ctx context.Context, model string, keys Keys) (Provider, error) {
	if model != "" {
		lower := strings.ToLower(model)
		switch {
		case strings.HasPrefix(lower, "gemini:"):
			return withModel(NewGemini(ctx, keys.Gemini))(model[len("gemini:"):])
		case strings.HasPrefix(lower, "gemini"):
			return withModel(NewGemini(ctx, keys.Gemini))(model)
		case strings.HasPrefix(lower, "anthropic:"):
			return withModel(NewAnthropic(keys.Anthropic))(model[len("anthropic:"):])
		case strings.HasPrefix(lower, "claude"):
			return withModel(NewAnthropic(keys.Anthropic))(model)
		case strings.HasPrefix(lower, "openai:"):
			return withModel(NewOpenAI(keys.OpenAI))(model[len("openai:"):])
		case strings.HasPrefix(lower, "gpt"):
			return withModel(NewOpenAI(keys.OpenAI))(model)
		}
	}

	var (
		p   Provider
		err error
	)
	switch {
	case keys.Gemini != "":
		p, err = NewGemini(ctx, keys.Gemini)
	case keys.Anthropic != "":
		p, err = NewAnthropic(keys.Anthropic)
	case keys.OpenAI != "":
		p, err = NewOpenAI(keys.OpenAI)
	default:
		return nil, fmt.Errorf("no LLM provider configured: set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	if err != nil {
		return nil, err
	}
	if model != "" {
		return &modelOverride{Provider: p, model: model}, nil
	}
	return p, nil
}

func withModel[P Provider](p P, err error) func(string) (Provider, error) {
	return func(model string) (Provider, error) {
		if err != nil {
			return nil, err
		}
		return &modelOverride{Provider: p, model: model}, nil
	}
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
