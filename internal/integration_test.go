package internal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dshills/suggestcheck/internal/compare"
	"github.com/dshills/suggestcheck/internal/fixture"
	"github.com/dshills/suggestcheck/internal/generate"
	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/dshills/suggestcheck/internal/runner"
)

// skipUnlessIntegration skips the test unless SUGGESTCHECK_INTEGRATION=1.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("SUGGESTCHECK_INTEGRATION") != "1" {
		t.Skip("skipping integration test (set SUGGESTCHECK_INTEGRATION=1 to run)")
	}
}

func envKeys() llm.Keys {
	gemini := os.Getenv("GEMINI_API_KEY")
	if gemini == "" {
		gemini = os.Getenv("GOOGLE_API_KEY")
	}
	return llm.Keys{Gemini: gemini, OpenAI: os.Getenv("OPENAI_API_KEY"), Anthropic: os.Getenv("ANTHROPIC_API_KEY")}
}

// runLive runs ids against a real provider. Models are not expected to pass
// every scenario; the test checks that each run completes with a parsed
// candidate and a verdict.
func runLive(t *testing.T, model string, ids ...string) {
	t.Helper()
	ctx := context.Background()
	provider, err := llm.ResolveProvider(ctx, model, envKeys())
	if err != nil {
		t.Skipf("provider unavailable: %v", err)
	}

	r := &runner.Runner{
		Store: fixture.NewDirStore(fixturesDir()),
		Generator: &generate.Generator{
			Provider: provider,
			Settings: llm.Settings{Temperature: 0.2, MaxTokens: 2048},
			Timeout:  120 * time.Second,
			Redact:   true,
		},
		Comparator: compare.New(builtinRegistry(t)),
		Parallel:   2,
	}

	batch := r.RunAll(ctx, ids)
	for _, e := range batch.Entries() {
		if e.Err != nil {
			t.Errorf("%s: %v", e.ScenarioID, e.Err)
			continue
		}
		if e.Result.Candidate == nil || e.Result.Candidate.Items == nil {
			t.Errorf("%s: no candidate items", e.ScenarioID)
		}
		t.Logf("%s via %s: %s, %d items, findings %v", e.ScenarioID, provider.Name(),
			e.Result.Status, e.Result.Candidate.Len(), e.Result.Findings)
	}
}

func TestIntegrationGemini(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	runLive(t, "gemini-2.0-flash", "tc01", "tc02", "tc04")
}

func TestIntegrationAnthropic(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	runLive(t, "anthropic:claude-sonnet-4-6", "tc01", "tc02", "tc04")
}

func TestIntegrationOpenAI(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	runLive(t, "openai:gpt-4o-mini", "tc01", "tc02", "tc04")
}
