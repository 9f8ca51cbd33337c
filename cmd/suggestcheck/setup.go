package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/dshills/suggestcheck/internal/compare"
	"github.com/dshills/suggestcheck/internal/config"
	"github.com/dshills/suggestcheck/internal/fixture"
	"github.com/dshills/suggestcheck/internal/generate"
	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/dshills/suggestcheck/internal/registry"
	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/spf13/cobra"
)

// engineFlags are shared by run and serve.
type engineFlags struct {
	fixtures      string
	fixturesSet   bool
	registryPath  string
	model         string
	temperature   float64
	maxTokens     int
	seed          int
	hasSeed       bool
	timeout       time.Duration
	parallel      int
	redactEnabled bool
	verbose       bool

	// provider replaces provider resolution in tests.
	provider llm.Provider
}

func (f *engineFlags) register(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	flags.StringVar(&f.fixtures, "fixtures", cfg.Fixtures, "Fixture directory containing context/ and expected/")
	flags.StringVar(&f.registryPath, "registry", cfg.Registry, "Scenario registry YAML file (default: built-in)")
	flags.StringVar(&f.model, "model", cfg.Model, "Model ID (e.g., gemini-2.0-flash, gpt-4o-mini, claude-sonnet-4-6)")
	flags.Float64Var(&f.temperature, "temperature", cfg.Temperature, "Model temperature")
	flags.IntVar(&f.maxTokens, "max-tokens", cfg.MaxTokens, "Max response tokens")
	flags.IntVar(&f.seed, "seed", 0, "Random seed (if supported)")
	flags.DurationVar(&f.timeout, "timeout", cfg.Timeout, "Per-scenario generation timeout")
	flags.IntVar(&f.parallel, "parallel", cfg.Parallel, "Scenarios run concurrently")
	flags.BoolVar(&f.redactEnabled, "redact", true, "Redact secrets before sending context to the model")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")
}

func (f *engineFlags) capture(cmd *cobra.Command) {
	f.hasSeed = cmd.Flags().Changed("seed")
	f.fixturesSet = cmd.Flags().Changed("fixtures")
}

func (f *engineFlags) logger() *log.Logger {
	if f.verbose {
		return log.New(os.Stderr, "", 0)
	}
	return log.New(io.Discard, "", 0)
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		reg, err := registry.LoadBuiltin(registry.DefaultName)
		if err != nil {
			return nil, exitError(3, "failed to load built-in registry: %v", err)
		}
		return reg, nil
	}
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, exitError(3, "failed to load registry: %v", err)
	}
	return reg, nil
}

// openStore prefers the S3 bucket from the environment unless --fixtures
// was given explicitly.
func openStore(cfg *config.Config, f *engineFlags) (fixture.Store, error) {
	if cfg.S3.Enabled && !f.fixturesSet {
		s, err := fixture.NewS3Store(cfg.S3.S3Config)
		if err != nil {
			return nil, exitError(3, "fixture bucket: %v", err)
		}
		return s, nil
	}
	if st, err := os.Stat(f.fixtures); err != nil || !st.IsDir() {
		return nil, exitError(3, "fixture directory %s not found", f.fixtures)
	}
	return fixture.NewDirStore(f.fixtures), nil
}

// buildRunner wires registry, fixture store, provider and comparator.
func buildRunner(ctx context.Context, cfg *config.Config, f *engineFlags) (*runner.Runner, *registry.Registry, llm.Provider, error) {
	logger := f.logger()
	verbose := logger.Printf

	reg, err := loadRegistry(f.registryPath)
	if err != nil {
		return nil, nil, nil, err
	}
	verbose("Loaded registry %s (%d scenarios)", reg.Name(), len(reg.IDs()))

	store, err := openStore(cfg, f)
	if err != nil {
		return nil, nil, nil, err
	}

	provider := f.provider
	if provider == nil {
		verbose("Resolving LLM provider")
		provider, err = llm.ResolveProvider(ctx, f.model, cfg.Keys)
		if err != nil {
			return nil, nil, nil, exitError(4, "model provider error: %v", err)
		}
	}
	verbose("Using provider: %s", provider.Name())

	settings := llm.Settings{
		Model:       f.model,
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	}
	if f.hasSeed {
		settings.Seed = &f.seed
	}

	r := &runner.Runner{
		Store: store,
		Generator: &generate.Generator{
			Provider: provider,
			Settings: settings,
			Timeout:  f.timeout,
			Redact:   f.redactEnabled,
			Logger:   logger,
		},
		Comparator: compare.New(reg),
		Parallel:   f.parallel,
		Logger:     logger,
	}
	return r, reg, provider, nil
}
