package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/suggestcheck/internal/config"
	"github.com/dshills/suggestcheck/internal/diff"
	"github.com/dshills/suggestcheck/internal/generate"
	"github.com/dshills/suggestcheck/internal/registry"
	"github.com/dshills/suggestcheck/internal/render"
	"github.com/dshills/suggestcheck/internal/resultstore"
	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/dshills/suggestcheck/internal/suggestion"
	"github.com/spf13/cobra"
)

type runFlags struct {
	engineFlags
	all        bool
	format     string
	out        string
	diffOut    string
	record     bool
	failOnFail bool
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Generate suggestions for scenarios and evaluate them",
		Long:  "Run the named scenarios, or every registered scenario with --all or no arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.capture(cmd)
			return runScenarios(cmd.Context(), cfg, args, f)
		},
	}

	f.register(cmd, cfg)
	flags := cmd.Flags()
	flags.BoolVar(&f.all, "all", false, "Run every registered scenario")
	flags.StringVar(&f.format, "format", "json", "Output format: json, md, or text")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.diffOut, "diff-out", "", "Write expected/candidate diffs of failing scenarios")
	flags.BoolVar(&f.record, "record", false, "Record the run in Postgres (RESULTS_PG_DSN)")
	flags.BoolVar(&f.failOnFail, "fail-on-fail", false, "Exit 2 if any scenario fails or errors")

	return cmd
}

func runScenarios(ctx context.Context, cfg *config.Config, args []string, f *runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := f.logger()
	verbose := logger.Printf

	// 1. Validate output options before any model call
	switch f.format {
	case "json", "md", "text":
	default:
		return exitError(3, "unknown format: %s", f.format)
	}
	if f.record && cfg.ResultsDSN == "" {
		return exitError(3, "--record requires RESULTS_PG_DSN")
	}

	// 2. Wire the runner
	r, reg, provider, err := buildRunner(ctx, cfg, &f.engineFlags)
	if err != nil {
		return err
	}

	// 3. Select scenarios
	ids, err := selectScenarios(reg, args, f.all)
	if err != nil {
		return err
	}
	verbose("Running %d scenarios: %s", len(ids), strings.Join(ids, ", "))

	// 4. Run
	batch := r.RunAll(ctx, ids)
	sum := runner.Summarize(batch)
	verbose("Done: %s (%d passed, %d failed, %d errored)", sum.Status, sum.Passed, sum.Failed, sum.Errored)

	// 5. Output
	var output string
	switch f.format {
	case "json":
		data, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.Markdown(batch)
	case "text":
		output = render.Text(batch)
	}

	if f.out != "" {
		verbose("Writing output to %s", f.out)
		if err := os.WriteFile(f.out, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Print(output)
	}

	// 6. Diffs
	if f.diffOut != "" {
		verbose("Writing diffs to %s", f.diffOut)
		if err := diff.WriteFile(batch, f.diffOut); err != nil {
			return fmt.Errorf("failed to write diffs: %w", err)
		}
	}

	// 7. Record
	if f.record {
		store, err := resultstore.NewPostgres(ctx, cfg.ResultsDSN)
		if err != nil {
			return exitError(3, "result store: %v", err)
		}
		defer store.Close()
		runID, err := store.Record(ctx, batch, provider.Name()+"/"+modelName(f.model))
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		verbose("Recorded run %s", runID)
	}

	// 8. Exit code
	if allProviderErrors(batch) {
		return exitError(4, "every scenario failed to generate; check the model provider")
	}
	if f.failOnFail && sum.Status != suggestion.StatusPass {
		return exitError(2, "%d of %d scenarios did not pass", sum.Failed+sum.Errored, sum.Total)
	}
	return nil
}

// selectScenarios returns args, or every registered id when args is empty
// or all is set. Unregistered ids are rejected.
func selectScenarios(reg *registry.Registry, args []string, all bool) ([]string, error) {
	if all || len(args) == 0 {
		return reg.IDs(), nil
	}
	var unknown []string
	seen := make(map[string]bool, len(args))
	var ids []string
	for _, id := range args {
		if !reg.Has(id) {
			unknown = append(unknown, id)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(unknown) > 0 {
		return nil, exitError(3, "unknown scenario %s. Valid: %s", strings.Join(unknown, ", "), strings.Join(reg.IDs(), ", "))
	}
	return ids, nil
}

func allProviderErrors(b runner.Batch) bool {
	if len(b) == 0 {
		return false
	}
	for _, e := range b {
		var ge *generate.GenerationError
		if !errors.As(e.Err, &ge) {
			return false
		}
	}
	return true
}

func modelName(m string) string {
	if m == "" {
		return "(default)"
	}
	return m
}
