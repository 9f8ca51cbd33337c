package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dshills/suggestcheck/internal/compare"
	"github.com/dshills/suggestcheck/internal/fixture"
	"github.com/dshills/suggestcheck/internal/generate"
	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/dshills/suggestcheck/internal/registry"
	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/dshills/suggestcheck/internal/schema"
	"github.com/dshills/suggestcheck/internal/suggestion"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

func fixturesDir() string {
	return filepath.Join(projectRoot(), "testdata", "fixtures")
}

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadBuiltin(registry.DefaultName)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

// goldenRunner runs scenarios against a canned model reply.
func goldenRunner(t *testing.T, reg *registry.Registry, reply string) *runner.Runner {
	t.Helper()
	return &runner.Runner{
		Store:      fixture.NewDirStore(fixturesDir()),
		Generator:  &generate.Generator{Provider: &llm.MockProvider{Response: reply}, Redact: true},
		Comparator: compare.New(reg),
	}
}

func readGolden(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(projectRoot(), "testdata", "golden", rel))
	if err != nil {
		t.Fatalf("read golden %s: %v", rel, err)
	}
	return string(data)
}

func TestFixturesMatchRegistry(t *testing.T) {
	reg := builtinRegistry(t)
	ids, err := fixture.NewDirStore(fixturesDir()).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids, ",") != strings.Join(reg.IDs(), ",") {
		t.Errorf("fixture ids %v do not match registry ids %v", ids, reg.IDs())
	}
}

func TestExpectationsAreSchemaValid(t *testing.T) {
	store := fixture.NewDirStore(fixturesDir())
	for _, id := range builtinRegistry(t).IDs() {
		sc, err := store.Load(context.Background(), id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if _, err := schema.Parse(sc.Expected); err != nil {
			t.Errorf("%s: expectation invalid: %v", id, err)
		}
	}
}

func TestGoldenRepliesPass(t *testing.T) {
	reg := builtinRegistry(t)
	for _, id := range reg.IDs() {
		t.Run(id, func(t *testing.T) {
			r := goldenRunner(t, reg, readGolden(t, id+".json"))
			res, err := r.Run(context.Background(), id)
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != suggestion.StatusPass {
				t.Errorf("expected PASS, got %s: %v", res.Status, res.Findings)
			}
			if res.Candidate.Metadata == nil || res.Candidate.Metadata.ResponseMS == nil {
				t.Error("candidate should carry measured metadata")
			}
		})
	}
}

func TestGoldenRepliesFail(t *testing.T) {
	reg := builtinRegistry(t)
	tests := []struct {
		id       string
		findings []string
	}{
		{"tc01", []string{"deadline_before(2025-09-25T15:00:00Z, item_type=0)", "estimated_minutes_at_most", "reason_contains"}},
		{"tc04", []string{"item_count_exactly(0)", "confidence_at_most", "reason_matches_expected"}},
		{"tc06", []string{"avoid_time_range", "reason_contains"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := goldenRunner(t, reg, readGolden(t, filepath.Join("failing", tt.id+".json")))
			res, err := r.Run(context.Background(), tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != suggestion.StatusFail {
				t.Fatalf("expected FAIL, got %s", res.Status)
			}
			all := strings.Join(res.Findings, "\n")
			for _, want := range tt.findings {
				if !strings.Contains(all, want) {
					t.Errorf("findings missing %q:\n%s", want, all)
				}
			}
		})
	}
}

func TestGoldenBatch(t *testing.T) {
	reg := builtinRegistry(t)
	// One reply for every scenario: an empty list passes only where nothing
	// more is demanded.
	r := goldenRunner(t, reg, `{"items": []}`)
	batch := r.RunAll(context.Background(), reg.IDs())

	want := map[string]suggestion.Status{
		"tc01": suggestion.StatusFail,
		"tc02": suggestion.StatusFail,
		"tc03": suggestion.StatusFail,
		"tc05": suggestion.StatusFail,
		"tc06": suggestion.StatusFail,
		"tc07": suggestion.StatusPass,
		"tc08": suggestion.StatusPass,
		"tc09": suggestion.StatusPass,
		"tc10": suggestion.StatusPass,
	}
	for id, status := range want {
		if got := batch[id].Status(); got != status {
			t.Errorf("%s: got %s, want %s", id, got, status)
		}
	}
	sum := runner.Summarize(batch)
	if sum.Total != 10 || sum.Errored != 0 {
		t.Errorf("unexpected summary %+v", sum)
	}
}
