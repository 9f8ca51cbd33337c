package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/suggestcheck/internal/config"
	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/dshills/suggestcheck/internal/registry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testFlags(t *testing.T, reply string) *runFlags {
	t.Helper()
	return &runFlags{
		engineFlags: engineFlags{
			fixtures:      filepath.Join("..", "..", "testdata", "fixtures"),
			temperature:   0.2,
			timeout:       5 * time.Second,
			parallel:      2,
			redactEnabled: true,
			provider:      &llm.MockProvider{Response: reply},
		},
		format: "json",
		out:    filepath.Join(t.TempDir(), "out.json"),
	}
}

const checklistReply = `{"items": [{"item_type": 1, "title": "Checklist don nha", "parentTaskId": null, "estimatedMinutes": 45, "deadline": "2025-09-25T12:00:00Z", "confidence": 0.75, "reason": "Tao checklist moi"}]}`

// --- Pure function tests ---

func TestSelectScenarios(t *testing.T) {
	reg, err := registry.LoadBuiltin(registry.DefaultName)
	if err != nil {
		t.Fatal(err)
	}

	ids, err := selectScenarios(reg, nil, false)
	if err != nil || len(ids) != 10 {
		t.Errorf("no args should select all: %v %v", ids, err)
	}
	ids, err = selectScenarios(reg, []string{"tc03", "tc01", "tc03"}, false)
	if err != nil || strings.Join(ids, ",") != "tc03,tc01" {
		t.Errorf("unexpected selection %v %v", ids, err)
	}
	ids, err = selectScenarios(reg, []string{"tc01"}, true)
	if err != nil || len(ids) != 10 {
		t.Errorf("--all should win over args: %v", ids)
	}
	_, err = selectScenarios(reg, []string{"tc01", "tc42"}, false)
	assertExitCode(t, err, 3)
}

func TestListScenarios(t *testing.T) {
	reg, err := registry.LoadBuiltin(registry.DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := listScenarios(&buf, reg, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"tc01", "Free morning slot", "instance_check", "timeout_and_retry(15000)"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q", want)
		}
	}
}

// --- runScenarios via MockProvider ---

func TestRunScenariosPass(t *testing.T) {
	f := testFlags(t, checklistReply)
	err := runScenarios(context.Background(), testConfig(t), []string{"tc02"}, f)
	assertExitCode(t, err, 0)

	data, err := os.ReadFile(f.out)
	if err != nil {
		t.Fatal(err)
	}
	var batch map[string]map[string]any
	if err := json.Unmarshal(data, &batch); err != nil {
		t.Fatalf("output is not a batch map: %v", err)
	}
	if batch["tc02"]["status"] != "PASS" {
		t.Errorf("unexpected tc02 entry: %v", batch["tc02"])
	}
}

func TestRunScenariosFailOnFail(t *testing.T) {
	f := testFlags(t, checklistReply)
	f.failOnFail = true
	err := runScenarios(context.Background(), testConfig(t), []string{"tc02", "tc04"}, f)
	assertExitCode(t, err, 2)
}

func TestRunScenariosFailWithoutFlag(t *testing.T) {
	f := testFlags(t, checklistReply)
	err := runScenarios(context.Background(), testConfig(t), []string{"tc04"}, f)
	assertExitCode(t, err, 0)
}

func TestRunScenariosProviderError(t *testing.T) {
	f := testFlags(t, "")
	f.provider = &llm.MockProvider{Err: errors.New("quota exceeded")}
	err := runScenarios(context.Background(), testConfig(t), []string{"tc01", "tc02"}, f)
	assertExitCode(t, err, 4)
}

func TestRunScenariosInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runFlags)
		args   []string
	}{
		{"unknown format", func(f *runFlags) { f.format = "xml" }, []string{"tc01"}},
		{"missing fixtures", func(f *runFlags) { f.fixtures = filepath.Join(t.TempDir(), "none") }, []string{"tc01"}},
		{"missing registry", func(f *runFlags) { f.registryPath = filepath.Join(t.TempDir(), "none.yaml") }, []string{"tc01"}},
		{"unknown scenario", func(*runFlags) {}, []string{"tc42"}},
		{"record without DSN", func(f *runFlags) { f.record = true }, []string{"tc01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFlags(t, checklistReply)
			tt.mutate(f)
			err := runScenarios(context.Background(), testConfig(t), tt.args, f)
			assertExitCode(t, err, 3)
		})
	}
}

func TestRunScenariosFormats(t *testing.T) {
	for format, want := range map[string]string{"md": "# Suggestion Check Report", "text": "Suggestion check"} {
		t.Run(format, func(t *testing.T) {
			f := testFlags(t, checklistReply)
			f.format = format
			if err := runScenarios(context.Background(), testConfig(t), []string{"tc02"}, f); err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(f.out)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), want) {
				t.Errorf("%s output missing %q", format, want)
			}
		})
	}
}

func TestRunScenariosDiffOut(t *testing.T) {
	f := testFlags(t, checklistReply)
	f.diffOut = filepath.Join(t.TempDir(), "failures.diff")
	if err := runScenarios(context.Background(), testConfig(t), []string{"tc02", "tc04"}, f); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(f.diffOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "candidate/tc04.json") || strings.Contains(string(data), "tc02") {
		t.Errorf("unexpected diff file:\n%s", data)
	}
}

func assertExitCode(t *testing.T, err error, wantCode int) {
	t.Helper()
	if wantCode == 0 {
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected exit code %d, got nil error", wantCode)
	}
	var ee *exitErr
	if !errors.As(err, &ee) {
		t.Fatalf("expected *exitErr, got %T: %v", err, err)
	}
	if ee.code != wantCode {
		t.Errorf("exit code = %d, want %d (msg: %s)", ee.code, wantCode, ee.msg)
	}
}
