package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fixtures != DefaultFixtures || cfg.Port != DefaultPort || cfg.Parallel != DefaultParallel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Temperature != DefaultTemperature || cfg.MaxTokens != DefaultMaxTokens || cfg.Timeout != DefaultTimeout {
		t.Errorf("unexpected generation defaults: %+v", cfg)
	}
	if cfg.S3.Enabled {
		t.Error("S3 should be disabled without a bucket")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"SUGGESTCHECK_FIXTURES":     "/data/fixtures",
		"SUGGESTCHECK_MODEL":        "gemini-2.5-pro",
		"SUGGESTCHECK_TEMPERATURE":  "0",
		"SUGGESTCHECK_TIMEOUT":      "15",
		"SUGGESTCHECK_PARALLEL":     "8",
		"SUGGESTCHECK_CORS_ORIGINS": "http://localhost:3000, https://app.example.com",
		"PORT":                      "9090",
		"GOOGLE_API_KEY":            "g-key",
		"FIXTURE_S3_BUCKET":         "fixtures",
		"MINIO_ROOT_USER":           "minio",
		"FIXTURE_S3_SECRET_KEY":     "secret",
		"FIXTURE_S3_USE_SSL":        "true",
		"RESULTS_PG_DSN":            "postgres://localhost/results",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fixtures != "/data/fixtures" || cfg.Model != "gemini-2.5-pro" || cfg.Temperature != 0 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("bare timeout should be seconds, got %s", cfg.Timeout)
	}
	if cfg.Parallel != 8 || cfg.Port != ":9090" {
		t.Errorf("unexpected parallel/port: %d %s", cfg.Parallel, cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://app.example.com" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.Keys.Gemini != "g-key" {
		t.Errorf("GOOGLE_API_KEY fallback not used: %+v", cfg.Keys)
	}
	if !cfg.S3.Enabled || cfg.S3.AccessKey != "minio" || cfg.S3.SecretKey != "secret" || !cfg.S3.UseSSL || cfg.S3.Endpoint != "localhost:9000" {
		t.Errorf("unexpected S3 config: %+v", cfg.S3)
	}
	if cfg.ResultsDSN != "postgres://localhost/results" {
		t.Errorf("unexpected DSN %q", cfg.ResultsDSN)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"SUGGESTCHECK_TEMPERATURE": "warm",
		"SUGGESTCHECK_MAX_TOKENS":  "-1",
		"SUGGESTCHECK_PARALLEL":    "many",
		"SUGGESTCHECK_TIMEOUT":     "soon",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			if _, err := FromEnv(env(map[string]string{key: val})); err == nil {
				t.Errorf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SUGGESTCHECK_PARALLEL=3\nSUGGESTCHECK_MODEL=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("SUGGESTCHECK_MODEL", "from-env")
	// godotenv.Load sets variables directly; clear the one it adds afterwards.
	t.Setenv("SUGGESTCHECK_PARALLEL", "")
	os.Unsetenv("SUGGESTCHECK_PARALLEL")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Parallel != 3 {
		t.Errorf("expected .env value, got %d", cfg.Parallel)
	}
	if cfg.Model != "from-env" {
		t.Errorf("environment should win over .env, got %q", cfg.Model)
	}
}
