// Package config loads runtime settings from .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/suggestcheck/internal/fixture"
	"github.com/dshills/suggestcheck/internal/llm"
	"github.com/joho/godotenv"
)

// Defaults applied when the environment is silent.
const (
	DefaultFixtures    = "testdata/fixtures"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
	DefaultTimeout     = 60 * time.Second
	DefaultParallel    = 4
	DefaultPort        = ":8000"
)

type Config struct {
	Fixtures    string
	Registry    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Parallel    int
	Port        string
	CORSOrigins []string

	Keys       llm.Keys
	S3         S3Config
	ResultsDSN string
}

// S3Config selects an S3-compatible fixture bucket. Enabled is set when a
// bucket is named.
type S3Config struct {
	Enabled bool
	fixture.S3Config
}

// Load reads .env from the working directory if present, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		Fixtures:    firstNonEmpty(get("SUGGESTCHECK_FIXTURES"), DefaultFixtures),
		Registry:    get("SUGGESTCHECK_REGISTRY"),
		Model:       get("SUGGESTCHECK_MODEL"),
		Port:        resolvePort(get("PORT")),
		CORSOrigins: splitList(firstNonEmpty(get("SUGGESTCHECK_CORS_ORIGINS"), "*")),
		Keys: llm.Keys{
			Gemini:    firstNonEmpty(get("GEMINI_API_KEY"), get("GOOGLE_API_KEY")),
			OpenAI:    get("OPENAI_API_KEY"),
			Anthropic: get("ANTHROPIC_API_KEY"),
		},
		S3:         loadS3Config(get),
		ResultsDSN: get("RESULTS_PG_DSN"),
	}

	var err error
	if cfg.Temperature, err = parseFloat("SUGGESTCHECK_TEMPERATURE", get("SUGGESTCHECK_TEMPERATURE"), DefaultTemperature); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = parseInt("SUGGESTCHECK_MAX_TOKENS", get("SUGGESTCHECK_MAX_TOKENS"), DefaultMaxTokens); err != nil {
		return nil, err
	}
	if cfg.Parallel, err = parseInt("SUGGESTCHECK_PARALLEL", get("SUGGESTCHECK_PARALLEL"), DefaultParallel); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = parseDuration("SUGGESTCHECK_TIMEOUT", get("SUGGESTCHECK_TIMEOUT"), DefaultTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadS3Config(get func(string) string) S3Config {
	bucket := get("FIXTURE_S3_BUCKET")
	return S3Config{
		Enabled: bucket != "",
		S3Config: fixture.S3Config{
			Endpoint:  firstNonEmpty(get("FIXTURE_S3_ENDPOINT"), "localhost:9000"),
			Region:    firstNonEmpty(get("FIXTURE_S3_REGION"), "us-east-1"),
			AccessKey: firstNonEmpty(get("FIXTURE_S3_ACCESS_KEY"), get("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(get("FIXTURE_S3_SECRET_KEY"), get("MINIO_ROOT_PASSWORD")),
			Bucket:    bucket,
			Prefix:    get("FIXTURE_S3_PREFIX"),
			UseSSL:    parseBool(get("FIXTURE_S3_USE_SSL"), false),
		},
	}
}

func resolvePort(raw string) string {
	if raw == "" {
		return DefaultPort
	}
	if strings.HasPrefix(raw, ":") {
		return raw
	}
	return ":" + raw
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseFloat(key, raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		// bare numbers are seconds
		secs, serr := strconv.Atoi(raw)
		if serr != nil {
			return 0, fmt.Errorf("config: %s: %w", key, err)
		}
		v = time.Duration(secs) * time.Second
	}
	if v <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, raw)
	}
	return v, nil
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
