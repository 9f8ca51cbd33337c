package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/suggestcheck/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleNames(rs []rules.Rule) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name()
	}
	return names
}

func TestLoadBuiltin(t *testing.T) {
	r, err := LoadBuiltin(DefaultName)
	require.NoError(t, err)

	assert.Equal(t, "reference", r.Name())
	assert.Equal(t, []string{"tc01", "tc02", "tc03", "tc04", "tc05", "tc06", "tc07", "tc08", "tc09", "tc10"}, r.IDs())

	for _, id := range r.IDs() {
		sc, ok := r.Scenario(id)
		require.True(t, ok)
		assert.NotEmpty(t, sc.Description, id)
		assert.NotEmpty(t, sc.Rules, id)
	}
}

func TestLoadBuiltinUnknown(t *testing.T) {
	_, err := LoadBuiltin("nonexistent")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	names, err := List()
	require.NoError(t, err)
	assert.Contains(t, names, DefaultName)
}

func TestRulesCommonFirst(t *testing.T) {
	r, err := LoadBuiltin(DefaultName)
	require.NoError(t, err)

	got := ruleNames(r.Rules("tc04"))
	assert.Equal(t, []string{
		"instance_check",
		"confidence_in_range",
		"required_item_fields(item_type,title)",
		"item_count_exactly(0)",
		"confidence_at_most(0.2)",
		"reason_matches_expected",
	}, got)
}

func TestRulesUnknownScenarioGetsCommonOnly(t *testing.T) {
	r, err := LoadBuiltin(DefaultName)
	require.NoError(t, err)

	assert.False(t, r.Has("tc99"))
	assert.Equal(t, ruleNames(CommonRules()), ruleNames(r.Rules("tc99")))
}

func TestRulesReturnsFreshSlice(t *testing.T) {
	r, err := LoadBuiltin(DefaultName)
	require.NoError(t, err)

	first := r.Rules("tc09")
	first[0] = rules.ItemCountExactly(42)
	assert.Equal(t, "instance_check", r.Rules("tc09")[0].Name())
}

func TestNew(t *testing.T) {
	r := New("custom", map[string][]rules.Rule{"a": {rules.ItemCountAtMost(1)}})
	assert.Equal(t, []string{"a"}, r.IDs())
	assert.Len(t, r.Rules("a"), len(CommonRules())+1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown rule", "scenarios:\n  x:\n    rules:\n      - rule: bogus\n", "unknown rule"},
		{"missing n", "scenarios:\n  x:\n    rules:\n      - rule: item_count_at_most\n", "n must be"},
		{"bad limit", "scenarios:\n  x:\n    rules:\n      - rule: deadline_before\n        limit: tomorrow\n", "invalid limit"},
		{"bad item type", "scenarios:\n  x:\n    rules:\n      - rule: no_item_type\n        item_type: 7\n", "invalid item_type"},
		{"bad scope", "scenarios:\n  x:\n    rules:\n      - rule: reason_contains\n        keywords: [a]\n        where: nowhere\n", "unknown scope"},
		{"fractional minutes", "scenarios:\n  x:\n    rules:\n      - rule: estimated_minutes_at_most\n        max: 1.5\n", "integer"},
		{"inverted window", "scenarios:\n  x:\n    rules:\n      - rule: avoid_time_range\n        start: \"2025-09-25T11:00:00Z\"\n        end: \"2025-09-25T07:00:00Z\"\n", "before start"},
		{"missing name", "scenarios:\n  x:\n    rules:\n      - n: 1\n", "rule name is required"},
		{"not yaml", "scenarios: [", "parse"},
		{"misspelled parameter", "scenarios:\n  x:\n    rules:\n      - rule: deadline_before\n        limit: \"2025-09-25T15:00:00Z\"\n        itemtype: 0\n", "itemtype"},
		{"unknown scenario key", "scenarios:\n  x:\n    descripton: typo\n", "descripton"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildDefaults(t *testing.T) {
	r, err := Build(RuleSpec{Rule: "deadline_before", Limit: "2025-09-25T15:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "deadline_before(2025-09-25T15:00:00Z)", r.Name())

	r, err = Build(RuleSpec{Rule: "timeout_and_retry"})
	require.NoError(t, err)
	assert.Equal(t, "timeout_and_retry(15000)", r.Name())

	r, err = Build(RuleSpec{Rule: "reason_contains", Keywords: []string{"a", "b"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Name(), "reason_contains(any:"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := "name: custom\nscenarios:\n  smoke:\n    description: smoke\n    rules:\n      - rule: item_count_at_most\n        n: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", r.Name())
	assert.True(t, r.Has("smoke"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
