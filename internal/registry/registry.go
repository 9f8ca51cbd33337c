// Package registry binds scenario identifiers to ordered rule lists.
package registry

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dshills/suggestcheck/internal/rules"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultName is the built-in registry holding the reference scenarios.
const DefaultName = "scenarios"

// Document is the YAML form of a registry.
type Document struct {
	Name        string                  `yaml:"name"`
	Version     int                     `yaml:"version"`
	Description string                  `yaml:"description"`
	Scenarios   map[string]ScenarioSpec `yaml:"scenarios"`
}

// ScenarioSpec declares the rules specific to one scenario.
type ScenarioSpec struct {
	Description string     `yaml:"description"`
	Rules       []RuleSpec `yaml:"rules"`
}

// Scenario is a compiled scenario entry.
type Scenario struct {
	ID          string
	Description string
	Rules       []rules.Rule
}

// Registry maps scenario ids to rules. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	name      string
	common    []rules.Rule
	scenarios map[string]Scenario
}

// CommonRules returns the rules applied first for every scenario.
func CommonRules() []rules.Rule {
	return []rules.Rule{
		rules.InstanceCheck(false),
		rules.ConfidenceInRange(),
		rules.RequiredItemFields([]string{"item_type", "title"}),
	}
}

// New builds a registry from already constructed rule lists.
func New(name string, scenarios map[string][]rules.Rule) *Registry {
	r := &Registry{name: name, common: CommonRules(), scenarios: make(map[string]Scenario, len(scenarios))}
	for id, rs := range scenarios {
		r.scenarios[id] = Scenario{ID: id, Rules: append([]rules.Rule(nil), rs...)}
	}
	return r
}

// LoadBuiltin loads a built-in registry by name.
func LoadBuiltin(name string) (*Registry, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("registry.LoadBuiltin: unknown registry %q: %w", name, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry.LoadBuiltin: %q: %w", name, err)
	}
	return r, nil
}

// LoadFile loads a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry.LoadFile: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry.LoadFile: %s: %w", path, err)
	}
	return r, nil
}

// Parse compiles a registry document. Every rule spec is validated up
// front so a bad registry fails at load, not mid-evaluation.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	r := &Registry{name: doc.Name, common: CommonRules(), scenarios: make(map[string]Scenario, len(doc.Scenarios))}
	for id, spec := range doc.Scenarios {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("scenario with empty id")
		}
		sc := Scenario{ID: id, Description: strings.TrimSpace(spec.Description)}
		for i, rs := range spec.Rules {
			rule, err := Build(rs)
			if err != nil {
				return nil, fmt.Errorf("scenario %s rule %d: %w", id, i, err)
			}
			sc.Rules = append(sc.Rules, rule)
		}
		r.scenarios[id] = sc
	}
	return r, nil
}

// List returns the names of all built-in registries.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	return names, nil
}

// Name returns the registry name from its document.
func (r *Registry) Name() string { return r.name }

// Rules returns the common rules followed by the scenario's own rules.
// Unknown ids receive the common rules only. The returned slice is fresh
// on every call.
func (r *Registry) Rules(id string) []rules.Rule {
	sc := r.scenarios[id]
	out := make([]rules.Rule, 0, len(r.common)+len(sc.Rules))
	out = append(out, r.common...)
	return append(out, sc.Rules...)
}

// Has reports whether id is a registered scenario.
func (r *Registry) Has(id string) bool {
	_, ok := r.scenarios[id]
	return ok
}

// Scenario returns the compiled entry for id.
func (r *Registry) Scenario(id string) (Scenario, bool) {
	sc, ok := r.scenarios[id]
	return sc, ok
}

// IDs returns the registered scenario ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.scenarios))
	for id := range r.scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
