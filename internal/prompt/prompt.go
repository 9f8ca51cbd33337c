// Package prompt builds the LLM prompt for task suggestion generation.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/suggestcheck/internal/schema"
)

// Build assembles the suggestion-engine prompt for a scenario context.
func Build(ctx map[string]any) string {
	var b strings.Builder

	// 1. Preamble
	b.WriteString(`You are an AI suggestion engine for a personal task planner.
Based on the context below, suggest tasks or checklists for the user.

You MUST output ONLY valid JSON matching the schema below. No markdown, no prose outside JSON.

`)

	// 2. Schema definition
	b.WriteString(schemaDefinition)
	b.WriteString("\n\n")

	// 3. Requirements
	fmt.Fprintf(&b, `## Requirements

1. Write titles and reasons in Vietnamese without diacritics.
2. Keep exactly to the schema above.
3. estimatedMinutes must be between %d and %d.
4. Deadlines must use the form yyyy-mm-ddTHH:MM:SSZ.
5. Return an empty items array when nothing fits, with a low confidence and a reason.

`, schema.MinEstimatedMinutes, schema.MaxEstimatedMinutes)

	// 4. Context keys, to anchor the model on what it was given
	if len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for k := range ctx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "Context fields: %s\n\n", strings.Join(keys, ", "))
	}

	// 5. Context
	fmt.Fprintf(&b, "<context>\n%s</context>\n", contextJSON(ctx))

	return b.String()
}

// contextJSON renders ctx as indented JSON without HTML escaping so that
// non-ASCII text reaches the model unchanged.
func contextJSON(ctx map[string]any) string {
	if ctx == nil {
		ctx = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ctx); err != nil {
		return fmt.Sprintf("%v\n", ctx)
	}
	return buf.String()
}

const schemaDefinition = `## Output JSON Schema

{
  "items": [{
    "item_type": 0 | 1,            // 0 = task, 1 = checklist
    "title": string,               // non-empty
    "parentTaskId": "uuid" | null, // id of an existing open task the item continues, else null
    "estimatedMinutes": integer,
    "deadline": "yyyy-mm-ddTHH:MM:SSZ",
    "confidence": float (0-1),
    "reason": string | null
  }],
  "confidence": float (0-1),       // optional, overall
  "reason": string                 // optional, overall
}`
