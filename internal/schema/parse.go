package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dshills/suggestcheck/internal/suggestion"
)

// Parse decodes raw JSON into a Response and enforces the contract. Any
// violation rejects the whole document with a *SchemaError; nothing is
// coerced.
func Parse(raw []byte) (*suggestion.Response, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaError{Errors: []ValidationError{{"$", fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &SchemaError{Errors: []ValidationError{{"$", "unexpected data after JSON document"}}}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &SchemaError{Errors: []ValidationError{{"$", "must be a JSON object"}}}
	}

	p := &parser{}
	resp := p.response(obj)
	p.errs = append(p.errs, Validate(resp)...)
	if len(p.errs) > 0 {
		return nil, &SchemaError{Errors: dedupe(p.errs)}
	}
	return resp, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(raw string) (*suggestion.Response, error) {
	return Parse([]byte(raw))
}

type parser struct {
	errs []ValidationError
}

func (p *parser) fail(path, format string, args ...any) {
	p.errs = append(p.errs, ValidationError{path, fmt.Sprintf(format, args...)})
}

func (p *parser) response(obj map[string]any) *suggestion.Response {
	resp := suggestion.Empty()

	switch items := obj["items"].(type) {
	case nil:
	case []any:
		for i, v := range items {
			path := fmt.Sprintf("items[%d]", i)
			m, ok := v.(map[string]any)
			if !ok {
				p.fail(path, "must be an object")
				continue
			}
			resp.Items = append(resp.Items, p.item(path, m))
		}
	default:
		p.fail("items", "must be an array")
	}

	if v, ok := obj["confidence"]; ok && v != nil {
		if f, ok := p.number("confidence", v); ok {
			resp.Confidence = &f
		}
	}
	if v, ok := obj["reason"]; ok {
		resp.Reason = p.optionalString("reason", v)
	}
	if v, ok := obj["metadata"]; ok && v != nil {
		resp.Metadata = p.metadata(v)
	}
	return resp
}

func (p *parser) item(path string, m map[string]any) suggestion.Item {
	var it suggestion.Item

	if v, ok := present(m, "item_type"); !ok {
		p.fail(path+".item_type", "required")
	} else if n, ok := p.smallInt(path+".item_type", v); ok {
		it.ItemType = suggestion.ItemType(n)
	}

	if v, ok := present(m, "title"); !ok {
		p.fail(path+".title", "required")
	} else if s, ok := v.(string); ok {
		it.Title = s
	} else {
		p.fail(path+".title", "must be a string")
	}

	if v, ok := present(m, "parentTaskId"); ok {
		if s, ok := v.(string); ok {
			it.ParentTaskID = &s
		} else {
			p.fail(path+".parentTaskId", "must be a UUID string or null")
		}
	}

	key := "estimatedMinutes"
	v, ok := present(m, key)
	if !ok {
		key = "estimated_minutes"
		v, ok = present(m, key)
	}
	if !ok {
		p.fail(path+".estimatedMinutes", "required")
	} else if n, ok := p.smallInt(path+"."+key, v); ok {
		it.EstimatedMinutes = n
	}

	if v, ok := present(m, "deadline"); !ok {
		p.fail(path+".deadline", "required")
	} else if s, ok := v.(string); ok {
		it.Deadline = s
	} else {
		p.fail(path+".deadline", "must be a string")
	}

	if v, ok := present(m, "confidence"); !ok {
		p.fail(path+".confidence", "required")
	} else if f, ok := p.number(path+".confidence", v); ok {
		it.Confidence = f
	}

	if v, ok := m["reason"]; ok {
		it.Reason = p.optionalString(path+".reason", v)
	}
	if v, ok := m["startUtc"]; ok {
		it.StartUTC = p.optionalString(path+".startUtc", v)
	}
	if v, ok := m["endUtc"]; ok {
		it.EndUTC = p.optionalString(path+".endUtc", v)
	}
	return it
}

func (p *parser) metadata(v any) *suggestion.Metadata {
	m, ok := v.(map[string]any)
	if !ok {
		p.fail("metadata", "must be an object")
		return nil
	}
	md := &suggestion.Metadata{}
	if v, ok := present(m, "response_ms"); ok {
		if n, ok := p.integer("metadata.response_ms", v); ok {
			md.ResponseMS = &n
		}
	}
	if v, ok := present(m, "retries"); ok {
		if n, ok := p.smallInt("metadata.retries", v); ok {
			md.Retries = &n
		}
	}
	return md
}

func (p *parser) number(path string, v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		p.fail(path, "must be a number, got %s", describe(v))
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) {
		p.fail(path, "must be a finite number, got %s", n)
		return 0, false
	}
	return f, true
}

func (p *parser) integer(path string, v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		p.fail(path, "must be an integer, got %s", describe(v))
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		p.fail(path, "must be an integer, got %s", n)
		return 0, false
	}
	return i, true
}

// smallInt narrows an integer to int, rejecting values that would wrap on
// 32-bit platforms.
func (p *parser) smallInt(path string, v any) (int, bool) {
	n, ok := p.integer(path, v)
	if !ok {
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		p.fail(path, "integer out of range, got %d", n)
		return 0, false
	}
	return int(n), true
}

func (p *parser) optionalString(path string, v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		p.fail(path, "must be a string or null, got %s", describe(v))
		return ""
	}
}

// present returns the value for key when it exists and is not null.
func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// dedupe drops value-level violations reported for a path that already
// failed type decoding, so a bad field is reported once.
func dedupe(errs []ValidationError) []ValidationError {
	failed := make(map[string]bool)
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		key := strings.Replace(e.Path, "estimated_minutes", "estimatedMinutes", 1)
		if failed[key] {
			continue
		}
		failed[key] = true
		out = append(out, e)
	}
	return out
}
