// Package schema models the JSON-Schema subset MCP servers use to
// describe tool parameters, and converts loosely-typed argument values
// into the declared runtime types.
//
// Schemas are data, not code: a parsed InputSchema plus a small
// recursive type resolver replaces any need to generate per-tool
// callables or types at runtime. Unknown or unsupported declared types
// degrade to Any rather than failing, since servers are free to use
// schema features this subset does not model.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the runtime type a declared JSON-schema type resolves to.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindSequence
	KindMapping
)

// String returns the kind name used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	default:
		return "any"
	}
}

// Type is a resolved parameter type. Elem is the element type of a
// KindSequence and nil otherwise.
type Type struct {
	Kind Kind
	Elem *Type
}

// Property is one declared tool parameter.
type Property struct {
	Type        string
	Description string
	Default     any
	Enum        []any
	Items       map[string]any // array element schema, may be nil
}

// InputSchema is the parsed parameter schema of one tool. Immutable
// once parsed.
type InputSchema struct {
	Properties map[string]Property
	Required   []string
}

// Parse extracts the supported schema subset from a raw JSON-schema
// object ("properties" and "required"). A nil or empty raw schema
// parses to a zero-parameter schema; malformed property entries are
// treated as untyped rather than rejected.
func Parse(raw map[string]any) InputSchema {
	s := InputSchema{Properties: map[string]Property{}}

	props, _ := raw["properties"].(map[string]any)
	for name, v := range props {
		p := Property{}
		if m, ok := v.(map[string]any); ok {
			p.Type, _ = m["type"].(string)
			p.Description, _ = m["description"].(string)
			p.Default = m["default"]
			if e, ok := m["enum"].([]any); ok {
				p.Enum = e
			}
			if items, ok := m["items"].(map[string]any); ok {
				p.Items = items
			}
		}
		s.Properties[name] = p
	}

	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}

	return s
}

// Names returns the declared parameter names in sorted order. JSON
// object key order is not preserved through decoding, so sorted order
// is the deterministic stand-in for declaration order.
func (s InputSchema) Names() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether the named parameter is required.
func (s InputSchema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Resolve maps a declared property to its runtime type. Array element
// types resolve recursively; a missing or empty items schema yields a
// sequence of Any.
func Resolve(p Property) Type {
	switch p.Type {
	case "string":
		return Type{Kind: KindString}
	case "integer":
		return Type{Kind: KindInteger}
	case "number":
		return Type{Kind: KindFloat}
	case "boolean":
		return Type{Kind: KindBoolean}
	case "object":
		return Type{Kind: KindMapping}
	case "array":
		elem := Type{Kind: KindAny}
		if len(p.Items) > 0 {
			elem = Resolve(Property{
				Type:  stringOr(p.Items["type"]),
				Items: mapOr(p.Items["items"]),
			})
		}
		return Type{Kind: KindSequence, Elem: &elem}
	default:
		return Type{Kind: KindAny}
	}
}

func stringOr(v any) string {
	s, _ := v.(string)
	return s
}

func mapOr(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Coerce repairs arguments whose declared type is array or object but
// whose supplied value is a stringified JSON document, a common slip
// from language-model callers. Coercion is best-effort: a string that
// does not parse is left unchanged, and Coerce never fails.
func Coerce(args map[string]any, s InputSchema) map[string]any {
	out := make(map[string]any, len(args))
	for name, v := range args {
		out[name] = v

		p, ok := s.Properties[name]
		if !ok || (p.Type != "array" && p.Type != "object") {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}

		var parsed any
		if err := json.Unmarshal([]byte(str), &parsed); err == nil {
			out[name] = parsed
		}
	}
	return out
}

// ValidationError reports a value that failed validation against the
// schema. It names the offending parameter.
type ValidationError struct {
	Param string
	Msg   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Msg)
}
