package schema

import (
	"reflect"
	"testing"
)

func weatherSchema() InputSchema {
	return Parse(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city to check",
			},
			"units": map[string]any{
				"type":    "string",
				"enum":    []any{"celsius", "fahrenheit"},
				"default": "celsius",
			},
			"days": map[string]any{
				"type": "integer",
			},
		},
		"required": []any{"location"},
	})
}

func TestParse(t *testing.T) {
	s := weatherSchema()

	if len(s.Properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(s.Properties))
	}
	if got := s.Properties["location"].Description; got != "The city to check" {
		t.Errorf("location description = %q", got)
	}
	if got := s.Properties["units"].Default; got != "celsius" {
		t.Errorf("units default = %v, want celsius", got)
	}
	if got := len(s.Properties["units"].Enum); got != 2 {
		t.Errorf("units enum size = %d, want 2", got)
	}
	if !s.IsRequired("location") {
		t.Error("IsRequired(location) = false, want true")
	}
	if s.IsRequired("units") {
		t.Error("IsRequired(units) = true, want false")
	}
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}, {"type": "object"}} {
		s := Parse(raw)
		if len(s.Properties) != 0 {
			t.Errorf("Parse(%v) yielded %d properties, want 0", raw, len(s.Properties))
		}
	}
}

func TestNamesSorted(t *testing.T) {
	s := weatherSchema()
	want := []string{"days", "location", "units"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		prop Property
		want Kind
	}{
		{"string", Property{Type: "string"}, KindString},
		{"integer", Property{Type: "integer"}, KindInteger},
		{"number", Property{Type: "number"}, KindFloat},
		{"boolean", Property{Type: "boolean"}, KindBoolean},
		{"object", Property{Type: "object"}, KindMapping},
		{"array", Property{Type: "array"}, KindSequence},
		{"unknown degrades to any", Property{Type: "tuple"}, KindAny},
		{"missing degrades to any", Property{}, KindAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.prop); got.Kind != tt.want {
				t.Errorf("Resolve(%q).Kind = %v, want %v", tt.prop.Type, got.Kind, tt.want)
			}
		})
	}
}

func TestResolveArrayElem(t *testing.T) {
	typ := Resolve(Property{
		Type:  "array",
		Items: map[string]any{"type": "integer"},
	})
	if typ.Kind != KindSequence {
		t.Fatalf("Kind = %v, want sequence", typ.Kind)
	}
	if typ.Elem == nil || typ.Elem.Kind != KindInteger {
		t.Errorf("Elem = %v, want integer", typ.Elem)
	}

	// Missing items: element type defaults to any.
	typ = Resolve(Property{Type: "array"})
	if typ.Elem == nil || typ.Elem.Kind != KindAny {
		t.Errorf("Elem without items = %v, want any", typ.Elem)
	}
}

func TestResolveNestedArray(t *testing.T) {
	typ := Resolve(Property{
		Type: "array",
		Items: map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	})
	if typ.Elem == nil || typ.Elem.Kind != KindSequence {
		t.Fatalf("Elem = %v, want sequence", typ.Elem)
	}
	if typ.Elem.Elem == nil || typ.Elem.Elem.Kind != KindString {
		t.Errorf("Elem.Elem = %v, want string", typ.Elem.Elem)
	}
}

func TestCoerce(t *testing.T) {
	s := Parse(map[string]any{
		"properties": map[string]any{
			"tags":   map[string]any{"type": "array"},
			"filter": map[string]any{"type": "object"},
			"query":  map[string]any{"type": "string"},
		},
	})

	args := map[string]any{
		"tags":   `["a","b"]`,
		"filter": `{"lang":"go"}`,
		"query":  `{"not":"touched"}`, // string-typed: left alone
	}
	got := Coerce(args, s)

	if _, ok := got["tags"].([]any); !ok {
		t.Errorf("tags = %T, want parsed array", got["tags"])
	}
	if _, ok := got["filter"].(map[string]any); !ok {
		t.Errorf("filter = %T, want parsed object", got["filter"])
	}
	if got["query"] != `{"not":"touched"}` {
		t.Errorf("query = %v, want original string", got["query"])
	}
}

func TestCoerceBadJSONLeftUnchanged(t *testing.T) {
	s := Parse(map[string]any{
		"properties": map[string]any{
			"tags": map[string]any{"type": "array"},
		},
	})

	got := Coerce(map[string]any{"tags": "not json ["}, s)
	if got["tags"] != "not json [" {
		t.Errorf("tags = %v, want original string after failed parse", got["tags"])
	}
}
