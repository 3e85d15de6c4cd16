package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Validate checks an argument set against the schema and returns the
// arguments converted to their declared runtime types. It enforces the
// dispatch invariant: every argument key is a declared parameter, and
// every required parameter is present (or supplied by its default)
// before the invocation may proceed.
//
// Nil argument values are dropped rather than rejected — callers that
// build argument sets from optional fields routinely include nulls for
// the ones they left unset.
func Validate(args map[string]any, s InputSchema) (map[string]any, error) {
	out := make(map[string]any, len(args))

	for name := range args {
		if _, ok := s.Properties[name]; !ok {
			return nil, &ValidationError{Param: name, Msg: "not a declared parameter"}
		}
	}

	for name, v := range args {
		if v == nil {
			continue
		}
		p := s.Properties[name]

		converted, err := convertValue(v, Resolve(p))
		if err != nil {
			return nil, &ValidationError{Param: name, Msg: err.Error()}
		}

		if len(p.Enum) > 0 && !enumContains(p.Enum, converted) {
			return nil, &ValidationError{
				Param: name,
				Msg:   fmt.Sprintf("value %v not in allowed set %v", converted, p.Enum),
			}
		}

		out[name] = converted
	}

	// Defaults fill parameters the caller omitted.
	for name, p := range s.Properties {
		if _, ok := out[name]; !ok && p.Default != nil {
			out[name] = p.Default
		}
	}

	for _, name := range s.Required {
		if _, ok := out[name]; !ok {
			return nil, &ValidationError{Param: name, Msg: "required parameter missing"}
		}
	}

	return out, nil
}

// convertValue converts v to the resolved type t. Numeric strings
// convert to their numeric kinds and whole floats to integers, since
// JSON decoding and free-text extraction both blur those distinctions.
func convertValue(v any, t Type) (any, error) {
	switch t.Kind {
	case KindAny:
		return v, nil

	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	case KindInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected whole number, got %v", n)
			}
			return int64(n), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", n)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}

	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", n)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", v)
		}

	case KindBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "1", "yes", "on":
				return true, nil
			case "false", "0", "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("expected boolean, got %q", b)
		default:
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}

	case KindSequence:
		seq, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
		elem := Type{Kind: KindAny}
		if t.Elem != nil {
			elem = *t.Elem
		}
		out := make([]any, len(seq))
		for i, item := range seq {
			converted, err := convertValue(item, elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil

	case KindMapping:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
		return m, nil

	default:
		return v, nil
	}
}

// enumContains reports whether v matches one of the enumerated values.
// Numeric enum entries compare by value regardless of int/float
// representation.
func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if valuesEqual(e, v) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	// DeepEqual rather than ==: enum entries decoded from JSON may hold
	// uncomparable types (arrays, objects), and == would panic on those.
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
