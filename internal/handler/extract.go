package handler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abhave1/ai-agent/internal/schema"
)

// Free-text argument extraction. When the caller supplies prose instead
// of a JSON object ("weather in Austin" rather than
// {"location":"Austin"}), these heuristics recover argument values from
// the text using each parameter's declared type and the keywords in its
// name and description. They are best-effort by design: a convenience
// that keeps a reasoning loop running through a formatting slip, not a
// parser with correctness guarantees.

var (
	numberRe   = regexp.MustCompile(`-?\d+\.?\d*`)
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
	locationRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// extract builds an argument set from free text. Parameters are
// processed in sorted name order for determinism. If no parameter
// yields a value and the schema has required parameters, the whole
// input is assigned to the first required one, converted to its
// declared type.
func extract(input string, s schema.InputSchema) map[string]any {
	args := map[string]any{}

	for _, name := range s.Names() {
		p := s.Properties[name]
		keywords := strings.ToLower(name + " " + p.Description)
		if v := extractValue(input, p.Type, keywords); v != nil {
			args[name] = v
		}
	}

	if len(args) == 0 && len(s.Required) > 0 {
		first := s.Required[0]
		args[first] = convertToType(input, s.Properties[first].Type)
	}

	return args
}

// extractValue pulls one value of the declared type out of the input,
// or nil when nothing matches.
func extractValue(input, declaredType, keywords string) any {
	switch declaredType {
	case "number", "integer":
		if m := numberRe.FindString(input); m != "" {
			return convertToType(m, declaredType)
		}

	case "boolean":
		lower := strings.ToLower(input)
		for _, w := range []string{"true", "yes", "on", "enable"} {
			if strings.Contains(lower, w) {
				return true
			}
		}
		for _, w := range []string{"false", "no", "off", "disable"} {
			if strings.Contains(lower, w) {
				return false
			}
		}

	case "string", "":
		switch {
		case containsAny(keywords, "url", "link", "website"):
			if m := urlRe.FindString(input); m != "" {
				return m
			}
		case containsAny(keywords, "location", "city", "place"):
			if m := locationRe.FindString(input); m != "" {
				return m
			}
		case strings.Contains(keywords, "email"):
			if m := emailRe.FindString(input); m != "" {
				return m
			}
		default:
			// A plain string parameter with no recognizable keyword
			// takes the input verbatim.
			return input
		}
	}

	return nil
}

// convertToType converts a string token to the declared scalar type.
// Unconvertible tokens stay strings; validation reports them properly.
func convertToType(value, declaredType string) any {
	switch declaredType {
	case "number":
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
		return value
	case "integer":
		if i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return i
		}
		return value
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	default:
		return value
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
