package tools

import (
	"fmt"
	"strings"
)

// usageSuffix is appended to every tool description handed to the
// reasoning caller. The wording steers language models away from
// repurposing a tool for unrelated input.
const usageSuffix = " Use this tool ONLY for its intended purpose as described."

// Describe renders a deterministic, human-readable block for one tool:
// its name and description, then one line per parameter with declared
// type, description, and a required/optional tag. Parameters are listed
// in sorted name order so the output is stable across runs.
func Describe(t *Tool) string {
	description := t.Description
	if description == "" {
		description = fmt.Sprintf("Tool: %s", t.Name)
	}
	description += usageSuffix

	names := t.Schema.Names()
	if len(names) == 0 {
		return fmt.Sprintf("- %s: %s", t.Name, description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- %s: %s", t.Name, description)
	for _, name := range names {
		p := t.Schema.Properties[name]
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		tag := " (optional)"
		if t.Schema.IsRequired(name) {
			tag = " (required)"
		}
		fmt.Fprintf(&b, "\n  - %s (%s): %s%s", name, typ, p.Description, tag)
	}
	return b.String()
}

// DescribeAll renders Describe for every registered tool, one block per
// line group, in registry (sorted) order.
func DescribeAll(r *Registry) string {
	var blocks []string
	for _, t := range r.Tools() {
		blocks = append(blocks, Describe(t))
	}
	return strings.Join(blocks, "\n")
}
