package tools

import (
	"strings"
	"testing"

	"github.com/abhave1/ai-agent/internal/schema"
)

func weatherTool() *Tool {
	raw := map[string]any{
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city to check",
			},
			"units": map[string]any{
				"type":        "string",
				"description": "Temperature units",
			},
		},
		"required": []any{"location"},
	}
	return &Tool{
		Name:        "get_weather",
		Description: "Gets the current weather.",
		Parameters:  raw,
		Schema:      schema.Parse(raw),
	}
}

func TestDescribe(t *testing.T) {
	got := Describe(weatherTool())
	want := "- get_weather: Gets the current weather." + usageSuffix +
		"\n  - location (string): The city to check (required)" +
		"\n  - units (string): Temperature units (optional)"
	if got != want {
		t.Errorf("Describe() =\n%s\nwant\n%s", got, want)
	}
}

func TestDescribeNoParameters(t *testing.T) {
	tool := &Tool{Name: "ping", Description: "Checks liveness."}
	got := Describe(tool)
	want := "- ping: Checks liveness." + usageSuffix
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestDescribeEmptyDescription(t *testing.T) {
	tool := &Tool{Name: "mystery"}
	got := Describe(tool)
	if !strings.HasPrefix(got, "- mystery: Tool: mystery") {
		t.Errorf("Describe() = %q, want placeholder description", got)
	}
}

func TestDescribeUntypedParameter(t *testing.T) {
	raw := map[string]any{
		"properties": map[string]any{
			"input": map[string]any{"description": "Free-form input"},
		},
	}
	tool := &Tool{Name: "echo", Description: "Echoes.", Schema: schema.Parse(raw)}
	got := Describe(tool)
	if !strings.Contains(got, "- input (string): Free-form input (optional)") {
		t.Errorf("untyped parameter not rendered as string:\n%s", got)
	}
}

func TestDescribeAll(t *testing.T) {
	r := NewRegistry()
	r.Replace([]*Tool{
		{Name: "zeta", Description: "Last."},
		{Name: "alpha", Description: "First."},
	})

	got := DescribeAll(r)
	alphaIdx := strings.Index(got, "- alpha:")
	zetaIdx := strings.Index(got, "- zeta:")
	if alphaIdx == -1 || zetaIdx == -1 || alphaIdx > zetaIdx {
		t.Errorf("DescribeAll not in sorted order:\n%s", got)
	}
	if got := strings.Count(got, "\n- "); got != 1 {
		t.Errorf("expected 2 blocks separated by newline, got %d separators", got)
	}
}

func TestDescribeAllEmpty(t *testing.T) {
	if got := DescribeAll(NewRegistry()); got != "" {
		t.Errorf("DescribeAll(empty) = %q, want empty", got)
	}
}
