package tools

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/abhave1/ai-agent/internal/mcp"
)

// fakeClient implements Client over a fixed catalog.
type fakeClient struct {
	defs    []mcp.ToolDefinition
	listErr error
	calls   []string
}

func (f *fakeClient) ListTools(ctx context.Context) ([]mcp.ToolDefinition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.defs, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	return fmt.Sprintf("result of %s", name), nil
}

func catalog(names ...string) []mcp.ToolDefinition {
	out := make([]mcp.ToolDefinition, 0, len(names))
	for _, n := range names {
		out = append(out, mcp.ToolDefinition{
			Name:        n,
			Description: "does " + n,
			InputSchema: map[string]any{
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []any{"query"},
			},
		})
	}
	return out
}

func TestDiscover(t *testing.T) {
	client := &fakeClient{defs: catalog("weather", "search")}
	r := NewRegistry()

	n, err := Discover(context.Background(), client, r, DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if n != 2 {
		t.Errorf("registered %d tools, want 2", n)
	}

	tool, ok := r.Get("weather")
	if !ok {
		t.Fatal("Get(weather) = not found")
	}
	if tool.Description != "does weather" {
		t.Errorf("Description = %q", tool.Description)
	}
	if !tool.Schema.IsRequired("query") {
		t.Error("parsed schema lost the required marker")
	}
}

func TestDiscoverHandlerProxiesCall(t *testing.T) {
	client := &fakeClient{defs: catalog("weather")}
	r := NewRegistry()

	if _, err := Discover(context.Background(), client, r, DiscoverOptions{}); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	tool, _ := r.Get("weather")
	got, err := tool.Handler(context.Background(), map[string]any{"query": "Austin"})
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if got != "result of weather" {
		t.Errorf("Handler result = %q", got)
	}
	if !reflect.DeepEqual(client.calls, []string{"weather"}) {
		t.Errorf("server-side calls = %v, want [weather]", client.calls)
	}
}

func TestDiscoverNamespacedHandlerUsesServerName(t *testing.T) {
	client := &fakeClient{defs: catalog("get-weather")}
	r := NewRegistry()

	if _, err := Discover(context.Background(), client, r, DiscoverOptions{Namespace: "Home Server"}); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	tool, ok := r.Get("mcp_home_server_get_weather")
	if !ok {
		t.Fatalf("namespaced tool not registered; have %v", r.Names())
	}

	// The handler must call the server with the original tool name, not
	// the namespaced registry name.
	if _, err := tool.Handler(context.Background(), nil); err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !reflect.DeepEqual(client.calls, []string{"get-weather"}) {
		t.Errorf("server-side calls = %v, want [get-weather]", client.calls)
	}
}

func TestDiscoverErrorLeavesRegistryUntouched(t *testing.T) {
	client := &fakeClient{defs: catalog("weather")}
	r := NewRegistry()
	if _, err := Discover(context.Background(), client, r, DiscoverOptions{}); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	client.listErr = errors.New("server went away")
	if _, err := Discover(context.Background(), client, r, DiscoverOptions{}); err == nil {
		t.Fatal("expected error from failed listing")
	}
	if _, ok := r.Get("weather"); !ok {
		t.Error("failed discovery wiped the previous snapshot")
	}
}

func TestDiscoverEmptyCatalog(t *testing.T) {
	client := &fakeClient{defs: catalog("weather")}
	r := NewRegistry()
	if _, err := Discover(context.Background(), client, r, DiscoverOptions{}); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	client.defs = nil
	n, err := Discover(context.Background(), client, r, DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover with empty catalog: %v", err)
	}
	if n != 0 || r.Len() != 0 {
		t.Errorf("n = %d, Len = %d; want both 0", n, r.Len())
	}
}

func TestDiscoverFilters(t *testing.T) {
	tests := []struct {
		name string
		opts DiscoverOptions
		want []string
	}{
		{"include only", DiscoverOptions{Include: []string{"weather"}}, []string{"weather"}},
		{"exclude", DiscoverOptions{Exclude: []string{"search"}}, []string{"translate", "weather"}},
		{
			"include wins over exclude",
			DiscoverOptions{Include: []string{"search"}, Exclude: []string{"search"}},
			[]string{"search"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{defs: catalog("weather", "search", "translate")}
			r := NewRegistry()
			if _, err := Discover(context.Background(), client, r, tt.opts); err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if got := r.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolName(t *testing.T) {
	tests := []struct {
		server string
		tool   string
		want   string
	}{
		{"brave", "web_search", "mcp_brave_web_search"},
		{"Home Server", "Get-Weather", "mcp_home_server_get_weather"},
		{"a--b", "__tool__", "mcp_a_b_tool"},
		{"srv.1", "do.things", "mcp_srv_1_do_things"},
	}

	for _, tt := range tests {
		if got := ToolName(tt.server, tt.tool); got != tt.want {
			t.Errorf("ToolName(%q, %q) = %q, want %q", tt.server, tt.tool, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"Mixed Case", "mixed_case"},
		{"many---dashes", "many_dashes"},
		{"_wrapped_", "wrapped"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
