package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/abhave1/ai-agent/internal/mcp"
	"github.com/abhave1/ai-agent/internal/schema"
)

// Client is the protocol-client surface discovery needs: listing the
// server's tool catalog and executing calls on behalf of the bridged
// handlers.
type Client interface {
	ListTools(ctx context.Context) ([]mcp.ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// DiscoverOptions filter and shape the discovered tool set.
type DiscoverOptions struct {
	// Include, when non-empty, restricts discovery to the named tools.
	Include []string

	// Exclude skips the named tools. Ignored when Include is set.
	Exclude []string

	// Namespace, when non-empty, prefixes registered names via ToolName
	// so catalogs from several servers can share one registry.
	Namespace string

	// Logger is the structured logger for discovery diagnostics.
	Logger *slog.Logger
}

// Discover fetches the server's tool catalog and replaces the
// registry's snapshot with it. On any listing failure the registry is
// left untouched. An empty catalog is not an error: it yields an empty
// registry. Returns the number of tools registered.
func Discover(ctx context.Context, client Client, registry *Registry, opts DiscoverOptions) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defs, err := client.ListTools(ctx)
	if err != nil {
		return 0, fmt.Errorf("discover tools: %w", err)
	}

	includeSet := toSet(opts.Include)
	excludeSet := toSet(opts.Exclude)

	built := make([]*Tool, 0, len(defs))
	for _, def := range defs {
		if len(includeSet) > 0 {
			if !includeSet[def.Name] {
				continue
			}
		} else if excludeSet[def.Name] {
			continue
		}

		name := def.Name
		if opts.Namespace != "" {
			name = ToolName(opts.Namespace, def.Name)
		}

		built = append(built, bridgeTool(client, name, def))
		logger.Debug("bridged MCP tool", "mcp_name", def.Name, "registered_name", name)
	}

	registry.Replace(built)
	return len(built), nil
}

// bridgeTool creates a registry tool that proxies calls to the server.
func bridgeTool(client Client, name string, def mcp.ToolDefinition) *Tool {
	// Capture the server-side name: the registered name may be namespaced.
	mcpName := def.Name

	return &Tool{
		Name:        name,
		Description: def.Description,
		Parameters:  def.InputSchema,
		Schema:      schema.Parse(def.InputSchema),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return client.CallTool(ctx, mcpName, args)
		},
	}
}

// sanitizeRe matches characters that are not lowercase alphanumeric or underscore.
var sanitizeRe = regexp.MustCompile(`[^a-z0-9_]`)

// ToolName generates a namespaced tool name from a server name and an
// MCP tool name. Both components are sanitized to contain only
// lowercase alphanumeric characters and underscores.
func ToolName(serverName, mcpToolName string) string {
	return fmt.Sprintf("mcp_%s_%s", sanitize(serverName), sanitize(mcpToolName))
}

// sanitize converts a name to lowercase and replaces non-alphanumeric
// characters (except underscore) with underscores. Consecutive
// underscores are collapsed and leading/trailing underscores trimmed.
func sanitize(name string) string {
	s := strings.ToLower(name)
	s = sanitizeRe.ReplaceAllString(s, "_")

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	return strings.Trim(s, "_")
}

// toSet converts a string slice to a set for O(1) lookups.
func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
