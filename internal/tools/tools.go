// Package tools holds the registry of callable tools discovered from
// an MCP server: each tool's name, description, parameter schema, and
// the handler that executes it through the protocol client.
package tools

import (
	"context"
	"sort"
	"sync"

	"github.com/abhave1/ai-agent/internal/schema"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any     // raw parameter schema as advertised
	Schema      schema.InputSchema // parsed form of Parameters
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the current tool set as an immutable snapshot.
// Discovery replaces the whole snapshot atomically — there is no
// incremental merge — so concurrent readers never observe a partially
// updated catalog.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	names []string // sorted
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]*Tool{}}
}

// Replace swaps in a new tool set, discarding the previous one. Tools
// with duplicate names keep the last occurrence.
func (r *Registry) Replace(tools []*Tool) {
	next := make(map[string]*Tool, len(tools))
	for _, t := range tools {
		next[t.Name] = t
	}
	names := make([]string, 0, len(next))
	for name := range next {
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.tools = next
	r.names = names
	r.mu.Unlock()
}

// Get returns a tool by name and whether it was found.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Tools returns all registered tools, ordered by name.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name])
	}
	return out
}
