// Package handler is the boundary between a reasoning caller and the
// tool registry. Reasoning loops produce loosely-typed argument sets —
// sometimes a JSON object, sometimes free text — and expect a string
// back no matter what happened. Invoke therefore never returns an
// error and never panics outward: every failure kind (unknown tool,
// validation, transport, server error) is rendered as descriptive text.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/abhave1/ai-agent/internal/schema"
	"github.com/abhave1/ai-agent/internal/tools"
)

// Handler validates, coerces, and dispatches tool invocations against
// a registry snapshot.
type Handler struct {
	registry *tools.Registry
	logger   *slog.Logger
}

// New creates a Handler over the given registry.
func New(registry *tools.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// Invoke executes the named tool with the given raw input and returns
// the textual outcome. The input may be a JSON object of arguments or
// free text; free text goes through a best-effort extraction pass
// keyed by each parameter's declared type and description (see
// extract.go). Failures come back as text, never as an error.
func (h *Handler) Invoke(ctx context.Context, name, input string) (out string) {
	log := h.logger.With(
		"tool", name,
		"invocation_id", uuid.NewString(),
	)
	log.Debug("tool invocation", "input", input)

	// The reasoning caller cannot handle a panic; a malformed schema or
	// handler bug must still come back as text.
	defer func() {
		if r := recover(); r != nil {
			log.Error("tool invocation panicked", "panic", r)
			out = fmt.Sprintf("Error executing %s: internal error: %v", name, r)
		}
	}()

	t, ok := h.registry.Get(name)
	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found. Available tools: %s",
			name, strings.Join(h.registry.Names(), ", "))
	}

	// Zero-parameter tools dispatch immediately; there is nothing to
	// parse or validate.
	if len(t.Schema.Properties) == 0 {
		return h.dispatch(ctx, log, t, map[string]any{})
	}

	args, structured := parseArgs(input)
	if !structured {
		args = extract(input, t.Schema)
		log.Debug("extracted arguments from free text", "args", args)
	}

	coerced := schema.Coerce(args, t.Schema)
	validated, err := schema.Validate(coerced, t.Schema)
	if err != nil {
		return fmt.Sprintf("Parameter validation error for %s: %v", name, err)
	}

	return h.dispatch(ctx, log, t, validated)
}

// dispatch runs the tool handler and normalizes its outcome to text.
func (h *Handler) dispatch(ctx context.Context, log *slog.Logger, t *tools.Tool, args map[string]any) string {
	log.Info("executing tool", "args", args)

	result, err := t.Handler(ctx, args)
	if err != nil {
		log.Warn("tool execution failed", "error", err)
		return fmt.Sprintf("Error executing %s: %v", t.Name, err)
	}
	if result == "" {
		return fmt.Sprintf("Tool %s returned no results", t.Name)
	}
	return result
}

// parseArgs attempts to read input as a JSON argument object. Scalars
// and arrays are not argument sets even though they are valid JSON.
func parseArgs(input string) (map[string]any, bool) {
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return nil, false
	}
	if args == nil {
		return nil, false
	}
	return args, true
}
