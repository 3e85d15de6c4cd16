package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhave1/ai-agent/internal/buildinfo"
)

// DefaultProtocolVersion is the MCP protocol version advertised during
// initialization.
const DefaultProtocolVersion = "2024-11-05"

// State is the lifecycle state of a Client. The only legal transitions
// are Disconnected → Connecting → Initializing → Ready and any state →
// Closed (terminal). A failed handshake returns to Disconnected.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateInitializing
	StateReady
	StateClosed
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ToolDefinition is an MCP tool as returned by tools/list. Servers
// disagree on the schema field spelling ("inputSchema" vs
// "input_schema"); both are accepted.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// UnmarshalJSON accepts both schema-field spellings.
func (d *ToolDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		InputSchema map[string]any `json:"inputSchema"`
		InputAlt    map[string]any `json:"input_schema"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Name = raw.Name
	d.Description = raw.Description
	d.InputSchema = raw.InputSchema
	if d.InputSchema == nil {
		d.InputSchema = raw.InputAlt
	}
	return nil
}

// ContentBlock is a single content item in a tools/call response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// callToolResult is the result payload of a tools/call response.
type callToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// toolsListResult is the result payload of a tools/list response. The
// pointer distinguishes a missing tools field from an empty list.
type toolsListResult struct {
	Tools *[]ToolDefinition `json:"tools"`
}

// serverInfo is returned in the initialize response.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResult is the initialize response result.
type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

// ClientConfig configures a protocol Client.
type ClientConfig struct {
	// Name identifies the server in log output.
	Name string

	// ProtocolVersion overrides DefaultProtocolVersion when non-empty.
	ProtocolVersion string

	// ClientName and ClientVersion form the clientInfo advertised
	// during initialization. Defaults: "ai-agent" and the build version.
	ClientName    string
	ClientVersion string

	// RootsListChanged and ToolsListChanged are the capability flags
	// advertised during initialization.
	RootsListChanged bool
	ToolsListChanged bool

	// CallTimeout bounds each protocol call, converting a stalled
	// server into a timeout error instead of an indefinite hang.
	// Zero means no per-call timeout beyond the caller's context.
	CallTimeout time.Duration

	// Logger is the structured logger for protocol diagnostics.
	Logger *slog.Logger
}

// Client connects to a single MCP server and provides typed access to
// the protocol operations (initialize, tools/list, tools/call, ping).
// A Client owns its Transport and at most one request is in flight at
// a time; concurrent callers are serialized.
type Client struct {
	config    ClientConfig
	transport Transport
	logger    *slog.Logger
	nextID    atomic.Int64

	mu         sync.Mutex
	state      State
	serverName string
	serverVer  string
}

// NewClient creates an MCP client over the given transport. The client
// starts Disconnected; Connect must succeed before any Call.
func NewClient(cfg ClientConfig, transport Transport) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = DefaultProtocolVersion
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "ai-agent"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = buildinfo.Version
	}
	return &Client{
		config:    cfg,
		transport: transport,
		logger:    logger.With("mcp_server", cfg.Name),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ServerInfo returns the server name and version reported during the
// handshake. Empty until Connect succeeds.
func (c *Client) ServerInfo() (name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverName, c.serverVer
}

// Connect performs the MCP handshake: it sends the initialize request
// and, on success, the notifications/initialized notification. The
// capability set advertised is fixed: roots list-changed notifications,
// sampling, and tools list-changed notifications.
//
// On any failure the client returns to Disconnected and Connect may be
// retried.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrTransportClosed
	case StateDisconnected:
		// Proceed.
	default:
		return fmt.Errorf("connect called in state %s", c.state)
	}

	c.state = StateConnecting
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := map[string]any{
		"protocolVersion": c.config.ProtocolVersion,
		"capabilities": map[string]any{
			"roots":    map[string]any{"listChanged": c.config.RootsListChanged},
			"sampling": map[string]any{},
			"tools":    map[string]any{"listChanged": c.config.ToolsListChanged},
		},
		"clientInfo": map[string]any{
			"name":    c.config.ClientName,
			"version": c.config.ClientVersion,
		},
	}

	req := NewRequest(c.nextID.Add(1), "initialize", params)
	c.state = StateInitializing

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		c.state = StateDisconnected
		return fmt.Errorf("initialize: %w", err)
	}
	if resp.Error != nil {
		c.state = StateDisconnected
		return fmt.Errorf("%w: %v", ErrHandshakeRejected, resp.Error)
	}

	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		c.state = StateDisconnected
		return fmt.Errorf("unmarshal initialize result: %w", err)
	}

	// Complete the handshake. Only after this notification is the
	// server obliged to accept other requests.
	if err := c.transport.Notify(ctx, NewNotification("notifications/initialized", nil)); err != nil {
		c.state = StateDisconnected
		return fmt.Errorf("send initialized notification: %w", err)
	}

	c.state = StateReady
	c.serverName = result.ServerInfo.Name
	c.serverVer = result.ServerInfo.Version

	c.logger.Info("MCP server initialized",
		"server_name", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol_version", result.ProtocolVersion,
	)
	return nil
}

// Call issues a JSON-RPC request and returns the raw result payload.
// Legal only in Ready: before Connect it fails with ErrNotConnected and
// after Close with ErrTransportClosed, in both cases without touching
// the transport. A server-supplied error envelope surfaces as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call(ctx, method, params)
}

// call is Call without the lock. Caller must hold c.mu.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	switch c.state {
	case StateReady:
		// Proceed.
	case StateClosed:
		return nil, ErrTransportClosed
	default:
		return nil, fmt.Errorf("%w (state %s)", ErrNotConnected, c.state)
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req := NewRequest(c.nextID.Add(1), method, params)

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// ListTools calls tools/list and returns the advertised tool
// definitions. The result is not cached: each call reflects the
// server's current catalog, and the registry layer replaces its
// snapshot wholesale on every discovery.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.call(ctx, "tools/list", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	var result toolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tools/list result: %w", err)
	}
	if result.Tools == nil {
		return nil, fmt.Errorf("tools/list result missing tools field")
	}

	c.logger.Info("discovered MCP tools", "count", len(*result.Tools))
	return *result.Tools, nil
}

// CallTool invokes a tool by name with the given arguments. The result
// is the text of the response content blocks joined with newlines;
// non-text blocks are described inline (e.g., "[image]"). A response
// with no content yields an empty string.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := map[string]any{
		"name":      name,
		"arguments": args,
	}

	raw, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return "", fmt.Errorf("tools/call %s: %w", name, err)
	}

	var result callToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("unmarshal tools/call result: %w", err)
	}

	text := extractText(result.Content)
	if result.IsError {
		return "", fmt.Errorf("MCP tool %s returned error: %s", name, text)
	}
	return text, nil
}

// Ping checks whether the MCP server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, "ping", nil)
	return err
}

// Close shuts down the client and its transport. Idempotent; Closed is
// terminal and a closed client cannot be reconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	c.logger.Info("closing MCP client")
	return c.transport.Close()
}

// callContext applies the configured per-call timeout, if any.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.CallTimeout > 0 {
		return context.WithTimeout(ctx, c.config.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// extractText joins all text content blocks into a single string.
// Non-text blocks are represented as inline markers.
func extractText(blocks []ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, b.Text)
		case "image":
			parts = append(parts, "[image]")
		case "resource":
			parts = append(parts, "[resource]")
		default:
			parts = append(parts, fmt.Sprintf("[%s]", b.Type))
		}
	}
	return strings.Join(parts, "\n")
}
