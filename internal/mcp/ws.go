package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures a WebSocket MCP transport.
type WSConfig struct {
	// URL is the MCP server endpoint. http/https schemes are rewritten
	// to ws/wss.
	URL string

	// Headers are additional HTTP headers sent with the dial request
	// (e.g., Authorization).
	Headers map[string]string

	// MaxSkippedLines overrides DefaultMaxSkippedLines when positive.
	MaxSkippedLines int

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger
}

// WSTransport communicates with an MCP server over a WebSocket
// connection, one JSON-RPC message per websocket text frame. Like the
// stdio transport it is strictly sequential: the mutex admits one
// in-flight request at a time and responses are correlated by id.
type WSTransport struct {
	config   WSConfig
	logger   *slog.Logger
	maxSkips int

	mu     sync.Mutex
	closed bool
	conn   *websocket.Conn
}

// NewWSTransport creates a WebSocket transport for the given config.
// The connection is not dialed until the first Send or Notify call.
func NewWSTransport(cfg WSConfig) *WSTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSkips := cfg.MaxSkippedLines
	if maxSkips <= 0 {
		maxSkips = DefaultMaxSkippedLines
	}
	return &WSTransport{
		config:   cfg,
		logger:   logger,
		maxSkips: maxSkips,
	}
}

// dial establishes the connection if needed. Caller must hold t.mu.
func (t *WSTransport) dial(ctx context.Context) error {
	if t.closed {
		return ErrTransportClosed
	}
	if t.conn != nil {
		return nil
	}

	u, err := url.Parse(t.config.URL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	t.logger.Info("dialing MCP WebSocket", "url", u.String())

	header := http.Header{}
	for k, v := range t.config.Headers {
		header.Set(k, v)
	}

	// Larger buffers for servers with big tool catalogs or results.
	dialer := websocket.Dialer{
		ReadBufferSize:  1 << 20,
		WriteBufferSize: 64 * 1024,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial websocket (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial websocket: %w", err)
	}

	t.conn = conn
	return nil
}

// Send sends a JSON-RPC request and reads frames until the matching
// response arrives. Unparseable or unmatched frames are skipped up to
// the configured ceiling, mirroring the stdio transport.
func (t *WSTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.dial(ctx); err != nil {
		return nil, err
	}

	if err := t.writeJSON(req); err != nil {
		return nil, err
	}

	// The context deadline maps onto the connection read deadline so a
	// silent server surfaces as a timeout rather than a hang.
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			t.teardown()
			return nil, err
		}

		_, frame, err := t.conn.ReadMessage()
		if err != nil {
			t.teardown()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrNoResponse
			}
			return nil, fmt.Errorf("read websocket frame: %w", err)
		}

		var resp Response
		if err := json.Unmarshal(frame, &resp); err != nil {
			t.logger.Debug("skipping non-JSON websocket frame", "frame", string(frame))
			skipped++
			if skipped > t.maxSkips {
				return nil, fmt.Errorf("%w (limit %d)", ErrMaxAttempts, t.maxSkips)
			}
			continue
		}

		if resp.ID == req.ID && resp.IsReply() {
			return &resp, nil
		}

		t.logger.Debug("skipping unmatched MCP message", "id", resp.ID, "want", req.ID)
		skipped++
		if skipped > t.maxSkips {
			return nil, fmt.Errorf("%w (limit %d)", ErrMaxAttempts, t.maxSkips)
		}
	}
}

// Notify sends a JSON-RPC notification. No response is expected.
func (t *WSTransport) Notify(ctx context.Context, notif *Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.dial(ctx); err != nil {
		return err
	}
	return t.writeJSON(notif)
}

// writeJSON marshals msg and writes it as one text frame. Caller must
// hold t.mu.
func (t *WSTransport) writeJSON(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.teardown()
		return fmt.Errorf("%w: write websocket frame: %v", ErrTransportClosed, err)
	}
	return nil
}

// Close tears down the connection. Idempotent; Send/Notify after Close
// return ErrTransportClosed.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.conn == nil {
		return nil
	}

	// Best-effort close handshake before dropping the connection.
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := t.conn.Close()
	t.conn = nil
	return err
}

// teardown drops a failed connection so the next call redials.
// Caller must hold t.mu.
func (t *WSTransport) teardown() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}
