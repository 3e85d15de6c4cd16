package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultMaxSkippedLines bounds how many unparseable or unmatched lines
// a Send will skip before giving up with ErrMaxAttempts. Server
// subprocesses routinely print startup noise (version banners, literal
// "undefined" from some runtimes) before speaking the protocol, so a
// handful of skips is normal. Hundreds is a broken server.
const DefaultMaxSkippedLines = 8

// stopGracePeriod is how long Close waits for the subprocess to exit
// after stdin is closed before killing it.
const stopGracePeriod = 5 * time.Second

// StdioConfig configures a stdio MCP transport that communicates with
// a subprocess over stdin/stdout using newline-delimited JSON-RPC.
type StdioConfig struct {
	// Command is the executable to run.
	Command string

	// Args are command-line arguments passed to the executable.
	Args []string

	// Env are additional environment variables for the subprocess
	// (format: "KEY=VALUE"). These are appended to the current
	// process environment.
	Env []string

	// MaxSkippedLines overrides DefaultMaxSkippedLines when positive.
	MaxSkippedLines int

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger
}

// StdioTransport communicates with an MCP server running as a
// subprocess. JSON-RPC messages are newline-delimited: one JSON object
// per line on stdin and stdout. stderr is drained to the debug log and
// never interpreted as protocol data.
type StdioTransport struct {
	config   StdioConfig
	logger   *slog.Logger
	maxSkips int

	mu     sync.Mutex
	closed bool
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
}

// NewStdioTransport creates a stdio transport for the given config.
// The subprocess is not started until the first Send or Notify call.
func NewStdioTransport(cfg StdioConfig) *StdioTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSkips := cfg.MaxSkippedLines
	if maxSkips <= 0 {
		maxSkips = DefaultMaxSkippedLines
	}
	return &StdioTransport{
		config:   cfg,
		logger:   logger,
		maxSkips: maxSkips,
	}
}

// start launches the subprocess if it is not already running. The
// subprocess lifecycle is independent of call contexts — it survives
// individual request timeouts and only Close or a write failure tears
// it down. Caller must hold t.mu.
func (t *StdioTransport) start() error {
	if t.closed {
		return ErrTransportClosed
	}
	if t.cmd != nil && t.cmd.ProcessState == nil {
		// Process is still running.
		return nil
	}

	t.logger.Info("starting MCP subprocess",
		"command", t.config.Command,
		"args", t.config.Args,
	)

	cmd := exec.Command(t.config.Command, t.config.Args...)
	cmd.Env = append(os.Environ(), t.config.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for logging — not part of the protocol.
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stderrPipe.Close()
		stdout.Close()
		stdin.Close()
		return &SpawnError{Command: t.config.Command, Err: err}
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReaderSize(stdout, 1<<20) // 1 MiB buffer for large responses

	// Drain stderr in the background.
	go t.drainStderr(stderrPipe)

	t.logger.Info("MCP subprocess started", "pid", cmd.Process.Pid)
	return nil
}

// drainStderr reads stderr lines and logs them at debug level.
func (t *StdioTransport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		t.logger.Debug("MCP subprocess stderr", "line", scanner.Text())
	}
}

// writeLine appends the newline delimiter and writes the full frame.
// Caller must hold t.mu.
func (t *StdioTransport) writeLine(data []byte) error {
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		t.cleanup()
		return fmt.Errorf("%w: write to subprocess stdin: %v", ErrTransportClosed, err)
	}
	return nil
}

// readResult is the outcome of a single line read from stdout.
type readResult struct {
	line []byte
	err  error
}

// readLine reads one line from the subprocess stdout. The read runs in
// a goroutine so context cancellation can interrupt a blocked read; on
// cancellation the subprocess is killed to unblock the reader.
// Caller must hold t.mu.
func (t *StdioTransport) readLine(ctx context.Context) ([]byte, error) {
	ch := make(chan readResult, 1)
	reader := t.reader
	go func() {
		line, err := reader.ReadBytes('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		// Kill the subprocess so the blocked read unblocks.
		t.cleanup()
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			t.cleanup()
			if errors.Is(res.err, io.EOF) {
				return nil, ErrNoResponse
			}
			return nil, fmt.Errorf("read from subprocess stdout: %w", res.err)
		}
		return res.line, nil
	}
}

// Send sends a JSON-RPC request over stdin and reads the matching
// response from stdout. The mutex serializes calls since stdio is
// inherently sequential: at most one request is ever in flight.
//
// The subprocess may emit non-protocol noise and server-initiated
// notifications between replies, so Send skips lines that do not parse
// as a reply to this request, up to the configured ceiling.
func (t *StdioTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.start(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := t.writeLine(data); err != nil {
		return nil, err
	}

	skipped := 0
	for {
		line, err := t.readLine(ctx)
		if err != nil {
			return nil, err
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.logger.Debug("skipping non-JSON line from MCP subprocess",
				"line", string(line),
			)
			skipped++
			if skipped > t.maxSkips {
				return nil, fmt.Errorf("%w (limit %d)", ErrMaxAttempts, t.maxSkips)
			}
			continue
		}

		if resp.ID == req.ID && resp.IsReply() {
			return &resp, nil
		}

		// A parsed envelope that is not our reply: a notification or a
		// stale message. Skipped, and counted against the same ceiling.
		t.logger.Debug("skipping unmatched MCP message",
			"id", resp.ID,
			"want", req.ID,
		)
		skipped++
		if skipped > t.maxSkips {
			return nil, fmt.Errorf("%w (limit %d)", ErrMaxAttempts, t.maxSkips)
		}
	}
}

// Notify sends a JSON-RPC notification over stdin. No response is expected.
func (t *StdioTransport) Notify(_ context.Context, notif *Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.start(); err != nil {
		return err
	}

	data, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return t.writeLine(data)
}

// Close terminates the subprocess and releases resources. Idempotent:
// repeated calls are no-ops, and Send/Notify after Close return
// ErrTransportClosed.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.stop()
}

// stop terminates the subprocess. Caller must hold t.mu.
func (t *StdioTransport) stop() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}

	t.logger.Info("stopping MCP subprocess", "pid", t.cmd.Process.Pid)

	// Close stdin to signal the subprocess to exit.
	if t.stdin != nil {
		t.stdin.Close()
	}

	// Wait briefly for graceful exit, then force kill.
	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		t.cmd = nil
		return err
	case <-time.After(stopGracePeriod):
		t.logger.Warn("MCP subprocess did not exit gracefully, killing",
			"pid", t.cmd.Process.Pid,
		)
		_ = t.cmd.Process.Kill()
		<-done
		t.cmd = nil
		return nil
	}
}

// cleanup resets the process state after a failure. Caller must hold t.mu.
func (t *StdioTransport) cleanup() {
	if t.stdin != nil {
		t.stdin.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		_ = t.cmd.Wait()
	}
	t.cmd = nil
	t.stdin = nil
	t.reader = nil
}
