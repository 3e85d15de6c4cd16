package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
server:
  name: brave
  transport: stdio
  command: npx
  args: ["-y", "@modelcontextprotocol/server-brave-search"]
  env: ["BRAVE_API_KEY=abc123"]
  call_timeout_sec: 60
  max_skipped_lines: 4
  include_tools: ["brave_web_search"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	s := cfg.Server
	if s.Name != "brave" || s.Transport != "stdio" || s.Command != "npx" {
		t.Errorf("server = %+v", s)
	}
	if want := []string{"-y", "@modelcontextprotocol/server-brave-search"}; !reflect.DeepEqual(s.Args, want) {
		t.Errorf("Args = %v, want %v", s.Args, want)
	}
	if s.MaxSkippedLines != 4 {
		t.Errorf("MaxSkippedLines = %d", s.MaxSkippedLines)
	}
	if got := s.CallTimeout(); got != 60*time.Second {
		t.Errorf("CallTimeout() = %v", got)
	}
	if want := []string{"brave_web_search"}; !reflect.DeepEqual(s.IncludeTools, want) {
		t.Errorf("IncludeTools = %v", s.IncludeTools)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  command: my-server
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("Transport default = %q, want stdio", cfg.Server.Transport)
	}
	if cfg.Server.Name != "default" {
		t.Errorf("Name default = %q, want default", cfg.Server.Name)
	}
	if got := cfg.Server.CallTimeout(); got != 30*time.Second {
		t.Errorf("CallTimeout default = %v, want 30s", got)
	}
}

func TestLoadHTTPServer(t *testing.T) {
	path := writeConfig(t, `
server:
  name: remote
  transport: http
  url: https://mcp.example.com/rpc
  headers:
    Authorization: Bearer tok
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "https://mcp.example.com/rpc" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Headers["Authorization"] != "Bearer tok" {
		t.Errorf("Headers = %v", cfg.Server.Headers)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}

	path := writeConfig(t, "server: [not, a, mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed yaml succeeded")
	}
}

func TestCallTimeoutDisabled(t *testing.T) {
	s := ServerConfig{CallTimeoutSec: -1}
	if got := s.CallTimeout(); got != 0 {
		t.Errorf("CallTimeout() = %v, want 0 (disabled)", got)
	}
}

func TestFindConfigExplicit(t *testing.T) {
	path := writeConfig(t, "server: {}")

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if got != path {
		t.Errorf("FindConfig = %q, want %q", got, path)
	}

	if _, err := FindConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("FindConfig with absent explicit path succeeded")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"TRACE", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"  warn  ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, a)
	if got.Value.String() != "TRACE" {
		t.Errorf("trace attr = %q, want TRACE", got.Value.String())
	}

	a = slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(slog.LevelInfo)}
	got = ReplaceLogLevelNames(nil, a)
	if got.Value.Any() != slog.LevelInfo {
		t.Errorf("info attr changed: %v", got.Value)
	}
}
