// Package config handles ai-agent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/ai-agent/config.yaml,
// /etc/ai-agent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ai-agent", "config.yaml"))
	}

	paths = append(paths, "/etc/ai-agent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all ai-agent configuration.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	LogLevel string       `yaml:"log_level"`
}

// ServerConfig defines how to reach one MCP server.
type ServerConfig struct {
	// Name identifies the server in logs and namespaced tool names.
	Name string `yaml:"name"`

	// Transport selects the wire: "stdio" (default), "http", or
	// "websocket".
	Transport string `yaml:"transport"`

	// Command and Args launch the server subprocess (stdio transport).
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Env are additional environment variables for the subprocess
	// (format: "KEY=VALUE").
	Env []string `yaml:"env"`

	// URL is the server endpoint (http and websocket transports).
	URL string `yaml:"url"`

	// Headers are sent with every request (http and websocket).
	Headers map[string]string `yaml:"headers"`

	// ProtocolVersion overrides the default MCP protocol version.
	ProtocolVersion string `yaml:"protocol_version"`

	// RootsListChanged and ToolsListChanged are the capability flags
	// advertised during the handshake.
	RootsListChanged bool `yaml:"roots_list_changed"`
	ToolsListChanged bool `yaml:"tools_list_changed"`

	// CallTimeoutSec bounds each protocol call in seconds (default 30,
	// 0 uses the default; use -1 to disable).
	CallTimeoutSec int `yaml:"call_timeout_sec"`

	// MaxSkippedLines bounds how many non-protocol lines are skipped
	// while awaiting a reply (default 8).
	MaxSkippedLines int `yaml:"max_skipped_lines"`

	// IncludeTools and ExcludeTools filter which discovered tools are
	// registered. Include wins when both are set.
	IncludeTools []string `yaml:"include_tools"`
	ExcludeTools []string `yaml:"exclude_tools"`
}

// CallTimeout returns the per-call timeout as a duration.
func (s ServerConfig) CallTimeout() time.Duration {
	switch {
	case s.CallTimeoutSec < 0:
		return 0
	case s.CallTimeoutSec == 0:
		return 30 * time.Second
	default:
		return time.Duration(s.CallTimeoutSec) * time.Second
	}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = "default"
	}

	return &cfg, nil
}
