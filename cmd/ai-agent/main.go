// ai-agent connects to an MCP server, discovers the tools it
// advertises, and invokes them on demand.
//
// Usage:
//
//	ai-agent list                    List discovered tools
//	ai-agent describe                Print the full tool catalog description
//	ai-agent call <tool> <input>     Invoke one tool (input: JSON object or free text)
//	ai-agent ping                    Check server liveness
//	ai-agent version                 Print version and build information
//
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]) or given with
// -config. An external reasoning loop drives the same packages
// programmatically; this command is the operational surface.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/abhave1/ai-agent/internal/buildinfo"
	"github.com/abhave1/ai-agent/internal/config"
	"github.com/abhave1/ai-agent/internal/handler"
	"github.com/abhave1/ai-agent/internal/mcp"
	"github.com/abhave1/ai-agent/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run] so the full
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the ai-agent command. Tool results
// and listings go to stdout; structured logs go to stderr. Arguments
// are parsed manually rather than with the flag package to avoid
// global state that interferes with parallel tests.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	configPath := ""
	logLevel := ""

	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config":
			i++
			if i >= len(args) {
				return fmt.Errorf("-config requires a path")
			}
			configPath = args[i]
		case "-log-level", "--log-level":
			i++
			if i >= len(args) {
				return fmt.Errorf("-log-level requires a value")
			}
			logLevel = args[i]
		default:
			rest = append(rest, args[i])
		}
	}

	if len(rest) == 0 {
		return fmt.Errorf("usage: ai-agent [-config path] [-log-level level] list|describe|call|ping|version")
	}
	command := rest[0]

	if command == "version" {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}

	path, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	level, err := config.ParseLogLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)

	client, err := newClient(cfg.Server, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to MCP server: %w", err)
	}

	registry := tools.NewRegistry()
	count, err := tools.Discover(ctx, client, registry, tools.DiscoverOptions{
		Include: cfg.Server.IncludeTools,
		Exclude: cfg.Server.ExcludeTools,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	logger.Info("tools ready", "count", count)

	switch command {
	case "list":
		for _, name := range registry.Names() {
			fmt.Fprintln(stdout, name)
		}
		return nil

	case "describe":
		fmt.Fprintln(stdout, tools.DescribeAll(registry))
		return nil

	case "call":
		if len(rest) < 2 {
			return fmt.Errorf("usage: ai-agent call <tool> [input]")
		}
		input := ""
		if len(rest) > 2 {
			input = rest[2]
		}
		h := handler.New(registry, logger)
		fmt.Fprintln(stdout, h.Invoke(ctx, rest[1], input))
		return nil

	case "ping":
		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Fprintln(stdout, "ok")
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// newClient builds the protocol client over the configured transport.
func newClient(sc config.ServerConfig, logger *slog.Logger) (*mcp.Client, error) {
	var transport mcp.Transport
	switch sc.Transport {
	case "stdio", "":
		if sc.Command == "" {
			return nil, fmt.Errorf("stdio transport requires server.command")
		}
		transport = mcp.NewStdioTransport(mcp.StdioConfig{
			Command:         sc.Command,
			Args:            sc.Args,
			Env:             sc.Env,
			MaxSkippedLines: sc.MaxSkippedLines,
			Logger:          logger,
		})
	case "http":
		if sc.URL == "" {
			return nil, fmt.Errorf("http transport requires server.url")
		}
		transport = mcp.NewHTTPTransport(mcp.HTTPConfig{
			URL:     sc.URL,
			Headers: sc.Headers,
			Logger:  logger,
		})
	case "websocket":
		if sc.URL == "" {
			return nil, fmt.Errorf("websocket transport requires server.url")
		}
		transport = mcp.NewWSTransport(mcp.WSConfig{
			URL:             sc.URL,
			Headers:         sc.Headers,
			MaxSkippedLines: sc.MaxSkippedLines,
			Logger:          logger,
		})
	default:
		return nil, fmt.Errorf("unknown transport %q (valid: stdio, http, websocket)", sc.Transport)
	}

	return mcp.NewClient(mcp.ClientConfig{
		Name:             sc.Name,
		ProtocolVersion:  sc.ProtocolVersion,
		RootsListChanged: sc.RootsListChanged,
		ToolsListChanged: sc.ToolsListChanged,
		CallTimeout:      sc.CallTimeout(),
		Logger:           logger,
	}, transport), nil
}
