// Package mcp implements an MCP (Model Context Protocol) client: the
// JSON-RPC 2.0 envelopes, the transports that carry them (a stdio
// subprocess transport, plus HTTP and WebSocket variants), and a
// protocol client that drives the initialize handshake and the
// tools/list and tools/call operations.
//
// The client is strictly request/response: one call is in flight at a
// time, and the transports serialize access internally. Discovered
// tools are handed to the tools package, which bridges them into a
// registry so the invocation layer can execute them by name.
package mcp
