// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Mnemo. It lets AI assistants retrieve and ingest knowledge through
// the engine's driving ports.
package mcp

import "errors"

// ErrMissingRetrieveService is returned when the retrieve service is not provided.
var ErrMissingRetrieveService = errors.New("mcp: retrieve service is required")
