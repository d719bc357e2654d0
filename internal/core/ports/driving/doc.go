// Package driving provides interfaces for engine entry points
// (primary/inbound ports) consumed by the CLI, the MCP server, and the
// assistant's chat pipeline.
package driving
