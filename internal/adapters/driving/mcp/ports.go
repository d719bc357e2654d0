package mcp

import (
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieve answers queries with ranked context.
	Retrieve driving.RetrieveService

	// Ingest stores new knowledge. Optional: without it the ingest and
	// purge tools are not registered.
	Ingest driving.IngestService

	// Evidence powers the read-only document resources. Optional.
	Evidence driven.EvidenceStore

	// Warnings lists degradations the engine discovered while wiring
	// its adapters (unreachable providers, skipped rehydration). They
	// are logged at construction and published through the status
	// resource.
	Warnings []string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieve == nil {
		return ErrMissingRetrieveService
	}
	// Ingest and Evidence are optional
	return nil
}
