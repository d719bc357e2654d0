// Package cli implements the command-line interface for Mnemo.
// Commands receive their services through SetServices so that the
// composition root in cmd/mnemo stays the only place that wires
// adapters together.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/core/ports/driving"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected services. Nil until SetServices is called; commands that
// need a service report a configuration error rather than panicking.
var (
	retrieveService driving.RetrieveService
	ingestService   driving.IngestService
	evidenceStore   driven.EvidenceStore

	// startupWarnings carries degradations discovered while wiring the
	// adapters, for the serve command to republish.
	startupWarnings []string
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "mnemo",
	Short: "Knowledge retrieval and ingestion engine",
	Long: `Mnemo ingests raw text into an owner-partitioned knowledge store and
answers queries with ranked, token-budgeted context. Retrieval fuses
keyword (BM25) and semantic (vector) rankings and degrades gracefully
when either backend is unavailable.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the services the commands operate on.
func SetServices(retrieve driving.RetrieveService, ingest driving.IngestService, evidence driven.EvidenceStore) {
	retrieveService = retrieve
	ingestService = ingest
	evidenceStore = evidence
}

// SetStartupWarnings records degradations discovered at composition
// time so the MCP server can report them.
func SetStartupWarnings(warnings []string) {
	startupWarnings = warnings
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
