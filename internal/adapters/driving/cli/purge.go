package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

var purgeOwner string

var purgeCmd = &cobra.Command{
	Use:   "purge [document-id]",
	Short: "Remove a document and its index entries",
	Long: `Removes a document with its chunks, vectors and keyword postings.
Only the owning partition can purge a document.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVarP(&purgeOwner, "owner", "o", "", "owner partition (empty = guest)")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	owner := domain.NormalizeIdentity(purgeOwner)
	if err := ingestService.Purge(cmd.Context(), args[0], owner); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found in partition %s", args[0], owner)
		}
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Purged document %s\n", args[0])
	return nil
}
