package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

var (
	listOwner string
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in an owner partition",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOwner, "owner", "o", "", "owner partition (empty = guest)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if evidenceStore == nil {
		return errors.New("evidence store not configured")
	}

	owner := domain.NormalizeIdentity(listOwner)
	docs, err := evidenceStore.ListDocuments(cmd.Context(), owner.Filter())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in partition %s.\n", owner)
		return nil
	}

	cmd.Printf("Documents in partition %s:\n\n", owner)
	for i := range docs {
		title := docs[i].Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %s  %s\n", docs[i].ID, title)
		cmd.Printf("      source %s, bucket %s, version %d, %s\n",
			docs[i].Source, docs[i].Bucket, docs[i].Version,
			docs[i].CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
