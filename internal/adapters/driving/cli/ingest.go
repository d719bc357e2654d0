package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/normalisers"
)

var (
	ingestOwner  string
	ingestTitle  string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest content into the knowledge store",
	Long: `Chunks, embeds, classifies and stores content under an owner partition.
Reads from the given file, or from stdin when no file is provided.
Markdown and HTML files are normalised to plain text before ingestion.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOwner, "owner", "o", "", "owner partition (empty = guest)")
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source type: upload, conversation, web or note")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	content, title, err := readIngestContent(cmd, args)
	if err != nil {
		return err
	}
	if ingestTitle != "" {
		title = ingestTitle
	}

	owner := domain.NormalizeIdentity(ingestOwner)
	meta := domain.SourceMetadata{
		Source: domain.SourceType(ingestSource),
		Title:  title,
	}

	receipt, err := ingestService.Ingest(cmd.Context(), content, meta, owner)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Ingested document %s (%d chunks, bucket %s)\n",
		receipt.DocumentID, receipt.ChunkCount, receipt.Bucket)
	for _, w := range receipt.Warnings {
		cmd.Printf("warning: %s\n", w)
	}

	return nil
}

// readIngestContent reads from the file argument, falling back to stdin.
// File content is normalised by extension; the second return value is
// the default title.
func readIngestContent(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("reading file: %w", err)
		}
		content, title := normalisers.Normalise(args[0], data)
		return content, title, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), "", nil
}
