package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

var (
	queryOwner     string
	queryBucket    string
	queryLimit     int
	queryMaxTokens int
	queryJSON      bool
	queryNoHybrid  bool
	queryNoRerank  bool
	queryAugment   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve ranked context for a query",
	Long: `Performs hybrid retrieval over the owner's knowledge partition.
Combines keyword (BM25) and semantic (vector) rankings through
reciprocal rank fusion and fits the results into a token budget.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryOwner, "owner", "o", "", "owner partition (empty = guest)")
	queryCmd.Flags().StringVarP(&queryBucket, "bucket", "b", "", "filter by bucket (PERSONAL, CREATIVE, PROJECT, UNSPECIFIED)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	queryCmd.Flags().IntVar(&queryMaxTokens, "max-tokens", domain.DefaultMaxTokens, "token budget for the assembled context")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().BoolVar(&queryNoHybrid, "no-hybrid", false, "disable hybrid fusion, use a single ranking source")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "disable diversity reranking")
	queryCmd.Flags().BoolVar(&queryAugment, "augment", false, "attach sibling chunks when budget remains")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrieveService == nil {
		return errors.New("retrieve service not configured")
	}

	owner := domain.NormalizeIdentity(queryOwner)
	opts := domain.DefaultRetrieveOptions(owner)
	opts.TopK = queryLimit
	opts.MaxTokens = queryMaxTokens
	opts.HybridSearch = !queryNoHybrid
	opts.Rerank = !queryNoRerank
	opts.Augment = queryAugment
	if queryBucket != "" {
		bucket := domain.ParseBucket(queryBucket)
		opts.Bucket = &bucket
	}

	result, err := retrieveService.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}

	return outputQueryTable(cmd, result)
}

func outputQueryJSON(cmd *cobra.Command, result *domain.RetrieveResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, result *domain.RetrieveResult) error {
	for _, d := range result.Degradations {
		cmd.Printf("warning: %s\n", d)
	}

	if len(result.Items) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range result.Items {
		item := &result.Items[i]

		title := item.Provenance.Title
		if title == "" {
			title = item.Provenance.DocumentID
		}

		cmd.Printf("  [%d] %s (%.4f)\n", i+1, title, item.Score)
		cmd.Printf("      Source: %s, chunk %d, bucket %s, ~%d tokens\n",
			item.Provenance.Source, item.Provenance.Position, item.Bucket, item.Tokens)
		cmd.Printf("      %s\n", item.Content)
		cmd.Println()
	}

	cmd.Printf("Used %d tokens in %s.\n", result.TokensUsed, result.SearchTime.Round(time.Millisecond))
	return nil
}
