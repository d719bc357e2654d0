package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query     string `json:"query" jsonschema:"the question or topic to retrieve context for"`
	Owner     string `json:"owner,omitempty" jsonschema:"owner partition to search; empty means the guest partition"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	MaxTokens int    `json:"max_tokens,omitempty" jsonschema:"token budget for the assembled context (default 2000)"`
	Bucket    string `json:"bucket,omitempty" jsonschema:"optional bucket filter: PERSONAL, CREATIVE, PROJECT or UNSPECIFIED"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Items        []RetrievedItemOutput `json:"items"`
	Count        int                   `json:"count"`
	TokensUsed   int                   `json:"tokens_used"`
	Degraded     bool                  `json:"degraded,omitempty"`
	Degradations []string              `json:"degradations,omitempty"`
}

// RetrievedItemOutput represents a single retrieved chunk.
type RetrievedItemOutput struct {
	ChunkID    string  `json:"chunk_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Bucket     string  `json:"bucket"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Source     string  `json:"source"`
	Position   int     `json:"position"`
	Tokens     int     `json:"tokens"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Content string `json:"content" jsonschema:"the raw text to ingest"`
	Owner   string `json:"owner,omitempty" jsonschema:"owner partition to store under; empty means the guest partition"`
	Title   string `json:"title,omitempty" jsonschema:"optional human-readable title"`
	Source  string `json:"source,omitempty" jsonschema:"source type: upload, conversation, web or note (default upload)"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string   `json:"document_id"`
	ChunkCount int      `json:"chunk_count"`
	Bucket     string   `json:"bucket"`
	Warnings   []string `json:"warnings,omitempty"`
}

// PurgeInput is the input schema for the purge tool.
type PurgeInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to remove"`
	Owner      string `json:"owner,omitempty" jsonschema:"owner partition the document belongs to; empty means the guest partition"`
}

// PurgeOutput is the output schema for the purge tool.
type PurgeOutput struct {
	DocumentID string `json:"document_id"`
	Purged     bool   `json:"purged"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve ranked, token-budgeted context for a query",
	}, s.handleRetrieve)

	if s.ports.Ingest == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest raw text into the knowledge store",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "purge",
		Description: "Remove a document with its chunks and index entries",
	}, s.handlePurge)
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	owner := domain.NormalizeIdentity(input.Owner)
	opts := domain.DefaultRetrieveOptions(owner)
	opts.Augment = true
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}
	if input.MaxTokens > 0 {
		opts.MaxTokens = input.MaxTokens
	}
	if input.Bucket != "" {
		bucket := domain.ParseBucket(input.Bucket)
		opts.Bucket = &bucket
	}

	result, err := s.ports.Retrieve.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Items:        make([]RetrievedItemOutput, len(result.Items)),
		Count:        len(result.Items),
		TokensUsed:   result.TokensUsed,
		Degraded:     result.Degraded,
		Degradations: result.Degradations,
	}

	for i := range result.Items {
		item := &result.Items[i]
		output.Items[i] = RetrievedItemOutput{
			ChunkID:    item.ChunkID,
			Content:    item.Content,
			Score:      item.Score,
			Bucket:     item.Bucket.String(),
			DocumentID: item.Provenance.DocumentID,
			Title:      item.Provenance.Title,
			Source:     string(item.Provenance.Source),
			Position:   item.Provenance.Position,
			Tokens:     item.Tokens,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	owner := domain.NormalizeIdentity(input.Owner)
	meta := domain.SourceMetadata{
		Source: domain.SourceType(input.Source),
		Title:  input.Title,
	}

	receipt, err := s.ports.Ingest.Ingest(ctx, input.Content, meta, owner)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		DocumentID: receipt.DocumentID,
		ChunkCount: receipt.ChunkCount,
		Bucket:     receipt.Bucket.String(),
		Warnings:   receipt.Warnings,
	}

	return nil, output, nil
}

// handlePurge handles the purge tool invocation.
func (s *Server) handlePurge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PurgeInput,
) (*mcp.CallToolResult, PurgeOutput, error) {
	owner := domain.NormalizeIdentity(input.Owner)

	if err := s.ports.Ingest.Purge(ctx, input.DocumentID, owner); err != nil {
		return nil, PurgeOutput{}, err
	}

	return nil, PurgeOutput{DocumentID: input.DocumentID, Purged: true}, nil
}
