package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Mnemo resources.
	uriScheme = "mnemo://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for an owner partition's documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "owners/{owner}/documents",
		Name:        "owner-documents",
		Description: "Documents stored in an owner partition",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "owners/{owner}/documents/{documentId}",
		Name:        "document-content",
		Description: "Full text of a stored document, reassembled from its chunks",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleDocumentsResource returns the documents of one owner partition.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Evidence == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract owner from URI: mnemo://owners/{owner}/documents
	rawOwner, ok := extractOwner(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	owner := domain.NormalizeIdentity(rawOwner)
	docs, err := s.ports.Evidence.ListDocuments(ctx, owner.Filter())
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Build simplified document list.
	type docInfo struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Source  string `json:"source"`
		Bucket  string `json:"bucket"`
		Version int    `json:"version"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:      docs[i].ID,
			Title:   docs[i].Title,
			Source:  string(docs[i].Source),
			Bucket:  docs[i].Bucket.String(),
			Version: docs[i].Version,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Evidence == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract owner and documentId from URI:
	// mnemo://owners/{owner}/documents/{documentId}
	rawOwner, docID, ok := extractOwnerDocument(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	owner := domain.NormalizeIdentity(rawOwner)
	if _, err := s.ports.Evidence.GetDocument(ctx, docID, owner.Filter()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	chunks, err := s.ports.Evidence.GetChunks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document chunks: %w", err)
	}

	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Content
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(parts, "\n"),
		}},
	}, nil
}

// extractOwner extracts the owner from a URI like mnemo://owners/{owner}/documents.
func extractOwner(uri string) (string, bool) {
	const prefix = uriScheme + "owners/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return "", false
	}

	owner := strings.TrimSuffix(uri, suffix)
	if strings.Contains(owner, "/") {
		return "", false
	}
	return owner, true
}

// extractOwnerDocument extracts owner and document ID from a URI like
// mnemo://owners/{owner}/documents/{documentId}.
func extractOwnerDocument(uri string) (owner, docID string, ok bool) {
	const prefix = uriScheme + "owners/"

	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}

	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 || parts[1] != "documents" || parts[0] == "" || parts[2] == "" {
		return "", "", false
	}

	return parts[0], parts[2], true
}
