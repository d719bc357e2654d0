package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meridian-labs/mnemo/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server exposes the retrieval engine over the Model Context Protocol.
// Tools cover querying and ingestion; resources give read access to
// stored documents. Capabilities missing from the injected ports are
// not registered, and every degradation known at startup is published
// through the status resource so a connected assistant can see what it
// is talking to.
type Server struct {
	ports    *Ports
	server   *mcp.Server
	warnings []string
}

// NewServer wires the ports into a ready-to-run MCP server. Startup
// degradations are logged once here and kept for the status resource.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:    ports,
		server:   mcp.NewServer(&mcp.Implementation{Name: "mnemo", Version: Version}, nil),
		warnings: collectWarnings(ports),
	}
	for _, w := range s.warnings {
		logger.Warn("Serving degraded: %s", w)
	}

	s.registerTools()
	s.registerResources()
	s.registerStatus()

	return s, nil
}

// collectWarnings merges the engine's startup degradations with the
// capabilities the port wiring itself leaves out.
func collectWarnings(ports *Ports) []string {
	warnings := append([]string(nil), ports.Warnings...)
	if ports.Ingest == nil {
		warnings = append(warnings, "ingestion disabled, read-only server")
	}
	if ports.Evidence == nil {
		warnings = append(warnings, "evidence store unavailable, document resources disabled")
	}
	return warnings
}

// registerStatus publishes the capability summary at a fixed URI.
func (s *Server) registerStatus() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Server version, enabled capabilities and active degradations",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status := struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		Ingestion    bool     `json:"ingestion"`
		Resources    bool     `json:"resources"`
		Degradations []string `json:"degradations"`
	}{
		Name:         "mnemo",
		Version:      Version,
		Ingestion:    s.ports.Ingest != nil,
		Resources:    s.ports.Evidence != nil,
		Degradations: s.warnings,
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr. On context
// cancellation in-flight requests get five seconds to drain.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
