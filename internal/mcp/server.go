package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mwhitfield/sdkdocs-mcp/internal/embedder"
	"github.com/mwhitfield/sdkdocs-mcp/internal/pipeline"
	"github.com/mwhitfield/sdkdocs-mcp/internal/storage"
	"github.com/mwhitfield/sdkdocs-mcp/internal/vector"
)

const (
	// ServerName is the MCP server name.
	ServerName = "sdkdocs-mcp"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the chunk database.
	DefaultDBPath = "~/.sdkdocs/indices"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp      *server.MCPServer
	store    storage.Store
	pipeline *pipeline.Pipeline
	adapter  *vector.Adapter
}

// NewServer wires storage, the embedding provider and the indexing pipeline
// behind an MCP tool surface. A missing or unreachable embedding provider is
// not an error; search degrades to lexical-only.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".sdkdocs", "indices")
	}
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(filepath.Join(dbPath, "sdkdocs.db"))
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	adapter := vector.NewAdapter(store, emb)
	if !adapter.Initialize(context.Background()) {
		log.Printf("vector path unavailable, search will run lexical-only")
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		pipeline: pipeline.New(store, adapter),
		adapter:  adapter,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexCorpusTool(), s.handleIndexCorpus)
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(searchWithContextTool(), s.handleSearchWithContext)
	s.mcp.AddTool(getStatisticsTool(), s.handleGetStatistics)
	s.mcp.AddTool(suggestWorkflowTool(), s.handleSuggestWorkflow)
}
