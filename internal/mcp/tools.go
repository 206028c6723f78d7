package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitfield/sdkdocs-mcp/internal/lexical"
	"github.com/mwhitfield/sdkdocs-mcp/internal/pipeline"
	"github.com/mwhitfield/sdkdocs-mcp/internal/search"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeCorpusNotFound = -32001 // Path does not contain a documentation corpus
	ErrorCodeEmptyQuery     = -32004 // Query parameter is empty
)

// handleIndexCorpus handles the index_corpus tool invocation.
func (s *Server) handleIndexCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, paramError("path", "missing or empty")
	}
	if err := validateCorpusPath(path); err != nil {
		if errors.Is(err, ErrNoCorpusFiles) {
			return nil, newMCPError(ErrorCodeCorpusNotFound, "no documentation files found", map[string]interface{}{
				"param":  "path",
				"reason": err.Error(),
			})
		}
		return nil, paramError("path", err.Error())
	}

	opts := pipeline.Options{
		Strategy:     getStringDefault(args, "strategy", ""),
		MaxChunkSize: getIntDefault(args, "max_chunk_size", 0),
		OverlapSize:  getIntDefault(args, "overlap_size", 0),
		ForceReindex: getBoolDefault(args, "force_reindex", false),
	}

	summary, err := s.pipeline.IndexCorpus(ctx, path, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":            !summary.Skipped,
		"skipped":            summary.Skipped,
		"documents_indexed":  summary.DocumentsIndexed,
		"documents_skipped":  summary.DocumentsSkipped,
		"chunks_created":     summary.ChunksCreated,
		"embeddings_created": summary.EmbeddingsCreated,
		"embeddings_skipped": summary.EmbeddingsSkipped,
		"duration_ms":        summary.Duration.Milliseconds(),
	}
	if len(summary.Errors) > 0 {
		response["errors"] = truncateList(summary.Errors, 5)
		response["error_count"] = len(summary.Errors)
	}
	if len(summary.Warnings) > 0 {
		response["warnings"] = truncateList(summary.Warnings, 5)
		response["warning_count"] = len(summary.Warnings)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocs handles the search_docs tool invocation.
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, opts, err := searchParams(request)
	if err != nil {
		return nil, err
	}

	results, err := s.pipeline.Search(ctx, query, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         query,
		"total_results": len(results),
		"results":       results,
	})), nil
}

// handleSearchWithContext handles the search_with_context tool invocation.
func (s *Server) handleSearchWithContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, opts, err := searchParams(request)
	if err != nil {
		return nil, err
	}

	results, err := s.pipeline.SearchWithContext(ctx, query, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         query,
		"total_results": len(results),
		"results":       results,
	})), nil
}

// handleGetStatistics handles the get_statistics tool invocation.
func (s *Server) handleGetStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.pipeline.Statistics()

	response := map[string]interface{}{
		"indexed":          stats.TotalChunks > 0,
		"total_documents":  stats.TotalDocuments,
		"total_chunks":     stats.TotalChunks,
		"by_namespace":     stats.ByNamespace,
		"by_type":          stats.ByType,
		"vector_available": stats.VectorAvailable,
	}
	if !stats.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = stats.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSuggestWorkflow handles the suggest_workflow tool invocation.
func (s *Server) handleSuggestWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	goal, ok := args["goal"].(string)
	if !ok || goal == "" {
		return nil, paramError("goal", "missing or empty")
	}

	steps := s.pipeline.WorkflowSuggestions(goal)
	response := map[string]interface{}{
		"goal":  goal,
		"steps": steps,
	}
	if len(steps) == 0 {
		response["message"] = "no matching method found for this goal"
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// searchParams extracts and validates the parameters shared by both search
// tools.
func searchParams(request mcp.CallToolRequest) (string, search.Options, error) {
	var opts search.Options

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", opts, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", opts, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return "", opts, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	opts = search.Options{
		Limit: limit,
		Filters: lexical.Filters{
			Namespace: getStringDefault(args, "namespace", ""),
			Type:      getStringDefault(args, "type", ""),
			Language:  getStringDefault(args, "language", ""),
		},
		Weights: search.Weights{
			Lexical:  getFloatDefault(args, "lexical_weight", 0),
			Semantic: getFloatDefault(args, "semantic_weight", 0),
		},
		UseCache: true,
	}
	return query, opts, nil
}

// newMCPError creates a properly formatted MCP error.
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func paramError(param, reason string) error {
	return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s parameter is invalid", param), map[string]interface{}{
		"param":  param,
		"reason": reason,
	})
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateCorpusPath checks that a path is an absolute, readable directory
// containing at least one ingestible documentation file.
func validateCorpusPath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	hasDocs := false
	_ = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".json", ".md", ".markdown":
			hasDocs = true
		}
		return nil
	})
	if !hasDocs {
		return ErrNoCorpusFiles
	}
	return nil
}

// formatJSON formats a response map as indented JSON.
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// truncateList caps the error and warning lists reported to the client;
// the full counts are returned alongside.
func truncateList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation errors
var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoCorpusFiles   = errors.New("directory contains no JSON or markdown documentation files")
)
