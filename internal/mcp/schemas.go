package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCorpusTool returns the tool definition for index_corpus.
func indexCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_corpus",
		Description: "Index an SDK documentation corpus (JSON API manifests plus markdown guides) to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the documentation corpus root",
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Chunking strategy",
					"enum":        []string{"method-level", "context-aware", "hierarchical", "hybrid"},
					"default":     "hybrid",
				},
				"max_chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum chunk size in characters",
					"default":     1500,
				},
				"overlap_size": map[string]interface{}{
					"type":        "integer",
					"description": "Trailing context carried into the next chunk, in characters",
					"default":     200,
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk and re-embed everything, ignoring content hashes",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchDocsTool returns the tool definition for search_docs.
func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docs",
		Description: "Search indexed SDK documentation with hybrid lexical + semantic ranking",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

// searchWithContextTool returns the tool definition for search_with_context.
func searchWithContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_with_context",
		Description: "Search indexed SDK documentation and enrich each result with related APIs, prerequisites and documented error patterns",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

// searchProperties is the parameter schema shared by both search tools.
func searchProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Search query (natural language, identifiers, or literal phrases)",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of results to return (1-100)",
			"default":     10,
			"minimum":     1,
			"maximum":     100,
		},
		"namespace": map[string]interface{}{
			"type":        "string",
			"description": "Restrict results to one API namespace",
		},
		"type": map[string]interface{}{
			"type":        "string",
			"description": "Restrict results to one content type",
			"enum":        []string{"class", "method", "function", "guide", "tutorial"},
		},
		"language": map[string]interface{}{
			"type":        "string",
			"description": "Restrict results to one SDK language",
		},
		"lexical_weight": map[string]interface{}{
			"type":        "number",
			"description": "Weight of the term-frequency score in the blend (0.0-1.0)",
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"semantic_weight": map[string]interface{}{
			"type":        "number",
			"description": "Weight of the vector-similarity score in the blend (0.0-1.0)",
			"minimum":     0.0,
			"maximum":     1.0,
		},
	}
}

// getStatisticsTool returns the tool definition for get_statistics.
func getStatisticsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_statistics",
		Description: "Report chunk counts, namespace/type distribution and vector-path availability for the indexed corpus",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// suggestWorkflowTool returns the tool definition for suggest_workflow.
func suggestWorkflowTool() mcp.Tool {
	return mcp.Tool{
		Name:        "suggest_workflow",
		Description: "Suggest an ordered API call sequence for a goal, derived from documented prerequisites and example co-occurrence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"goal": map[string]interface{}{
					"type":        "string",
					"description": "What the caller wants to accomplish, e.g. \"create a worker thread\"",
				},
			},
			Required: []string{"goal"},
		},
	}
}
