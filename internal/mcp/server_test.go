package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/internal/embedder"
)

const testManifest = `{
  "language": "cpp",
  "namespaces": [
    {
      "name": "Core",
      "description": "Core runtime.",
      "classes": [
        {
          "name": "Client",
          "description": "SDK entry point.",
          "methods": [
            {"name": "setup", "description": "Initializes the library.", "signature": "void setup()"},
            {"name": "connect", "description": "Opens a session with the server.", "signature": "Session connect()"},
            {
              "name": "createThread",
              "description": "Creates a worker thread.",
              "signature": "Thread createThread(Session session)",
              "parameters": [{"name": "session", "type": "Session", "description": "Active session."}]
            }
          ]
        }
      ]
    }
  ]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv(embedder.EnvProvider, embedder.ProviderLocal)

	s, err := NewServer(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.store.Close() })
	return s
}

func writeTestCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdk-spec.json"), []byte(testManifest), 0o644))
	return dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestServerInitialization(t *testing.T) {
	s := newTestServer(t)

	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.pipeline)
	assert.NotNil(t, s.adapter)
}

func TestIndexThenSearchTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	dir := writeTestCorpus(t)

	res, err := s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	indexed := resultJSON(t, res)
	assert.Equal(t, true, indexed["indexed"])
	assert.Greater(t, indexed["chunks_created"], float64(0))

	res, err = s.handleSearchDocs(ctx, callRequest(map[string]interface{}{"query": "thread"}))
	require.NoError(t, err)
	found := resultJSON(t, res)
	assert.Greater(t, found["total_results"], float64(0))

	res, err = s.handleSearchWithContext(ctx, callRequest(map[string]interface{}{"query": "thread"}))
	require.NoError(t, err)
	enriched := resultJSON(t, res)
	assert.Greater(t, enriched["total_results"], float64(0))
}

func TestIndexCorpusParamValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidParams, err.(*MCPError).Code)

	_, err = s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{"path": "relative/path"}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidParams, err.(*MCPError).Code)

	empty := t.TempDir()
	_, err = s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{"path": empty}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeCorpusNotFound, err.(*MCPError).Code)
}

func TestSearchParamValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleSearchDocs(ctx, callRequest(map[string]interface{}{}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeEmptyQuery, err.(*MCPError).Code)

	_, err = s.handleSearchDocs(ctx, callRequest(map[string]interface{}{
		"query": "thread",
		"limit": float64(500),
	}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidParams, err.(*MCPError).Code)
}

func TestGetStatisticsTool(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleGetStatistics(ctx, callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	stats := resultJSON(t, res)
	assert.Equal(t, false, stats["indexed"])

	dir := writeTestCorpus(t)
	_, err = s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{"path": dir}))
	require.NoError(t, err)

	res, err = s.handleGetStatistics(ctx, callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	stats = resultJSON(t, res)
	assert.Equal(t, true, stats["indexed"])
	assert.Equal(t, true, stats["vector_available"])
}

func TestSuggestWorkflowTool(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleSuggestWorkflow(ctx, callRequest(map[string]interface{}{}))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidParams, err.(*MCPError).Code)

	dir := writeTestCorpus(t)
	_, err = s.handleIndexCorpus(ctx, callRequest(map[string]interface{}{"path": dir}))
	require.NoError(t, err)

	res, err := s.handleSuggestWorkflow(ctx, callRequest(map[string]interface{}{"goal": "create a worker thread"}))
	require.NoError(t, err)
	payload := resultJSON(t, res)
	steps, ok := payload["steps"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, steps)
}

func TestValidateCorpusPath(t *testing.T) {
	assert.ErrorIs(t, validateCorpusPath("relative"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validateCorpusPath("/does/not/exist"), ErrPathNotFound)

	file := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	assert.ErrorIs(t, validateCorpusPath(file), ErrNotDirectory)

	assert.ErrorIs(t, validateCorpusPath(t.TempDir()), ErrNoCorpusFiles)
}
