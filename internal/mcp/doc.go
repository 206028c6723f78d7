// Package mcp exposes the documentation pipeline as MCP tools over stdio.
//
// Five tools are registered:
//
//   - index_corpus: normalize, chunk, persist and embed a documentation
//     tree (JSON API manifests plus markdown guides)
//   - search_docs: hybrid lexical + semantic search over indexed chunks
//   - search_with_context: search_docs enriched with related APIs,
//     prerequisites and documented error patterns
//   - get_statistics: chunk counts, distribution and vector availability
//   - suggest_workflow: ordered call sequences for a stated goal
//
// Parameter validation happens at the tool boundary with named MCP error
// codes; everything past it returns structured partial results rather than
// failing whole operations.
package mcp
