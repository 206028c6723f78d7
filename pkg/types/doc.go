// Package types defines the shared data model for the documentation
// intelligence pipeline: normalized source items (ParsedContent), retrieval
// units (DocumentChunk), and the tagged result shapes flowing between the
// lexical index, the vector adapter, and the hybrid ranker.
//
// Lifecycle rules:
//
//   - ParsedContent is created once per source item during ingestion and is
//     immutable afterwards.
//   - DocumentChunk IDs are deterministic functions of source identity and
//     position, so re-running indexing over unchanged input yields the same
//     ID set. Chunks are replaced wholesale on re-index, never mutated.
//   - SearchResult and EnhancedSearchResult are transient query outputs.
//
// The result shapes (LexicalResult, VectorResult, SearchResult) are defined
// once here and used everywhere so the hybrid merge works with checked
// types instead of ad hoc maps.
package types
