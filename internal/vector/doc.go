// Package vector adapts the embedding provider and the persisted vector
// records into the semantic half of hybrid retrieval.
//
// The adapter is deliberately failure-tolerant: initialization probes the
// provider and reports availability instead of erroring, and any embed
// failure at query time surfaces as ErrUnavailable. Retrieval quality
// degrades to lexical-only; requests never fail because an embedding API
// is down.
//
// Indexing is incremental. Each stored record carries the chunk's content
// hash, and unchanged chunks are skipped on re-index unless forced.
package vector
