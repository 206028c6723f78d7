// Package embedder generates vector embeddings for documentation chunks.
//
// Three providers are supported: Jina AI and OpenAI over their
// OpenAI-compatible HTTP APIs, and an offline local provider that hashes
// tokens into a bag-of-words vector. Provider selection happens at startup
// via SDKDOCS_EMBEDDING_PROVIDER, or by probing JINA_API_KEY and
// OPENAI_API_KEY, falling back to local so the server always starts.
//
// Remote calls are batched (up to MaxBatchSize texts per request), retried
// with exponential backoff, and memoized in an LRU cache keyed by content
// hash. Chunk text is stable between re-index runs, so the cache absorbs
// most repeat work.
package embedder
