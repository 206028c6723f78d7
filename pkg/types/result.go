package types

// LexicalResult is a raw term-frequency match from the lexical index.
// Scores are unnormalized match weights; the hybrid ranker normalizes them.
type LexicalResult struct {
	ChunkID string
	Score   float64
}

// VectorResult is a similarity match from the vector index adapter.
// Score is cosine similarity mapped into [0,1].
type VectorResult struct {
	ChunkID string
	Score   float64
}

// SearchResult is the blended, ranked output record returned to callers.
type SearchResult struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
	Rank     int           `json:"rank"` // 1-based position in the result set
}

// ErrorPattern is a documented failure mode for an API method.
type ErrorPattern struct {
	ErrorType string `json:"error_type"`
	Handler   string `json:"handler"`
}

// EnhancedSearchResult augments a SearchResult with relationship-graph
// context. Constructed per query, never persisted.
type EnhancedSearchResult struct {
	SearchResult

	RelatedAPIs     []string       `json:"related_apis,omitempty"`
	Prerequisites   []string       `json:"prerequisites,omitempty"`
	ErrorPatterns   []ErrorPattern `json:"error_patterns,omitempty"`
	ComplexityScore float64        `json:"complexity_score"`
	ContextScore    float64        `json:"context_score"`
	Completeness    float64        `json:"completeness"`
}

// Validate checks that a result is well formed before it leaves the ranker.
func (sr *SearchResult) Validate() error {
	if sr.ID == "" {
		return ErrInvalidChunkID
	}
	if sr.Rank < 1 {
		return ErrInvalidRank
	}
	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidScore
	}
	if sr.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
