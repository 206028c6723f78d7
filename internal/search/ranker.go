package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mwhitfield/sdkdocs-mcp/internal/lexical"
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

const (
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit = 10
	// MaxLimit caps the result count regardless of what the caller asks for.
	MaxLimit = 100
	// candidateFactor oversamples each retrieval path so the blend has room
	// to re-rank before truncating to the requested limit.
	candidateFactor = 2

	// DefaultCacheSize bounds the query cache entry count.
	DefaultCacheSize = 1000
	// DefaultCacheTTL is how long a cached query result stays valid.
	DefaultCacheTTL = time.Hour
)

// ErrEmptyQuery is returned for blank queries. Everything else a caller can
// pass yields a ranked (possibly empty) list rather than an error.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// Weights control the lexical/semantic blend. Values are clamped to [0,1]
// and renormalized to sum to 1; a zero pair falls back to an equal blend.
type Weights struct {
	Lexical  float64
	Semantic float64
}

func (w Weights) normalized() (lexW, semW float64) {
	l := clamp01(w.Lexical)
	s := clamp01(w.Semantic)
	if l+s == 0 {
		return 0.5, 0.5
	}
	return l / (l + s), s / (l + s)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Options tune a single search call. The zero value asks for the default
// limit, no filters, an equal weight blend, and no caching.
type Options struct {
	Limit    int
	Filters  lexical.Filters
	Weights  Weights
	UseCache bool
	CacheTTL time.Duration
}

func (o *Options) setDefaults() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
}

// SemanticSearcher is the vector-path surface the ranker consumes. A nil
// searcher or any returned error means the vector path is unavailable for
// that query; the blend degrades to lexical-only.
type SemanticSearcher interface {
	Available() bool
	SemanticSearch(ctx context.Context, corpusID int64, query string, limit int) ([]types.VectorResult, error)
}

// Enricher is the relationship-graph surface consulted by SearchWithContext.
type Enricher interface {
	GetRelated(methodKey string) []string
	GetPrerequisites(methodKey string) []string
	GetErrorPatterns(methodKey string) []types.ErrorPattern
}

// Ranker blends lexical and semantic retrieval into one ranked list.
// It is read-only over its indexes and safe for concurrent queries.
type Ranker struct {
	index    *lexical.Index
	semantic SemanticSearcher
	enricher Enricher
	corpusID int64
	cache    *queryCache
}

// NewRanker wires a ranker over the given indexes. semantic and enricher may
// be nil; the corresponding feature degrades rather than erroring.
func NewRanker(index *lexical.Index, semantic SemanticSearcher, enricher Enricher, corpusID int64) *Ranker {
	return &Ranker{
		index:    index,
		semantic: semantic,
		enricher: enricher,
		corpusID: corpusID,
		cache:    newQueryCache(DefaultCacheSize),
	}
}

// pathResult carries one retrieval path's outcome across the collection
// channel.
type pathResult struct {
	lexical  []types.LexicalResult
	semantic []types.VectorResult
	err      error
}

// Search runs both retrieval paths concurrently, blends their normalized
// scores, and returns the top results. A failing or absent vector path
// degrades to lexical-only ranking; an empty union falls back to a raw
// substring scan so a matching corpus never yields zero results.
func (r *Ranker) Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	opts.setDefaults()

	key := cacheKey(query, opts)
	if opts.UseCache {
		if hit, ok := r.cache.get(key); ok {
			return hit, nil
		}
	}

	want := opts.Limit * candidateFactor
	lexCh := make(chan pathResult, 1)
	semCh := make(chan pathResult, 1)

	go func() {
		lexCh <- pathResult{lexical: r.index.Search(query, opts.Filters, want)}
	}()
	go func() {
		var res pathResult
		if r.semantic == nil || !r.semantic.Available() {
			semCh <- res
			return
		}
		res.semantic, res.err = r.semantic.SemanticSearch(ctx, r.corpusID, query, want)
		semCh <- res
	}()

	var lexRes, semRes pathResult
	for done := 0; done < 2; {
		select {
		case lexRes = <-lexCh:
			done++
		case semRes = <-semCh:
			done++
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	// A failed vector path is a per-query degradation, not an error.
	if semRes.err != nil {
		semRes.semantic = nil
	}

	lexW, semW := opts.Weights.normalized()
	combined := blend(lexRes.lexical, semRes.semantic, lexW, semW)

	// Retrieval floor: both paths empty, fall back to matching the whole
	// query as a substring so any literal occurrence still surfaces.
	if len(combined) == 0 {
		combined = maxNormalize(r.index.SubstringScan(query, opts.Filters, want))
	}

	results := r.materialize(combined, opts.Limit)
	if opts.UseCache && len(results) > 0 {
		r.cache.put(key, results, opts.CacheTTL)
	}
	return results, nil
}

// blend max-normalizes lexical scores into [0,1] and combines both paths by
// chunk ID. Semantic scores arrive already normalized. A chunk present in
// only one path keeps its single weighted score.
func blend(lex []types.LexicalResult, sem []types.VectorResult, lexW, semW float64) map[string]float64 {
	combined := make(map[string]float64, len(lex)+len(sem))

	var maxLex float64
	for _, lr := range lex {
		if lr.Score > maxLex {
			maxLex = lr.Score
		}
	}
	if maxLex > 0 {
		for _, lr := range lex {
			combined[lr.ChunkID] += (lr.Score / maxLex) * lexW
		}
	}
	for _, vr := range sem {
		combined[vr.ChunkID] += clamp01(vr.Score) * semW
	}
	return combined
}

// maxNormalize converts raw substring-floor scores into [0,1].
func maxNormalize(results []types.LexicalResult) map[string]float64 {
	var max float64
	for _, lr := range results {
		if lr.Score > max {
			max = lr.Score
		}
	}
	if max == 0 {
		return nil
	}
	out := make(map[string]float64, len(results))
	for _, lr := range results {
		out[lr.ChunkID] = lr.Score / max
	}
	return out
}

// materialize resolves blended scores against the lexical index, sorts, and
// truncates. Chunks no longer present in the index (stale vector records
// from a prior run) are dropped.
func (r *Ranker) materialize(combined map[string]float64, limit int) []types.SearchResult {
	type scored struct {
		id    string
		score float64
	}
	order := make([]scored, 0, len(combined))
	for id, s := range combined {
		order = append(order, scored{id: id, score: s})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].id < order[j].id
	})

	results := make([]types.SearchResult, 0, limit)
	for _, s := range order {
		if len(results) == limit {
			break
		}
		chunk, ok := r.index.Get(s.id)
		if !ok {
			continue
		}
		results = append(results, types.SearchResult{
			ID:       chunk.ID,
			Title:    chunk.Title,
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			Score:    s.score,
			Rank:     len(results) + 1,
		})
	}
	return results
}

// InvalidateCache drops all cached query results. Called after re-indexing.
func (r *Ranker) InvalidateCache() {
	r.cache.purge()
}
