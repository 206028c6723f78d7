package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/internal/lexical"
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

type stubSemantic struct {
	available bool
	results   []types.VectorResult
	err       error
	calls     int
}

func (s *stubSemantic) Available() bool { return s.available }

func (s *stubSemantic) SemanticSearch(ctx context.Context, corpusID int64, query string, limit int) ([]types.VectorResult, error) {
	s.calls++
	return s.results, s.err
}

func chunk(id, title, content, namespace string) types.DocumentChunk {
	return types.DocumentChunk{
		ID:      id,
		Title:   title,
		Content: content,
		Metadata: types.ChunkMetadata{
			Type:       types.ContentMethod,
			Namespace:  namespace,
			MethodName: title,
			Importance: types.ImportanceMedium,
			SourceFile: "sdk-spec.json",
			ParentID:   namespace + "." + title,
			Position:   0,
		},
	}
}

func fixtureIndex() *lexical.Index {
	idx := lexical.NewIndex()
	idx.Build([]types.DocumentChunk{
		chunk("chunk-setup", "setup", "Initializes the library. Call before any other operation.", "Core"),
		chunk("chunk-thread", "createThread", "Creates a secure thread. Requires an active connection.", "Threads"),
		chunk("chunk-cpp", "operatorOverload", "Operator overloading is supported in C++ only.", "Lang"),
		chunk("chunk-spawn", "spawnTasks", "Use the worker pool to spawn background tasks.", "Workers"),
	})
	return idx
}

func TestLexicalOnlySearch(t *testing.T) {
	r := NewRanker(fixtureIndex(), nil, nil, 1)

	results, err := r.Search(context.Background(), "thread", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "chunk-thread", results[0].ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Greater(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestBlendCombinesBothPaths(t *testing.T) {
	sem := &stubSemantic{
		available: true,
		results:   []types.VectorResult{{ChunkID: "chunk-setup", Score: 0.9}},
	}
	r := NewRanker(fixtureIndex(), sem, nil, 1)

	results, err := r.Search(context.Background(), "thread", Options{
		Weights: Weights{Lexical: 0.5, Semantic: 0.5},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Top lexical hit normalizes to 1.0 and beats the 0.9 semantic score
	// under an equal blend.
	assert.Equal(t, "chunk-thread", results[0].ID)
	assert.Equal(t, "chunk-setup", results[1].ID)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	assert.InDelta(t, 0.45, results[1].Score, 1e-9)
	assert.Equal(t, []int{1, 2}, []int{results[0].Rank, results[1].Rank})
}

func TestGracefulDegradationOnVectorFailure(t *testing.T) {
	sem := &stubSemantic{available: true, err: errors.New("embedding provider down")}
	r := NewRanker(fixtureIndex(), sem, nil, 1)

	results, err := r.Search(context.Background(), "thread", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "chunk-thread", results[0].ID)
}

func TestZeroWeightsFallBackToEqualBlend(t *testing.T) {
	sem := &stubSemantic{
		available: true,
		results:   []types.VectorResult{{ChunkID: "chunk-setup", Score: 0.9}},
	}
	r := NewRanker(fixtureIndex(), sem, nil, 1)

	results, err := r.Search(context.Background(), "thread", Options{
		Weights: Weights{Lexical: 0, Semantic: 0},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	assert.InDelta(t, 0.45, results[1].Score, 1e-9)
}

func TestWeightsClampedAndRenormalized(t *testing.T) {
	sem := &stubSemantic{
		available: true,
		results:   []types.VectorResult{{ChunkID: "chunk-setup", Score: 0.99}},
	}
	r := NewRanker(fixtureIndex(), sem, nil, 1)

	// 5 and -1 clamp to 1 and 0: pure lexical ranking.
	results, err := r.Search(context.Background(), "thread", Options{
		Weights: Weights{Lexical: 5, Semantic: -1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "chunk-thread", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSubstringFloorWhenBothPathsEmpty(t *testing.T) {
	r := NewRanker(fixtureIndex(), nil, nil, 1)

	// "spa" matches no whole word, so term scoring returns nothing; the
	// floor matches the raw phrase inside "to spawn".
	results, err := r.Search(context.Background(), "to spa", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-spawn", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestLiteralPhraseAlwaysSurfaces(t *testing.T) {
	idx := lexical.NewIndex()
	idx.Build([]types.DocumentChunk{
		chunk("chunk-lit", "gatedFeature", `The "create thread" capability is gated.`, "Core"),
	})
	r := NewRanker(idx, nil, nil, 1)

	results, err := r.Search(context.Background(), "create thread", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSpecialCharacterQuery(t *testing.T) {
	r := NewRanker(fixtureIndex(), nil, nil, 1)

	results, err := r.Search(context.Background(), "C++", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "chunk-cpp", results[0].ID)
}

func TestEmptyQueryRejected(t *testing.T) {
	r := NewRanker(fixtureIndex(), nil, nil, 1)

	_, err := r.Search(context.Background(), "   ", Options{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFiltersRestrictResults(t *testing.T) {
	r := NewRanker(fixtureIndex(), nil, nil, 1)

	results, err := r.Search(context.Background(), "library thread", Options{
		Filters: lexical.Filters{Namespace: "Threads"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-thread", results[0].ID)
}

func TestLimitAndRankSequence(t *testing.T) {
	idx := lexical.NewIndex()
	chunks := make([]types.DocumentChunk, 5)
	for i := range chunks {
		content := "alpha reference section."
		for j := 0; j <= i; j++ {
			content += " alpha"
		}
		chunks[i] = chunk(fmt.Sprintf("chunk-%d", i), fmt.Sprintf("entry%d", i), content, "Core")
	}
	idx.Build(chunks)
	r := NewRanker(idx, nil, nil, 1)

	results, err := r.Search(context.Background(), "alpha", Options{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestQueryCacheHitAndInvalidation(t *testing.T) {
	sem := &stubSemantic{
		available: true,
		results:   []types.VectorResult{{ChunkID: "chunk-setup", Score: 0.8}},
	}
	r := NewRanker(fixtureIndex(), sem, nil, 1)
	opts := Options{UseCache: true}

	first, err := r.Search(context.Background(), "thread", opts)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, sem.calls)

	second, err := r.Search(context.Background(), "thread", opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sem.calls, "second identical query served from cache")
	assert.Equal(t, first, second)

	// Cached entries are isolated from caller mutation.
	second[0].Title = "mutated"
	third, err := r.Search(context.Background(), "thread", opts)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", third[0].Title)

	r.InvalidateCache()
	_, err = r.Search(context.Background(), "thread", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, sem.calls, "invalidation forces a fresh retrieval")
}

func TestCacheKeyVariesWithOptions(t *testing.T) {
	a := cacheKey("thread", Options{Limit: 10})
	b := cacheKey("thread", Options{Limit: 20})
	c := cacheKey("thread", Options{Limit: 10, Weights: Weights{Lexical: 0.7, Semantic: 0.3}})
	d := cacheKey("thread", Options{Limit: 10, Filters: lexical.Filters{Namespace: "Core"}})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestWeightsNormalized(t *testing.T) {
	cases := []struct {
		in           Weights
		wantL, wantS float64
	}{
		{Weights{0.5, 0.5}, 0.5, 0.5},
		{Weights{0, 0}, 0.5, 0.5},
		{Weights{1, 0}, 1, 0},
		{Weights{0.2, 0.6}, 0.25, 0.75},
		{Weights{5, -1}, 1, 0},
	}
	for _, tc := range cases {
		l, s := tc.in.normalized()
		assert.InDelta(t, tc.wantL, l, 1e-9)
		assert.InDelta(t, tc.wantS, s, 1e-9)
	}
}
