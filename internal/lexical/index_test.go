package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

func chunk(id, title, content string, md types.ChunkMetadata) types.DocumentChunk {
	md.ParentID = id
	return types.DocumentChunk{ID: id, Title: title, Content: content, Metadata: md}
}

func buildIndex(t *testing.T, chunks ...types.DocumentChunk) *Index {
	t.Helper()
	idx := NewIndex()
	idx.Build(chunks)
	require.Equal(t, len(chunks), idx.Len())
	return idx
}

func TestSearchTitleOutweighsBody(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "createThread", "Spawns a worker.", types.ChunkMetadata{Namespace: "Threads"}),
		chunk("b", "joinAll", "Call createThread first, then createThread again if needed.", types.ChunkMetadata{Namespace: "Threads"}),
	)

	results := idx.Search("createThread", Filters{}, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID, "one title hit beats two body hits")
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchDropsShortTerms(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "setup", "Connect to the server.", types.ChunkMetadata{}),
	)

	assert.Nil(t, idx.Search("a to of", Filters{}, 10))
	assert.Len(t, idx.Search("to connect", Filters{}, 10), 1)
}

func TestSearchWholeWordBoundaries(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "cat", "The cat sat.", types.ChunkMetadata{}),
		chunk("b", "catalog", "The catalog grew. Concatenation happened.", types.ChunkMetadata{}),
	)

	results := idx.Search("cat", Filters{}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestSearchSpecialCharactersDoNotPanic(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "operator++", "Overloads operator++ for iterators in C++ code.", types.ChunkMetadata{Language: "cpp"}),
		chunk("b", "advance", "Moves the iterator forward.", types.ChunkMetadata{Language: "cpp"}),
	)

	results := idx.Search("operator++ (c++)", Filters{}, 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ChunkID)

	// Queries that are pure regex noise still return cleanly.
	assert.NotPanics(t, func() {
		idx.Search(`std::vector<int>::push_back(*[a-`, Filters{}, 10)
	})
}

func TestSearchFiltersAreConjunctive(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "setup", "Initializes the connection.",
			types.ChunkMetadata{Namespace: "Core", Type: types.ContentMethod, Language: "cpp"}),
		chunk("b", "setup guide", "How to run setup end to end.",
			types.ChunkMetadata{Namespace: "docs", Type: types.ContentGuide, Language: "cpp"}),
	)

	results := idx.Search("setup", Filters{Namespace: "Core", Type: "method"}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)

	assert.Empty(t, idx.Search("setup", Filters{Namespace: "Core", Type: "guide"}, 10))
}

func TestSearchTieBreaksOnImportanceThenLength(t *testing.T) {
	idx := buildIndex(t,
		chunk("long-medium", "alpha", "token filler filler filler filler",
			types.ChunkMetadata{Importance: types.ImportanceMedium}),
		chunk("short-medium", "beta", "token filler",
			types.ChunkMetadata{Importance: types.ImportanceMedium}),
		chunk("critical", "gamma", "token filler filler filler filler filler",
			types.ChunkMetadata{Importance: types.ImportanceCritical}),
	)

	results := idx.Search("token", Filters{}, 10)
	require.Len(t, results, 3)
	assert.Equal(t, "critical", results[0].ChunkID)
	assert.Equal(t, "short-medium", results[1].ChunkID)
	assert.Equal(t, "long-medium", results[2].ChunkID)
}

func TestSubstringScanMatchesPhrases(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "createThread", "Use ThreadManager::create thread pools safely.", types.ChunkMetadata{}),
		chunk("b", "joinAll", "Waits for all workers.", types.ChunkMetadata{}),
	)

	results := idx.SubstringScan("create thread", Filters{}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestBuildReplacesWholesale(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "setup", "Initializes the connection.", types.ChunkMetadata{}),
	)

	idx.Build([]types.DocumentChunk{
		chunk("b", "teardown", "Closes the connection.", types.ChunkMetadata{}),
	})

	assert.Empty(t, idx.Search("initializes", Filters{}, 10))
	assert.Len(t, idx.Search("closes", Filters{}, 10), 1)

	_, ok := idx.Get("a")
	assert.False(t, ok)
	got, ok := idx.Get("b")
	require.True(t, ok)
	assert.Equal(t, "teardown", got.Title)
}

func TestSearchLimit(t *testing.T) {
	idx := buildIndex(t,
		chunk("a", "one", "token here", types.ChunkMetadata{}),
		chunk("b", "two", "token here", types.ChunkMetadata{}),
		chunk("c", "three", "token here", types.ChunkMetadata{}),
	)

	assert.Len(t, idx.Search("token", Filters{}, 2), 2)
}
