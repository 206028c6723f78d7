package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testChunk(id, parentID, title, content string) types.DocumentChunk {
	return types.DocumentChunk{
		ID:      id,
		Title:   title,
		Content: content,
		Metadata: types.ChunkMetadata{
			Type:       types.ContentMethod,
			Namespace:  "Core",
			Importance: types.ImportanceMedium,
			SourceFile: "sdk-spec.json",
			ParentID:   parentID,
		},
	}
}

func TestCorpusUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk", Language: "cpp"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))
	require.NotZero(t, corpus.ID)

	got, err := store.GetCorpus(ctx, "/docs/sdk")
	require.NoError(t, err)
	assert.Equal(t, corpus.ID, got.ID)
	assert.Equal(t, "cpp", got.Language)

	// Second upsert updates in place, same ID.
	corpus.TotalChunks = 42
	require.NoError(t, store.UpsertCorpus(ctx, corpus))
	got, err = store.GetCorpus(ctx, "/docs/sdk")
	require.NoError(t, err)
	assert.Equal(t, corpus.ID, got.ID)
	assert.Equal(t, 42, got.TotalChunks)

	_, err = store.GetCorpus(ctx, "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	doc := &Document{
		CorpusID:    corpus.ID,
		Path:        "guides/getting-started.md",
		ContentHash: sha256.Sum256([]byte("v1")),
		SizeBytes:   128,
	}
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err := store.GetDocument(ctx, corpus.ID, "guides/getting-started.md")
	require.NoError(t, err)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.Nil(t, got.NormalizeError)

	// Re-upsert with new hash keeps the row.
	doc.ContentHash = sha256.Sum256([]byte("v2"))
	parseErr := "bad front matter"
	doc.NormalizeError = &parseErr
	require.NoError(t, store.UpsertDocument(ctx, doc))

	docs, err := store.ListDocuments(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, sha256.Sum256([]byte("v2")), docs[0].ContentHash)
	require.NotNil(t, docs[0].NormalizeError)
	assert.Equal(t, "bad front matter", *docs[0].NormalizeError)
}

func TestReplaceChunksIsWholesale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	first := []types.DocumentChunk{
		testChunk("c1", "Core.setup", "setup", "Initializes the connection."),
		testChunk("c2", "Core.teardown", "teardown", "Closes the connection."),
	}
	require.NoError(t, store.ReplaceChunks(ctx, corpus.ID, first))

	count, err := store.CountChunks(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	second := []types.DocumentChunk{
		testChunk("c3", "Core.setup", "setup", "Initializes the connection, revised."),
	}
	require.NoError(t, store.ReplaceChunks(ctx, corpus.ID, second))

	chunks, err := store.ListChunks(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c3", chunks[0].ID)
	assert.Equal(t, "Core.setup", chunks[0].Metadata.ParentID)
	assert.Equal(t, types.ContentMethod, chunks[0].Metadata.Type)
}

func TestReplaceChunksPrunesStaleVectorRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	chunks := []types.DocumentChunk{
		testChunk("c1", "Core.setup", "setup", "Initializes."),
		testChunk("c2", "Core.teardown", "teardown", "Closes."),
	}
	require.NoError(t, store.ReplaceChunks(ctx, corpus.ID, chunks))

	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, store.UpsertVectorRecord(ctx, &VectorRecord{
			ChunkID:     id,
			CorpusID:    corpus.ID,
			ContentHash: []byte{1},
			Vector:      SerializeVector([]float32{1, 0}),
			Dimension:   2,
			Provider:    "local",
			Model:       "hashed-bow",
		}))
	}

	// c2 disappears from the chunk set; its vector record must go too.
	require.NoError(t, store.ReplaceChunks(ctx, corpus.ID, chunks[:1]))

	recs, err := store.ListVectorRecords(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].ChunkID)

	_, err = store.GetVectorRecord(ctx, "c2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchVectorRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	vectors := map[string][]float32{
		"aligned":    {1, 0, 0},
		"diagonal":   {1, 1, 0},
		"orthogonal": {0, 0, 1},
	}
	for id, v := range vectors {
		require.NoError(t, store.UpsertVectorRecord(ctx, &VectorRecord{
			ChunkID:     id,
			CorpusID:    corpus.ID,
			ContentHash: []byte{1},
			Vector:      SerializeVector(v),
			Dimension:   3,
			Provider:    "local",
			Model:       "hashed-bow",
		}))
	}

	results, err := store.SearchVector(ctx, corpus.ID, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "aligned", results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "diagonal", results[1].ChunkID)
}

func TestRunHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	_, err := store.LastRun(ctx, corpus.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	run := &Run{
		ID:                uuid.NewString(),
		CorpusID:          corpus.ID,
		Strategy:          "hybrid",
		DocumentsTotal:    3,
		ChunksCreated:     12,
		EmbeddingsCreated: 12,
		DurationMs:        250,
	}
	require.NoError(t, store.RecordRun(ctx, run))

	got, err := store.LastRun(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "hybrid", got.Strategy)
	assert.Equal(t, 12, got.ChunksCreated)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpus := &Corpus{RootPath: "/docs/sdk"}
	require.NoError(t, store.UpsertCorpus(ctx, corpus))

	require.NoError(t, store.UpsertDocument(ctx, &Document{
		CorpusID: corpus.ID, Path: "spec.json", ContentHash: sha256.Sum256([]byte("x")),
	}))
	require.NoError(t, store.ReplaceChunks(ctx, corpus.ID, []types.DocumentChunk{
		testChunk("c1", "Core.setup", "setup", "Initializes."),
	}))

	stats, err := store.Stats(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 1, stats.ChunkCount)
	assert.Equal(t, 0, stats.VectorCount)
	assert.Nil(t, stats.LastRun)
	require.NotNil(t, stats.Corpus)
	assert.Equal(t, "/docs/sdk", stats.Corpus.RootPath)
}
