package vector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/mwhitfield/sdkdocs-mcp/internal/embedder"
	"github.com/mwhitfield/sdkdocs-mcp/internal/storage"
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// ErrUnavailable signals that the semantic path is down. Callers degrade to
// lexical-only retrieval instead of failing the request.
var ErrUnavailable = errors.New("vector index unavailable")

const (
	// probeTimeout bounds the startup embedding probe.
	probeTimeout = 10 * time.Second

	// queryTimeout bounds a single query embedding call.
	queryTimeout = 10 * time.Second

	// batchTimeout bounds one embedding batch during indexing.
	batchTimeout = 60 * time.Second
)

// RecordStore is the slice of the storage layer the adapter needs.
type RecordStore interface {
	GetVectorRecord(ctx context.Context, chunkID string) (*storage.VectorRecord, error)
	UpsertVectorRecord(ctx context.Context, rec *storage.VectorRecord) error
	SearchVector(ctx context.Context, corpusID int64, query []float32, limit int) ([]types.VectorResult, error)
}

// Adapter connects the embedding provider to the persisted vector records.
// It tracks its own availability: a failed probe, a failed query embedding
// or an indexing run where no batch embeds flips it unavailable and search
// turns into ErrUnavailable rather than an error cascade.
type Adapter struct {
	store     RecordStore
	embedder  embedder.Embedder
	available atomic.Bool
}

// NewAdapter creates an adapter. Call Initialize before first use.
func NewAdapter(store RecordStore, emb embedder.Embedder) *Adapter {
	return &Adapter{store: store, embedder: emb}
}

// Initialize probes the embedding provider and reports whether the semantic
// path is usable. It never returns an error: an unreachable provider is an
// expected condition, not a failure.
func (a *Adapter) Initialize(ctx context.Context) bool {
	if a.embedder == nil {
		a.available.Store(false)
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := a.embedder.GenerateEmbedding(probeCtx, embedder.EmbeddingRequest{Text: "probe"})
	if err != nil {
		log.Printf("vector: embedding provider %s unavailable: %v", a.embedder.Provider(), err)
		a.available.Store(false)
		return false
	}

	a.available.Store(true)
	return true
}

// Available reports the current availability state.
func (a *Adapter) Available() bool {
	return a.available.Load()
}

// IndexChunks embeds and stores vectors for the given chunks. Chunks whose
// stored content hash matches the current content are skipped unless force
// is set. A failed batch is recorded per chunk in the returned error list
// and indexing continues with the remaining batches; the adapter only flips
// unavailable when no batch embedded at all.
func (a *Adapter) IndexChunks(ctx context.Context, corpusID int64, chunks []types.DocumentChunk, force bool) (created, skipped int, chunkErrs []string, err error) {
	if !a.available.Load() {
		return 0, 0, nil, ErrUnavailable
	}

	var pending []types.DocumentChunk
	for i := range chunks {
		c := &chunks[i]
		if !force {
			hash := c.ContentHash()
			rec, err := a.store.GetVectorRecord(ctx, c.ID)
			if err == nil && bytes.Equal(rec.ContentHash, hash[:]) {
				skipped++
				continue
			}
		}
		pending = append(pending, *c)
	}

	batches, embedded := 0, 0
	for start := 0; start < len(pending); start += embedder.DefaultBatchSize {
		end := start + embedder.DefaultBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches++

		n, errs, ok := a.embedBatch(ctx, corpusID, pending[start:end])
		created += n
		chunkErrs = append(chunkErrs, errs...)
		if ok {
			embedded++
		}
		if ctx.Err() != nil {
			return created, skipped, chunkErrs, ctx.Err()
		}
	}

	if batches > 0 && embedded == 0 {
		a.available.Store(false)
	}
	return created, skipped, chunkErrs, nil
}

// embedBatch embeds one batch and stores the vectors. It reports one error
// per chunk it could not index and whether the provider answered at all.
func (a *Adapter) embedBatch(ctx context.Context, corpusID int64, batch []types.DocumentChunk) (int, []string, bool) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}

	batchCtx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	resp, err := a.embedder.GenerateBatch(batchCtx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return 0, batchErrors(batch, err), false
	}
	if len(resp.Embeddings) != len(batch) {
		return 0, batchErrors(batch, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(batch))), false
	}

	created := 0
	var errs []string
	for i := range batch {
		hash := batch[i].ContentHash()
		rec := &storage.VectorRecord{
			ChunkID:     batch[i].ID,
			CorpusID:    corpusID,
			ContentHash: hash[:],
			Vector:      storage.SerializeVector(resp.Embeddings[i].Vector),
			Dimension:   resp.Embeddings[i].Dimension,
			Provider:    resp.Provider,
			Model:       resp.Model,
		}
		if err := a.store.UpsertVectorRecord(ctx, rec); err != nil {
			errs = append(errs, fmt.Sprintf("store vector for chunk %s: %v", batch[i].ID, err))
			continue
		}
		created++
	}
	return created, errs, true
}

// batchErrors attributes one batch-level failure to every chunk in it.
func batchErrors(batch []types.DocumentChunk, err error) []string {
	errs := make([]string, len(batch))
	for i := range batch {
		errs[i] = fmt.Sprintf("embed chunk %s: %v", batch[i].ID, err)
	}
	return errs
}

// SemanticSearch embeds the query and runs similarity search over the
// stored records. Any embedding failure surfaces as ErrUnavailable so the
// ranker can fall back to the lexical path.
func (a *Adapter) SemanticSearch(ctx context.Context, corpusID int64, query string, limit int) ([]types.VectorResult, error) {
	if !a.available.Load() {
		return nil, ErrUnavailable
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	emb, err := a.embedder.GenerateEmbedding(queryCtx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		a.available.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	results, err := a.store.SearchVector(ctx, corpusID, emb.Vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}
