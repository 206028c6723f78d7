package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mwhitfield/sdkdocs-mcp/internal/chunking"
	"github.com/mwhitfield/sdkdocs-mcp/internal/ingest"
	"github.com/mwhitfield/sdkdocs-mcp/internal/lexical"
	"github.com/mwhitfield/sdkdocs-mcp/internal/relationship"
	"github.com/mwhitfield/sdkdocs-mcp/internal/search"
	"github.com/mwhitfield/sdkdocs-mcp/internal/storage"
	"github.com/mwhitfield/sdkdocs-mcp/internal/vector"
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Options controls one IndexCorpus run.
type Options struct {
	Strategy     string
	MaxChunkSize int
	OverlapSize  int
	ForceReindex bool
	Workers      int
}

func (o *Options) setDefaults() {
	if o.Strategy == "" {
		o.Strategy = chunking.StrategyHybrid
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
}

// Summary is the structured result of one indexing run. Per-file failures
// land in Errors; the run itself only fails on storage or configuration
// problems.
type Summary struct {
	CorpusID          int64         `json:"corpus_id"`
	DocumentsIndexed  int           `json:"documents_indexed"`
	DocumentsSkipped  int           `json:"documents_skipped"`
	ChunksCreated     int           `json:"chunks_created"`
	EmbeddingsCreated int           `json:"embeddings_created"`
	EmbeddingsSkipped int           `json:"embeddings_skipped"`
	Errors            []string      `json:"errors,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	Skipped           bool          `json:"skipped"`
	Duration          time.Duration `json:"duration_ms"`
}

// Statistics is the read-side corpus summary served to callers.
type Statistics struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalChunks     int            `json:"total_chunks"`
	ByNamespace     map[string]int `json:"by_namespace"`
	ByType          map[string]int `json:"by_type"`
	VectorAvailable bool           `json:"vector_available"`
	LastIndexedAt   time.Time      `json:"last_indexed_at"`
}

// snapshot is one immutable query view: the lexical index, relationship
// graph and ranker built by a single indexing run. Queries read whichever
// snapshot was current when they started; a rebuild swaps the pointer only
// after the new view is complete.
type snapshot struct {
	corpusID int64
	ranker   *search.Ranker
	analyzer *relationship.Analyzer
	stats    Statistics
}

// Pipeline owns the full index-then-query lifecycle for one corpus store.
type Pipeline struct {
	store      storage.Store
	adapter    *vector.Adapter
	normalizer *ingest.Normalizer
	manager    *chunking.Manager

	rebuild singleflight.Group
	current atomic.Pointer[snapshot]
}

// New wires a pipeline over a chunk store. adapter may be nil; the vector
// path is then reported unavailable and search runs lexical-only.
func New(store storage.Store, adapter *vector.Adapter) *Pipeline {
	return &Pipeline{
		store:      store,
		adapter:    adapter,
		normalizer: ingest.NewNormalizer(),
		manager:    chunking.NewManager(),
	}
}

// IndexCorpus walks a documentation tree, normalizes and chunks every source
// file, persists the result, refreshes vector records, and atomically swaps
// in a new query snapshot. Concurrent calls for the same path share one run.
func (p *Pipeline) IndexCorpus(ctx context.Context, path string, opts Options) (*Summary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}

	v, err, _ := p.rebuild.Do(abs, func() (interface{}, error) {
		return p.indexCorpus(ctx, abs, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

func (p *Pipeline) indexCorpus(ctx context.Context, root string, opts Options) (*Summary, error) {
	opts.setDefaults()
	start := time.Now()

	files, err := discoverSources(root)
	if err != nil {
		return nil, fmt.Errorf("discover corpus files: %w", err)
	}

	corpus := &storage.Corpus{RootPath: root}
	if existing, err := p.store.GetCorpus(ctx, root); err == nil {
		corpus = existing
	} else if err != storage.ErrNotFound {
		return nil, err
	}
	if err := p.store.UpsertCorpus(ctx, corpus); err != nil {
		return nil, fmt.Errorf("upsert corpus: %w", err)
	}

	loaded, errs := p.loadSources(ctx, root, files, opts.Workers)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	summary := &Summary{CorpusID: corpus.ID, Errors: errs}

	// Unchanged corpus: rebuild the in-memory snapshot from persisted
	// chunks instead of re-chunking and re-embedding.
	if !opts.ForceReindex && p.corpusUnchanged(ctx, corpus.ID, loaded) {
		chunks, err := p.store.ListChunks(ctx, corpus.ID)
		if err != nil {
			return nil, fmt.Errorf("load persisted chunks: %w", err)
		}
		if len(chunks) > 0 {
			p.swapSnapshot(corpus, chunks, allItems(loaded))
			summary.Skipped = true
			summary.DocumentsSkipped = len(files)
			summary.Duration = time.Since(start)
			return summary, nil
		}
	}

	items := allItems(loaded)
	result, err := p.manager.ProcessContent(items, chunking.Options{
		Strategy:       opts.Strategy,
		MaxChunkSize:   opts.MaxChunkSize,
		OverlapSize:    opts.OverlapSize,
		EnhanceContent: true,
		OptimizeChunks: true,
		ValidateOutput: true,
	})
	if err != nil {
		return nil, err
	}
	if result.Validation != nil {
		summary.Warnings = append(summary.Warnings, result.Validation.Warnings...)
		if !result.Validation.IsValid {
			return nil, fmt.Errorf("chunk validation failed: %v", result.Validation.Errors)
		}
	}

	for _, src := range loaded {
		doc := &storage.Document{
			CorpusID:       corpus.ID,
			Path:           src.relPath,
			ContentHash:    src.hash,
			SizeBytes:      src.size,
			NormalizeError: src.normalizeError,
		}
		if err := p.store.UpsertDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("upsert document %s: %w", src.relPath, err)
		}
	}
	if err := p.store.ReplaceChunks(ctx, corpus.ID, result.Chunks); err != nil {
		return nil, fmt.Errorf("replace chunks: %w", err)
	}

	summary.DocumentsIndexed = len(loaded) - len(errs)
	summary.ChunksCreated = len(result.Chunks)

	if p.adapter != nil && p.adapter.Available() {
		created, skipped, chunkErrs, err := p.adapter.IndexChunks(ctx, corpus.ID, result.Chunks, opts.ForceReindex)
		summary.EmbeddingsCreated = created
		summary.EmbeddingsSkipped = skipped
		// Vector indexing failures degrade search, they never fail the
		// run: per-chunk embed failures arrive as warnings.
		summary.Warnings = append(summary.Warnings, chunkErrs...)
		if err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("vector indexing: %v", err))
		}
	}

	corpus.TotalDocuments = len(loaded)
	corpus.TotalChunks = len(result.Chunks)
	corpus.LastIndexedAt = time.Now()
	if err := p.store.UpsertCorpus(ctx, corpus); err != nil {
		return nil, fmt.Errorf("update corpus counters: %w", err)
	}

	summary.Duration = time.Since(start)
	run := &storage.Run{
		ID:                uuid.NewString(),
		CorpusID:          corpus.ID,
		Strategy:          opts.Strategy,
		DocumentsTotal:    len(loaded),
		ChunksCreated:     summary.ChunksCreated,
		EmbeddingsCreated: summary.EmbeddingsCreated,
		EmbeddingsSkipped: summary.EmbeddingsSkipped,
		ErrorCount:        len(summary.Errors),
		DurationMs:        summary.Duration.Milliseconds(),
	}
	if err := p.store.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	p.swapSnapshot(corpus, result.Chunks, items)
	return summary, nil
}

// loadedSource is one corpus file after normalization.
type loadedSource struct {
	relPath        string
	hash           [32]byte
	size           int64
	items          []types.ParsedContent
	normalizeError *string
}

// loadSources reads and normalizes every corpus file with a bounded worker
// pool. Per-file failures are captured, never propagated; the returned error
// strings feed the run summary.
func (p *Pipeline) loadSources(ctx context.Context, root string, files []string, workers int) ([]loadedSource, []string) {
	loaded := make([]loadedSource, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			loaded[i] = p.loadSource(root, file)
			return nil
		})
	}
	// The only propagated error is context cancellation.
	_ = g.Wait()

	var errs []string
	for _, src := range loaded {
		if src.normalizeError != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", src.relPath, *src.normalizeError))
		}
	}
	return loaded, errs
}

func (p *Pipeline) loadSource(root, file string) loadedSource {
	src := loadedSource{relPath: file}
	if rel, err := filepath.Rel(root, file); err == nil {
		src.relPath = rel
	}

	hash, size, err := hashFile(file)
	if err != nil {
		src.normalizeError = errString(err)
		return src
	}
	src.hash = hash
	src.size = size

	switch classifySource(file) {
	case sourceSpec:
		spec, err := ingest.LoadSpecFile(file)
		if err != nil {
			src.normalizeError = errString(err)
			return src
		}
		items, itemErrs := p.normalizer.NormalizeSpec(spec, src.relPath)
		src.items = items
		if len(itemErrs) > 0 {
			src.normalizeError = errString(fmt.Errorf("%d item(s) skipped: %v", len(itemErrs), itemErrs[0]))
		}
	case sourceMarkdown:
		item, err := p.normalizer.NormalizeDocument(file)
		if err != nil {
			src.normalizeError = errString(err)
			return src
		}
		item.Metadata.SourceFile = src.relPath
		src.items = []types.ParsedContent{item}
	}
	return src
}

// corpusUnchanged reports whether the persisted document set matches the
// freshly hashed file set exactly.
func (p *Pipeline) corpusUnchanged(ctx context.Context, corpusID int64, loaded []loadedSource) bool {
	docs, err := p.store.ListDocuments(ctx, corpusID)
	if err != nil || len(docs) != len(loaded) {
		return false
	}
	stored := make(map[string][32]byte, len(docs))
	for _, d := range docs {
		stored[d.Path] = d.ContentHash
	}
	for _, src := range loaded {
		if hash, ok := stored[src.relPath]; !ok || hash != src.hash {
			return false
		}
	}
	return true
}

// swapSnapshot builds the new query view and publishes it atomically.
// Queries in flight keep reading the old snapshot until they finish.
func (p *Pipeline) swapSnapshot(corpus *storage.Corpus, chunks []types.DocumentChunk, items []types.ParsedContent) {
	index := lexical.NewIndex()
	index.Build(chunks)

	analyzer := relationship.NewAnalyzer()
	analyzer.Analyze(items)

	var semantic search.SemanticSearcher
	available := false
	if p.adapter != nil {
		semantic = p.adapter
		available = p.adapter.Available()
	}

	chunkStats := chunking.ComputeStatistics(chunks)
	p.current.Store(&snapshot{
		corpusID: corpus.ID,
		ranker:   search.NewRanker(index, semantic, analyzer, corpus.ID),
		analyzer: analyzer,
		stats: Statistics{
			TotalDocuments:  corpus.TotalDocuments,
			TotalChunks:     len(chunks),
			ByNamespace:     chunkStats.NamespaceDistribution,
			ByType:          chunkStats.TypeDistribution,
			VectorAvailable: available,
			LastIndexedAt:   corpus.LastIndexedAt,
		},
	})
}

// Search answers a query against the current snapshot. An unindexed pipeline
// returns an empty list, not an error.
func (p *Pipeline) Search(ctx context.Context, query string, opts search.Options) ([]types.SearchResult, error) {
	snap := p.current.Load()
	if snap == nil {
		return []types.SearchResult{}, nil
	}
	return snap.ranker.Search(ctx, query, opts)
}

// SearchWithContext answers a query with relationship-graph enrichment.
func (p *Pipeline) SearchWithContext(ctx context.Context, query string, opts search.Options) ([]types.EnhancedSearchResult, error) {
	snap := p.current.Load()
	if snap == nil {
		return []types.EnhancedSearchResult{}, nil
	}
	return snap.ranker.SearchWithContext(ctx, query, opts)
}

// WorkflowSuggestions returns an ordered call sequence for a goal query.
func (p *Pipeline) WorkflowSuggestions(query string) []relationship.WorkflowStep {
	snap := p.current.Load()
	if snap == nil {
		return nil
	}
	return snap.analyzer.WorkflowSuggestions(query)
}

// Prerequisites exposes the relationship graph's prerequisite edges.
func (p *Pipeline) Prerequisites(methodKey string) []string {
	snap := p.current.Load()
	if snap == nil {
		return nil
	}
	return snap.analyzer.GetPrerequisites(methodKey)
}

// Statistics reports the current snapshot's corpus summary.
func (p *Pipeline) Statistics() Statistics {
	snap := p.current.Load()
	if snap == nil {
		available := p.adapter != nil && p.adapter.Available()
		return Statistics{
			ByNamespace:     map[string]int{},
			ByType:          map[string]int{},
			VectorAvailable: available,
		}
	}
	return snap.stats
}

func allItems(loaded []loadedSource) []types.ParsedContent {
	sorted := make([]loadedSource, len(loaded))
	copy(sorted, loaded)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].relPath < sorted[j].relPath })

	var items []types.ParsedContent
	for _, src := range sorted {
		items = append(items, src.items...)
	}
	return items
}

func errString(err error) *string {
	s := err.Error()
	return &s
}
