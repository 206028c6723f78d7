package storage

import (
	"context"
	"time"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Store persists normalized corpora, their chunks, vector records and
// indexing run history.
type Store interface {
	// Corpus operations
	UpsertCorpus(ctx context.Context, corpus *Corpus) error
	GetCorpus(ctx context.Context, rootPath string) (*Corpus, error)

	// Document operations. Documents track source files for incremental
	// re-indexing via content hash.
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, corpusID int64, path string) (*Document, error)
	ListDocuments(ctx context.Context, corpusID int64) ([]*Document, error)

	// Chunk operations. Chunks are replaced wholesale per corpus on every
	// indexing run; there is no per-chunk update path.
	ReplaceChunks(ctx context.Context, corpusID int64, chunks []types.DocumentChunk) error
	ListChunks(ctx context.Context, corpusID int64) ([]types.DocumentChunk, error)
	CountChunks(ctx context.Context, corpusID int64) (int, error)

	// Vector record operations
	UpsertVectorRecord(ctx context.Context, rec *VectorRecord) error
	GetVectorRecord(ctx context.Context, chunkID string) (*VectorRecord, error)
	ListVectorRecords(ctx context.Context, corpusID int64) ([]*VectorRecord, error)
	SearchVector(ctx context.Context, corpusID int64, query []float32, limit int) ([]types.VectorResult, error)

	// Run history
	RecordRun(ctx context.Context, run *Run) error
	LastRun(ctx context.Context, corpusID int64) (*Run, error)

	// Stats aggregates corpus-level counters for the statistics tool.
	Stats(ctx context.Context, corpusID int64) (*CorpusStats, error)

	Close() error
}

// Corpus is one indexed documentation tree.
type Corpus struct {
	ID             int64
	RootPath       string
	Language       string
	TotalDocuments int
	TotalChunks    int
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document is one tracked source file within a corpus. ContentHash drives
// the incremental skip decision; NormalizeError records per-file ingestion
// failures without failing the run.
type Document struct {
	ID             int64
	CorpusID       int64
	Path           string
	ContentHash    [32]byte
	SizeBytes      int64
	NormalizeError *string
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VectorRecord pairs a chunk with its stored embedding. The content hash is
// compared against the chunk's current hash to skip re-embedding unchanged
// chunks.
type VectorRecord struct {
	ChunkID     string
	CorpusID    int64
	ContentHash []byte
	Vector      []byte // little-endian float32 blob
	Dimension   int
	Provider    string
	Model       string
	CreatedAt   time.Time
}

// Run records one indexing run for auditability.
type Run struct {
	ID                string // uuid
	CorpusID          int64
	Strategy          string
	DocumentsTotal    int
	DocumentsSkipped  int
	ChunksCreated     int
	EmbeddingsCreated int
	EmbeddingsSkipped int
	ErrorCount        int
	DurationMs        int64
	CreatedAt         time.Time
}

// CorpusStats aggregates persisted counters for one corpus.
type CorpusStats struct {
	Corpus        *Corpus
	DocumentCount int
	ChunkCount    int
	VectorCount   int
	LastRun       *Run
}
