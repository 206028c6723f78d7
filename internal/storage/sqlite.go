package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
)

// SQLiteStore implements Store on SQLite. The driver is selected at build
// time: modernc.org/sqlite by default, mattn/go-sqlite3 under the
// sqlite_vec tag.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens the database with WAL mode and foreign keys on.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens or creates the database at dbPath and applies
// pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Corpus operations

func (s *SQLiteStore) UpsertCorpus(ctx context.Context, corpus *Corpus) error {
	query := `
		INSERT INTO corpora (root_path, language, total_documents, total_chunks, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(root_path) DO UPDATE SET
			language = excluded.language,
			total_documents = excluded.total_documents,
			total_chunks = excluded.total_chunks,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		corpus.RootPath, corpus.Language, corpus.TotalDocuments, corpus.TotalChunks,
		corpus.LastIndexedAt, now, now).Scan(&corpus.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert corpus: %w", err)
	}
	corpus.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetCorpus(ctx context.Context, rootPath string) (*Corpus, error) {
	query := `
		SELECT id, root_path, language, total_documents, total_chunks,
		       last_indexed_at, created_at, updated_at
		FROM corpora
		WHERE root_path = ?
	`
	var corpus Corpus
	var lastIndexedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, rootPath).Scan(
		&corpus.ID, &corpus.RootPath, &corpus.Language,
		&corpus.TotalDocuments, &corpus.TotalChunks,
		&lastIndexedAt, &corpus.CreatedAt, &corpus.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		corpus.LastIndexedAt = lastIndexedAt.Time
	}
	return &corpus, nil
}

// Document operations

func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (corpus_id, path, content_hash, size_bytes, normalize_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(corpus_id, path) DO UPDATE SET
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			normalize_error = excluded.normalize_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		doc.CorpusID, doc.Path, doc.ContentHash[:], doc.SizeBytes,
		doc.NormalizeError, now, now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	doc.LastIndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, corpusID int64, path string) (*Document, error) {
	query := `
		SELECT id, corpus_id, path, content_hash, size_bytes, normalize_error,
		       last_indexed_at, created_at, updated_at
		FROM documents
		WHERE corpus_id = ? AND path = ?
	`
	row := s.db.QueryRowContext(ctx, query, corpusID, path)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, corpusID int64) ([]*Document, error) {
	query := `
		SELECT id, corpus_id, path, content_hash, size_bytes, normalize_error,
		       last_indexed_at, created_at, updated_at
		FROM documents
		WHERE corpus_id = ?
		ORDER BY path
	`
	rows, err := s.db.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var hash []byte
	var normalizeError sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.CorpusID, &doc.Path, &hash, &doc.SizeBytes,
		&normalizeError, &lastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	if normalizeError.Valid {
		doc.NormalizeError = &normalizeError.String
	}
	if lastIndexedAt.Valid {
		doc.LastIndexedAt = lastIndexedAt.Time
	}
	return &doc, nil
}

// Chunk operations

// ReplaceChunks swaps the corpus chunk set in one transaction. Vector
// records for chunk IDs that no longer exist are removed in the same
// transaction so the two tables never disagree.
func (s *SQLiteStore) ReplaceChunks(ctx context.Context, corpusID int64, chunks []types.DocumentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE corpus_id = ?", corpusID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	insert := `
		INSERT INTO chunks (chunk_id, corpus_id, parent_id, title, content, content_hash, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for i := range chunks {
		c := &chunks[i]
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %s: %w", c.ID, err)
		}
		hash := c.ContentHash()
		if _, err := stmt.ExecContext(ctx, c.ID, corpusID, c.Metadata.ParentID,
			c.Title, c.Content, hash[:], string(metadata), now); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	// Drop vector records whose chunks disappeared.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM vector_records
		WHERE corpus_id = ?
		AND chunk_id NOT IN (SELECT chunk_id FROM chunks WHERE corpus_id = ?)
	`, corpusID, corpusID); err != nil {
		return fmt.Errorf("failed to prune vector records: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListChunks(ctx context.Context, corpusID int64) ([]types.DocumentChunk, error) {
	query := `
		SELECT chunk_id, title, content, metadata
		FROM chunks
		WHERE corpus_id = ?
		ORDER BY parent_id, chunk_id
	`
	rows, err := s.db.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []types.DocumentChunk
	for rows.Next() {
		var c types.DocumentChunk
		var metadata string
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &metadata); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) CountChunks(ctx context.Context, corpusID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE corpus_id = ?", corpusID).Scan(&count)
	return count, err
}

// Vector record operations

func (s *SQLiteStore) UpsertVectorRecord(ctx context.Context, rec *VectorRecord) error {
	query := `
		INSERT INTO vector_records (chunk_id, corpus_id, content_hash, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			corpus_id = excluded.corpus_id,
			content_hash = excluded.content_hash,
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ChunkID, rec.CorpusID, rec.ContentHash, rec.Vector,
		rec.Dimension, rec.Provider, rec.Model, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert vector record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVectorRecord(ctx context.Context, chunkID string) (*VectorRecord, error) {
	query := `
		SELECT chunk_id, corpus_id, content_hash, vector, dimension, provider, model, created_at
		FROM vector_records
		WHERE chunk_id = ?
	`
	var rec VectorRecord
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(
		&rec.ChunkID, &rec.CorpusID, &rec.ContentHash, &rec.Vector,
		&rec.Dimension, &rec.Provider, &rec.Model, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) ListVectorRecords(ctx context.Context, corpusID int64) ([]*VectorRecord, error) {
	query := `
		SELECT chunk_id, corpus_id, content_hash, vector, dimension, provider, model, created_at
		FROM vector_records
		WHERE corpus_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []*VectorRecord
	for rows.Next() {
		var rec VectorRecord
		if err := rows.Scan(&rec.ChunkID, &rec.CorpusID, &rec.ContentHash, &rec.Vector,
			&rec.Dimension, &rec.Provider, &rec.Model, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// SearchVector runs cosine similarity over the corpus vector records.
func (s *SQLiteStore) SearchVector(ctx context.Context, corpusID int64, query []float32, limit int) ([]types.VectorResult, error) {
	return searchVector(ctx, s.db, corpusID, query, limit)
}

// Run history

func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, corpus_id, strategy, documents_total, documents_skipped,
		                  chunks_created, embeddings_created, embeddings_skipped, error_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.CorpusID, run.Strategy, run.DocumentsTotal, run.DocumentsSkipped,
		run.ChunksCreated, run.EmbeddingsCreated, run.EmbeddingsSkipped, run.ErrorCount, run.DurationMs, now)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	run.CreatedAt = now
	return nil
}

func (s *SQLiteStore) LastRun(ctx context.Context, corpusID int64) (*Run, error) {
	query := `
		SELECT id, corpus_id, strategy, documents_total, documents_skipped,
		       chunks_created, embeddings_created, embeddings_skipped, error_count, duration_ms, created_at
		FROM runs
		WHERE corpus_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	var run Run
	err := s.db.QueryRowContext(ctx, query, corpusID).Scan(
		&run.ID, &run.CorpusID, &run.Strategy, &run.DocumentsTotal, &run.DocumentsSkipped,
		&run.ChunksCreated, &run.EmbeddingsCreated, &run.EmbeddingsSkipped, &run.ErrorCount,
		&run.DurationMs, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Stats aggregates the persisted counters for one corpus.
func (s *SQLiteStore) Stats(ctx context.Context, corpusID int64) (*CorpusStats, error) {
	stats := &CorpusStats{}

	var rootPath string
	err := s.db.QueryRowContext(ctx, "SELECT root_path FROM corpora WHERE id = ?", corpusID).Scan(&rootPath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	corpus, err := s.GetCorpus(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	stats.Corpus = corpus

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE corpus_id = ?", corpusID).Scan(&stats.DocumentCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE corpus_id = ?", corpusID).Scan(&stats.ChunkCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_records WHERE corpus_id = ?", corpusID).Scan(&stats.VectorCount); err != nil {
		return nil, err
	}

	lastRun, err := s.LastRun(ctx, corpusID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	stats.LastRun = lastRun

	return stats, nil
}
