package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// searchVector performs cosine similarity search over vector_records.
// With the sqlite-vec build the distance computation happens in SQL;
// otherwise every candidate vector is scanned in Go.
func searchVector(ctx context.Context, db *sql.DB, corpusID int64, queryVector []float32, limit int) ([]types.VectorResult, error) {
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, corpusID, queryVector, limit)
	}
	return searchVectorFallback(ctx, db, corpusID, queryVector, limit)
}

// searchVectorOptimized pushes the similarity computation into SQL via the
// sqlite-vec extension. vec_distance_cosine returns distance, converted to
// similarity for a uniform API.
func searchVectorOptimized(ctx context.Context, db *sql.DB, corpusID int64, queryVector []float32, limit int) ([]types.VectorResult, error) {
	if limit <= 0 {
		return []types.VectorResult{}, nil
	}

	queryBlob := serializeVector(queryVector)
	query := `
		SELECT
			chunk_id,
			1.0 - vec_distance_cosine(vector, ?) as similarity
		FROM vector_records
		WHERE corpus_id = ?
		ORDER BY similarity DESC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, queryBlob, corpusID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]types.VectorResult, 0, limit)
	for rows.Next() {
		var result types.VectorResult
		if err := rows.Scan(&result.ChunkID, &result.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// searchVectorFallback scans every candidate vector and ranks in Go. Used
// for purego builds without the sqlite-vec extension.
func searchVectorFallback(ctx context.Context, db *sql.DB, corpusID int64, queryVector []float32, limit int) ([]types.VectorResult, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT chunk_id, vector FROM vector_records WHERE corpus_id = ?", corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []types.VectorResult
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, err
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // dimension mismatch, stale record from another provider
		}

		candidates = append(candidates, types.VectorResult{
			ChunkID: chunkID,
			Score:   cosineSimilarity(queryVector, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SerializeVector is the exported serialization helper used by the vector
// index adapter when writing records.
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is the exported counterpart of SerializeVector.
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is exported for the ranker's tests.
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
