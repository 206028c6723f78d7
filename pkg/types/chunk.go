package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkMetadata narrows the parent item's metadata and adds chunk-specific
// position and provenance fields.
type ChunkMetadata struct {
	Type       ContentType `json:"type"`
	Namespace  string      `json:"namespace"`
	ClassName  string      `json:"class_name,omitempty"`
	MethodName string      `json:"method_name,omitempty"`
	Language   string      `json:"language,omitempty"`
	Importance Importance  `json:"importance"`
	Tags       []string    `json:"tags,omitempty"`
	SourceFile string      `json:"source_file"`

	// ParentID points back to the source item this chunk was cut from.
	// It is a non-owning reference; the chunk store holds the content.
	ParentID string `json:"parent_id"`
	// Position is the chunk's order within its parent, starting at 0.
	Position int `json:"position"`
	// OverlapWithPrevious marks chunks whose head repeats trailing context
	// from the previous chunk of the same parent.
	OverlapWithPrevious bool `json:"overlap_with_previous,omitempty"`
	// Oversized marks chunks that exceed the size cap because they contain
	// an atomic unit (typically a fenced code block) that must not be split.
	Oversized bool `json:"oversized,omitempty"`
}

// DocumentChunk is the atomic retrieval unit. Chunks are created by a
// chunking strategy, possibly merged or re-split during optimization, and
// replaced wholesale on re-index; they are never mutated in place once
// indexed.
type DocumentChunk struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkID derives the stable chunk identifier from source identity and
// position. The same input always yields the same ID, which is what lets
// incremental re-indexing detect unchanged chunks and skip re-embedding.
func ChunkID(sourceFile, name, strategy string, position int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", sourceFile, name, strategy, position)))
	return hex.EncodeToString(h[:16])
}

// ContentHash returns the SHA-256 of the chunk content, used to decide
// whether a chunk needs re-embedding.
func (c *DocumentChunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// Validate checks per-chunk invariants. Size bounds are validated by the
// chunking manager because they depend on run options.
func (c *DocumentChunk) Validate() error {
	if c.ID == "" {
		return ErrInvalidChunkID
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.Metadata.ParentID == "" {
		return ErrMissingParent
	}
	if c.Metadata.Position < 0 {
		return ErrInvalidPosition
	}
	return nil
}
