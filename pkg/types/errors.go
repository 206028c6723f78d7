package types

import (
	"errors"
	"fmt"
)

// Domain errors shared across the indexing and search packages.
var (
	// Normalization errors
	ErrMissingName      = errors.New("source item has no name")
	ErrMissingType      = errors.New("metadata type is required")
	ErrMissingNamespace = errors.New("metadata namespace is required")

	// Chunk errors
	ErrInvalidChunkID  = errors.New("invalid chunk ID")
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrMissingParent   = errors.New("chunk parent ID is required")
	ErrInvalidPosition = errors.New("chunk position must be >= 0")

	// Search result errors
	ErrInvalidRank  = errors.New("rank must be >= 1")
	ErrInvalidScore = errors.New("score must be between 0 and 1")
)

// NormalizationError reports a structurally invalid source item. It names
// the offending source file so callers can decide whether to skip the item
// or abort the run.
type NormalizationError struct {
	SourceFile string
	Reason     error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %v", e.SourceFile, e.Reason)
}

func (e *NormalizationError) Unwrap() error {
	return e.Reason
}
