package chunking

import (
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// MethodLevel produces one chunk per method or function, slicing on
// paragraph boundaries only when the body exceeds the size cap and carrying
// trailing context from each slice into the next.
type MethodLevel struct{}

// NewMethodLevel creates the method-level strategy.
func NewMethodLevel() *MethodLevel {
	return &MethodLevel{}
}

func (s *MethodLevel) Name() string {
	return StrategyMethodLevel
}

func (s *MethodLevel) ShouldSplit(content *types.ParsedContent, maxChunkSize int) bool {
	return len(content.Content) > maxChunkSize
}

func (s *MethodLevel) Split(content *types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error) {
	if !s.ShouldSplit(content, maxChunkSize) {
		return []types.DocumentChunk{newChunk(content, content.Content, false, false)}, nil
	}

	pieces := packBlocks(splitBlocks(content.Content), maxChunkSize, overlapSize)
	chunks := make([]types.DocumentChunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, newChunk(content, p.text, p.overlap, p.oversized))
	}
	return chunks, nil
}
