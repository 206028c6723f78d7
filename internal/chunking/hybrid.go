package chunking

import (
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Hybrid is the default production strategy: hierarchical splitting first
// for content with heading structure, then method-level splitting within
// anything that has no structure or still exceeds the cap.
type Hybrid struct {
	hierarchical *Hierarchical
	methodLevel  *MethodLevel
}

// NewHybrid creates the hybrid strategy.
func NewHybrid() *Hybrid {
	return &Hybrid{
		hierarchical: NewHierarchical(),
		methodLevel:  NewMethodLevel(),
	}
}

func (s *Hybrid) Name() string {
	return StrategyHybrid
}

func (s *Hybrid) ShouldSplit(content *types.ParsedContent, maxChunkSize int) bool {
	return len(content.Content) > maxChunkSize || hasHeadings(content.Content)
}

func (s *Hybrid) Split(content *types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error) {
	if hasHeadings(content.Content) {
		return s.hierarchical.Split(content, maxChunkSize, overlapSize)
	}
	return s.methodLevel.Split(content, maxChunkSize, overlapSize)
}
