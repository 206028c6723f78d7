package chunking

import (
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// ContextAware groups semantically related items into a shared chunk when
// their combined size stays under the cap, preserving cross-reference
// context between a class and its most-used methods. When grouping would
// exceed the cap it falls back to method-level behavior per item.
type ContextAware struct {
	fallback *MethodLevel
}

// NewContextAware creates the context-aware strategy.
func NewContextAware() *ContextAware {
	return &ContextAware{fallback: NewMethodLevel()}
}

func (s *ContextAware) Name() string {
	return StrategyContextAware
}

func (s *ContextAware) ShouldSplit(content *types.ParsedContent, maxChunkSize int) bool {
	return len(content.Content) > maxChunkSize
}

// Split on a single item behaves like method-level: the grouping behavior
// lives in SplitGroup, which the Manager invokes when it can assemble a
// class with its methods.
func (s *ContextAware) Split(content *types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error) {
	return s.fallback.Split(content, maxChunkSize, overlapSize)
}

// SplitGroup chunks a class together with its methods. If the combined text
// fits under the cap it becomes one shared chunk anchored on the class;
// otherwise every item is chunked individually via the fallback.
func (s *ContextAware) SplitGroup(items []*types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) == 1 {
		return s.Split(items[0], maxChunkSize, overlapSize)
	}

	anchor := items[0]
	for _, it := range items {
		if it.Metadata.Type == types.ContentClass {
			anchor = it
			break
		}
	}

	var combined strings.Builder
	total := 0
	for _, it := range items {
		total += len(it.Content) + 2
	}

	if total <= maxChunkSize {
		for i, it := range items {
			if i > 0 {
				combined.WriteString("\n\n")
			}
			combined.WriteString(it.Content)
		}
		chunk := newChunk(anchor, combined.String(), false, false)
		return []types.DocumentChunk{chunk}, nil
	}

	// Grouping would exceed the cap: fall back to per-item chunks.
	var chunks []types.DocumentChunk
	for _, it := range items {
		cs, err := s.fallback.Split(it, maxChunkSize, overlapSize)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, cs...)
	}
	return chunks, nil
}
