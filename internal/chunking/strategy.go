package chunking

import (
	"errors"
	"fmt"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Strategy names recognized by the default registry.
const (
	StrategyMethodLevel  = "method-level"
	StrategyContextAware = "context-aware"
	StrategyHierarchical = "hierarchical"
	StrategyHybrid       = "hybrid"
)

// ErrUnknownStrategy is returned when a strategy name is not registered.
// Unknown names fail fast; there is no silent fallback.
var ErrUnknownStrategy = errors.New("unknown chunking strategy")

// Strategy converts one ParsedContent record into one or more chunks,
// respecting the size cap and the overlap budget. Implementations leave the
// chunk ID empty; the Manager assigns IDs after optimization so they stay
// deterministic across merges and re-splits.
type Strategy interface {
	Name() string
	ShouldSplit(content *types.ParsedContent, maxChunkSize int) bool
	Split(content *types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error)
}

// GroupSplitter is an optional capability for strategies that chunk several
// related items together (a class and its methods). The Manager detects it
// by type assertion and feeds whole groups instead of single items.
type GroupSplitter interface {
	SplitGroup(items []*types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error)
}

// Registry maps strategy names to implementations. It is scoped to one
// Manager instance so tests can run independent pipelines without
// cross-contamination.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates a registry with the four built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(NewMethodLevel())
	r.Register(NewContextAware())
	r.Register(NewHierarchical())
	r.Register(NewHybrid())
	return r
}

// Register adds a strategy under its own name, replacing any previous
// registration.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get resolves a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names returns the registered strategy names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}

// newChunk builds an unidentified chunk for a parent item. Position and ID
// are finalized by the Manager.
func newChunk(parent *types.ParsedContent, content string, overlap, oversized bool) types.DocumentChunk {
	return types.DocumentChunk{
		Title:   parent.Name,
		Content: content,
		Metadata: types.ChunkMetadata{
			Type:                parent.Metadata.Type,
			Namespace:           parent.Metadata.Namespace,
			ClassName:           parent.Metadata.ClassName,
			MethodName:          parent.Metadata.MethodName,
			Language:            parent.Metadata.Language,
			Importance:          parent.Metadata.Importance,
			Tags:                parent.Metadata.Tags,
			SourceFile:          parent.Metadata.SourceFile,
			ParentID:            parent.Key(),
			OverlapWithPrevious: overlap,
			Oversized:           oversized,
		},
	}
}
