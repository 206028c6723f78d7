package relationship

import (
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Graph is the derived prerequisite/co-occurrence structure over API
// methods. Built wholesale during indexing, read-only at query time.
type Graph struct {
	// Prerequisites maps a method key to the methods that should be called
	// before it.
	Prerequisites map[string][]string
	// CommonPatterns maps a method key to an ordered list of method names
	// observed together in documented example snippets.
	CommonPatterns map[string][]string
	// UsageFrequency counts how often each method appears across all
	// example snippets in the corpus.
	UsageFrequency map[string]int
	// ErrorPatterns maps a method key to its documented failure modes.
	ErrorPatterns map[string][]types.ErrorPattern
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Prerequisites:  make(map[string][]string),
		CommonPatterns: make(map[string][]string),
		UsageFrequency: make(map[string]int),
		ErrorPatterns:  make(map[string][]types.ErrorPattern),
	}
}
