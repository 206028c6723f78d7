package chunking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

const (
	// DefaultMaxChunkSize is the soft ceiling on chunk content length.
	DefaultMaxChunkSize = 1500

	// DefaultOverlapSize is the trailing-context budget carried between
	// adjacent slices of the same parent.
	DefaultOverlapSize = 200

	// OversizeTolerance is the slack permitted past the cap for chunks
	// that carry an atomic unit which cannot be split without breaking a
	// code block.
	OversizeTolerance = 500
)

// ErrDuplicateChunkID indicates two chunks in one run resolved to the same
// ID. This is a contract violation in the chunking logic itself, raised
// immediately rather than reported as a validation warning.
var ErrDuplicateChunkID = errors.New("duplicate chunk ID in indexing run")

// Options controls one ProcessContent run.
type Options struct {
	Strategy       string
	MaxChunkSize   int
	OverlapSize    int
	EnhanceContent bool
	OptimizeChunks bool
	ValidateOutput bool
}

func (o *Options) setDefaults() {
	if o.Strategy == "" {
		o.Strategy = StrategyHybrid
	}
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.OverlapSize < 0 {
		o.OverlapSize = 0
	}
}

// ValidationReport carries the outcome of the post-hoc invariant checks.
// Failures are reported, not thrown, so partial indexing can proceed with a
// caller decision.
type ValidationReport struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ProcessResult is the output of one chunking run.
type ProcessResult struct {
	Chunks     []types.DocumentChunk
	Stats      Statistics
	Validation *ValidationReport
}

// Manager orchestrates strategy selection, content enhancement, chunk-size
// optimization, chunk-ID assignment and validation.
type Manager struct {
	registry *Registry
}

// NewManager creates a Manager with the built-in strategy registry.
func NewManager() *Manager {
	return &Manager{registry: NewRegistry()}
}

// Registry exposes the strategy registry so callers can register further
// named strategies.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// ProcessContent converts normalized items into identified, validated
// chunks. An unknown strategy name fails fast; a duplicate chunk ID is a
// hard error. All other problems land in the validation report.
func (m *Manager) ProcessContent(items []types.ParsedContent, opts Options) (*ProcessResult, error) {
	opts.setDefaults()

	strategy, err := m.registry.Get(opts.Strategy)
	if err != nil {
		return nil, err
	}

	parents := make(map[string]*types.ParsedContent, len(items))
	for i := range items {
		parents[items[i].Key()] = &items[i]
	}

	chunks, err := m.splitAll(items, strategy, opts)
	if err != nil {
		return nil, err
	}

	if opts.EnhanceContent {
		m.enhanceAll(chunks, parents)
	}

	if opts.OptimizeChunks {
		chunks = m.optimize(chunks, opts)
	}

	if err := m.assignIDs(chunks, strategy.Name()); err != nil {
		return nil, err
	}

	result := &ProcessResult{
		Chunks: chunks,
		Stats:  ComputeStatistics(chunks),
	}

	if opts.ValidateOutput {
		result.Validation = m.validate(chunks, opts)
	}

	return result, nil
}

// splitAll runs the strategy over every item. Strategies with the
// GroupSplitter capability receive whole class groups so they can keep a
// class and its methods together.
func (m *Manager) splitAll(items []types.ParsedContent, strategy Strategy, opts Options) ([]types.DocumentChunk, error) {
	gs, grouped := strategy.(GroupSplitter)
	if !grouped {
		var chunks []types.DocumentChunk
		for i := range items {
			cs, err := strategy.Split(&items[i], opts.MaxChunkSize, opts.OverlapSize)
			if err != nil {
				return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
			}
			chunks = append(chunks, cs...)
		}
		return chunks, nil
	}

	// Group class members by (namespace, className) in source order;
	// everything else passes through as a singleton group.
	var order []string
	groups := make(map[string][]*types.ParsedContent)
	for i := range items {
		it := &items[i]
		key := it.Key()
		if it.Metadata.ClassName != "" &&
			(it.Metadata.Type == types.ContentClass || it.Metadata.Type == types.ContentMethod) {
			key = it.Metadata.Namespace + "." + it.Metadata.ClassName
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	var chunks []types.DocumentChunk
	for _, key := range order {
		cs, err := gs.SplitGroup(groups[key], opts.MaxChunkSize, opts.OverlapSize)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
		}
		chunks = append(chunks, cs...)
	}
	return chunks, nil
}

// enhanceAll augments chunk text with generated structural markup. The
// additions are purely additive matchable terms; they never change the
// semantic meaning of the content.
func (m *Manager) enhanceAll(chunks []types.DocumentChunk, parents map[string]*types.ParsedContent) {
	firstOfParent := make(map[string]bool)

	for i := range chunks {
		c := &chunks[i]
		first := !firstOfParent[c.Metadata.ParentID]
		firstOfParent[c.Metadata.ParentID] = true

		var b strings.Builder
		if !strings.HasPrefix(strings.TrimSpace(c.Content), "#") {
			fmt.Fprintf(&b, "## %s\n\n", c.Title)
		}
		b.WriteString(c.Content)

		parent := parents[c.Metadata.ParentID]
		if first && parent != nil && len(parent.Parameters) > 0 {
			b.WriteString("\n\n| Parameter | Type | Description |\n|---|---|---|\n")
			for _, p := range parent.Parameters {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Name, p.Type, p.Description)
			}
		}

		c.Content = b.String()
	}
}

// optimize merges adjacent undersized chunks from the same parent and
// re-splits chunks pushed over the cap by enhancement. Oversized atomic
// chunks are left alone.
func (m *Manager) optimize(chunks []types.DocumentChunk, opts Options) []types.DocumentChunk {
	// Merge pass: adjacent same-parent chunks whose combined size stays
	// under the cap. Chunks that start with carried overlap are not merged
	// back, that would duplicate the overlap text inside one chunk.
	var merged []types.DocumentChunk
	for _, c := range chunks {
		if len(merged) > 0 {
			prev := &merged[len(merged)-1]
			if prev.Metadata.ParentID == c.Metadata.ParentID &&
				!prev.Metadata.Oversized && !c.Metadata.Oversized &&
				!c.Metadata.OverlapWithPrevious &&
				len(prev.Content)+len(c.Content)+2 <= opts.MaxChunkSize {
				prev.Content = prev.Content + "\n\n" + c.Content
				continue
			}
		}
		merged = append(merged, c)
	}

	// Re-split pass: anything that still exceeds the cap.
	var out []types.DocumentChunk
	for _, c := range merged {
		if len(c.Content) <= opts.MaxChunkSize || c.Metadata.Oversized {
			out = append(out, c)
			continue
		}
		pieces := packBlocks(splitBlocks(c.Content), opts.MaxChunkSize, opts.OverlapSize)
		for _, p := range pieces {
			sub := c
			sub.Content = p.text
			sub.Metadata.OverlapWithPrevious = p.overlap
			sub.Metadata.Oversized = p.oversized
			out = append(out, sub)
		}
	}

	return out
}

// assignIDs finalizes positions and derives the deterministic chunk IDs.
// Chunks from the same parent keep source order via Position.
func (m *Manager) assignIDs(chunks []types.DocumentChunk, strategyName string) error {
	positions := make(map[string]int)
	seen := make(map[string]string)

	for i := range chunks {
		c := &chunks[i]
		pos := positions[c.Metadata.ParentID]
		positions[c.Metadata.ParentID] = pos + 1

		c.Metadata.Position = pos
		c.ID = types.ChunkID(c.Metadata.SourceFile, c.Metadata.ParentID, strategyName, pos)

		if holder, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: %s claimed by %s and %s",
				ErrDuplicateChunkID, c.ID, holder, c.Metadata.ParentID)
		}
		seen[c.ID] = c.Metadata.ParentID
	}
	return nil
}

// validate checks global invariants over the finished chunk set and
// reports, rather than throws, so the caller decides how to proceed.
func (m *Manager) validate(chunks []types.DocumentChunk, opts Options) *ValidationReport {
	report := &ValidationReport{IsValid: true}

	for i := range chunks {
		c := &chunks[i]

		if err := c.Validate(); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("chunk %s (%s): %v", c.ID, c.Metadata.ParentID, err))
			continue
		}

		switch {
		case c.Metadata.Oversized:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("chunk %s exceeds cap (%d chars), contains an unsplittable block", c.ID, len(c.Content)))
		case len(c.Content) > opts.MaxChunkSize+OversizeTolerance:
			report.Errors = append(report.Errors,
				fmt.Sprintf("chunk %s exceeds cap plus tolerance: %d > %d", c.ID, len(c.Content), opts.MaxChunkSize+OversizeTolerance))
		case len(c.Content) > opts.MaxChunkSize:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("chunk %s within tolerance above cap: %d > %d", c.ID, len(c.Content), opts.MaxChunkSize))
		}
	}

	report.IsValid = len(report.Errors) == 0
	return report
}
