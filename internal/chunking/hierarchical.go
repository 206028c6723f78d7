package chunking

import (
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Hierarchical preserves document heading structure: H1/H2/H3 headings act
// as chunk boundaries, and a chunk never spans a heading unless a single
// section alone exceeds the size cap.
type Hierarchical struct{}

// NewHierarchical creates the hierarchical strategy.
func NewHierarchical() *Hierarchical {
	return &Hierarchical{}
}

func (s *Hierarchical) Name() string {
	return StrategyHierarchical
}

func (s *Hierarchical) ShouldSplit(content *types.ParsedContent, maxChunkSize int) bool {
	return len(content.Content) > maxChunkSize || hasHeadings(content.Content)
}

func (s *Hierarchical) Split(content *types.ParsedContent, maxChunkSize, overlapSize int) ([]types.DocumentChunk, error) {
	sections := splitSections(content.Content)
	if len(sections) == 0 {
		return []types.DocumentChunk{newChunk(content, content.Content, false, false)}, nil
	}

	var chunks []types.DocumentChunk
	for _, sec := range sections {
		text := sec.render()
		if strings.TrimSpace(text) == "" {
			continue
		}

		if len(text) <= maxChunkSize {
			chunks = append(chunks, newChunk(content, text, false, false))
			continue
		}

		// One section alone exceeds the cap: split inside it on paragraph
		// boundaries, keeping the heading with the first slice.
		pieces := packBlocks(splitBlocks(text), maxChunkSize, overlapSize)
		for _, p := range pieces {
			chunks = append(chunks, newChunk(content, p.text, p.overlap, p.oversized))
		}
	}

	if len(chunks) == 0 {
		chunks = append(chunks, newChunk(content, content.Content, false, false))
	}
	return chunks, nil
}

// section is a heading plus its body up to the next heading.
type section struct {
	level   int // 0 for content before the first heading
	heading string
	body    []string
}

func (s *section) render() string {
	var b strings.Builder
	if s.heading != "" {
		b.WriteString(s.heading)
	}
	if len(s.body) > 0 {
		if s.heading != "" {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimRight(strings.Join(s.body, "\n"), "\n"))
	}
	return strings.TrimSpace(b.String())
}

// splitSections cuts markdown text at H1-H3 headings, ignoring heading-like
// lines inside fenced code blocks.
func splitSections(text string) []section {
	var sections []section
	current := section{}
	inCode := false

	flush := func() {
		if current.heading != "" || len(current.body) > 0 {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			current.body = append(current.body, line)
			continue
		}
		if !inCode {
			if level := headingLevel(trimmed); level > 0 && level <= 3 {
				flush()
				current = section{level: level, heading: trimmed}
				continue
			}
		}
		current.body = append(current.body, line)
	}
	flush()

	return sections
}

func headingLevel(line string) int {
	level := 0
	for _, r := range line {
		if r == '#' {
			level++
			continue
		}
		if r == ' ' && level > 0 {
			return level
		}
		return 0
	}
	return 0
}

func hasHeadings(text string) bool {
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}
		if !inCode && headingLevel(trimmed) > 0 {
			return true
		}
	}
	return false
}
