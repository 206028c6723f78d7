package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBlocksKeepsFencedCodeTogether(t *testing.T) {
	text := "Intro paragraph.\n\n```go\nfunc a() {}\n\nfunc b() {}\n```\n\nOutro paragraph."

	blocks := splitBlocks(text)
	require.Len(t, blocks, 3)
	assert.False(t, blocks[0].atomic)
	assert.True(t, blocks[1].atomic)
	assert.Contains(t, blocks[1].text, "func a() {}")
	assert.Contains(t, blocks[1].text, "func b() {}")
	assert.False(t, blocks[2].atomic)
}

func TestSplitBlocksUnterminatedFence(t *testing.T) {
	text := "Lead in.\n\n```cpp\nint main() {\n  return 0;\n}"

	blocks := splitBlocks(text)
	require.Len(t, blocks, 2)
	assert.True(t, blocks[1].atomic)
	assert.Contains(t, blocks[1].text, "return 0;")
}

func TestPackBlocksCarriesOverlap(t *testing.T) {
	para := strings.Repeat("alpha beta gamma ", 20) // ~340 chars
	blocks := splitBlocks(para + "\n\n" + para)

	pieces := packBlocks(blocks, 400, 60)
	require.Len(t, pieces, 2)
	assert.False(t, pieces[0].overlap)
	assert.True(t, pieces[1].overlap)

	for _, p := range pieces {
		assert.LessOrEqual(t, len(p.text), 400)
	}
	// The second piece should start with trailing context from the first.
	head := pieces[1].text[:strings.Index(pieces[1].text, "\n\n")]
	assert.True(t, strings.HasSuffix(pieces[0].text, head))
}

func TestPackBlocksOversizedAtomic(t *testing.T) {
	code := "```\n" + strings.Repeat("x := 1\n", 100) + "```"
	pieces := packBlocks([]block{{text: code, atomic: true}}, 200, 40)

	require.Len(t, pieces, 1)
	assert.True(t, pieces[0].oversized)
	assert.Equal(t, code, pieces[0].text)
}

func TestHardSplitRespectsBound(t *testing.T) {
	text := strings.Repeat("performance ", 50)
	parts := hardSplit(text, 100)

	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 100)
		assert.NotEmpty(t, p)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(parts, " ")))
}

func TestTailContextBreaksOnWord(t *testing.T) {
	text := "call setup before creating any thread"
	tail := tailContext(text, 10)

	assert.True(t, strings.HasSuffix(text, tail))
	assert.False(t, strings.HasPrefix(tail, " "))
	assert.True(t, strings.HasPrefix(tail, "thread") || !strings.Contains(tail, " ") || strings.HasPrefix(text[len(text)-len(tail)-1:], " "))
}
