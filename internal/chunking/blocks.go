package chunking

import (
	"strings"
)

// block is an indivisible slice of source text. Fenced code blocks are
// atomic: they are never split even when they alone exceed the size cap.
type block struct {
	text   string
	atomic bool
}

// piece is one packed unit of text destined to become a chunk body.
type piece struct {
	text      string
	overlap   bool
	oversized bool
}

// splitBlocks cuts text into paragraphs on blank lines while keeping each
// fenced code block together as a single atomic block.
func splitBlocks(text string) []block {
	var blocks []block
	var current []string
	inCode := false

	flush := func(atomic bool) {
		if len(current) == 0 {
			return
		}
		joined := strings.TrimRight(strings.Join(current, "\n"), "\n")
		if strings.TrimSpace(joined) != "" {
			blocks = append(blocks, block{text: joined, atomic: atomic})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			if inCode {
				current = append(current, line)
				flush(true)
				inCode = false
			} else {
				flush(false)
				current = append(current, line)
				inCode = true
			}
		case inCode:
			current = append(current, line)
		case trimmed == "":
			flush(false)
		default:
			current = append(current, line)
		}
	}
	// An unterminated code fence is still kept whole.
	flush(inCode)

	return blocks
}

// packBlocks groups blocks into pieces no longer than maxSize, carrying up
// to overlapSize characters of trailing context from each piece into the
// next. An atomic block that alone exceeds maxSize becomes its own piece,
// flagged oversized. Plain prose blocks that exceed maxSize are hard-split
// on word boundaries so the size bound holds for text.
func packBlocks(blocks []block, maxSize, overlapSize int) []piece {
	var pieces []piece
	var cur strings.Builder
	curOverlap := false    // cur starts with carried overlap text
	curHasContent := false // cur contains more than the carried tail

	emit := func() {
		if !curHasContent {
			return
		}
		text := cur.String()
		pieces = append(pieces, piece{text: text, overlap: curOverlap})
		cur.Reset()
		curHasContent = false
		curOverlap = false
		if tail := tailContext(text, overlapSize); tail != "" {
			cur.WriteString(tail)
			curOverlap = true
		}
	}

	add := func(text string) {
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(text)
		curHasContent = true
	}

	for _, b := range blocks {
		if b.atomic && len(b.text) > maxSize {
			emit()
			cur.Reset()
			curOverlap = false
			pieces = append(pieces, piece{text: b.text, oversized: true})
			continue
		}

		parts := []string{b.text}
		if len(b.text) > maxSize {
			parts = hardSplit(b.text, maxSize-overlapSize-2)
		}

		for _, part := range parts {
			if curHasContent && cur.Len()+len(part)+2 > maxSize {
				emit()
			}
			// A carried tail that would push the next part over the cap is
			// dropped rather than violating the bound.
			if !curHasContent && cur.Len() > 0 && cur.Len()+len(part)+2 > maxSize {
				cur.Reset()
				curOverlap = false
			}
			add(part)
		}
	}
	emit()

	return pieces
}

// tailContext returns up to n trailing characters, trimmed forward to a
// word boundary so overlap never starts mid-word.
func tailContext(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if idx := strings.IndexAny(tail, " \n\t"); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}

// hardSplit cuts prose into parts of at most maxLen, preferring to break at
// the last space before the limit.
func hardSplit(text string, maxLen int) []string {
	if maxLen <= 0 {
		return []string{text}
	}

	var parts []string
	for len(text) > maxLen {
		cut := maxLen
		if idx := strings.LastIndexAny(text[:maxLen], " \n\t"); idx > maxLen/2 {
			cut = idx
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
