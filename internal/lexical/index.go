package lexical

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

const (
	// titleWeight multiplies term hits in a chunk title against hits in the
	// body. Identifier names carry far more signal than prose mentions.
	titleWeight = 3.0

	// minTermLength drops query noise words like "a", "to", "of".
	minTermLength = 3
)

// Filters constrain a search to matching facets. Empty fields are
// unconstrained; set fields combine with AND semantics.
type Filters struct {
	Namespace string
	Type      string
	Language  string
}

type entry struct {
	chunk        types.DocumentChunk
	lowerTitle   string
	lowerContent string
}

// Index is the in-memory lexical index over the current chunk set. It is
// rebuilt wholesale on every indexing run and safe for concurrent reads.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]int)}
}

// Build replaces the indexed chunk set. There is no incremental update
// path; the pipeline always rebuilds from the full chunk set.
func (idx *Index) Build(chunks []types.DocumentChunk) {
	entries := make([]entry, 0, len(chunks))
	byID := make(map[string]int, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = len(entries)
		entries = append(entries, entry{
			chunk:        c,
			lowerTitle:   strings.ToLower(c.Title),
			lowerContent: strings.ToLower(c.Content),
		})
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.byID = byID
	idx.mu.Unlock()
}

// Get returns the indexed chunk with the given ID.
func (idx *Index) Get(id string) (types.DocumentChunk, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	i, ok := idx.byID[id]
	if !ok {
		return types.DocumentChunk{}, false
	}
	return idx.entries[i].chunk, true
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search scores chunks by weighted term frequency: whole-word hits in the
// body plus title hits at titleWeight. Ties break on importance, then on
// shorter content, then on chunk ID so ordering is deterministic.
func (idx *Index) Search(query string, filters Filters, limit int) []types.LexicalResult {
	terms := QueryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	matchers := make([]*termMatcher, len(terms))
	for i, t := range terms {
		matchers[i] = newTermMatcher(t)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scored := make(map[int]float64)
	for i := range idx.entries {
		e := &idx.entries[i]
		if !matchesFilters(&e.chunk, filters) {
			continue
		}
		var score float64
		for _, m := range matchers {
			score += float64(m.count(e.lowerContent))
			score += titleWeight * float64(m.count(e.lowerTitle))
		}
		if score > 0 {
			scored[i] = score
		}
	}

	return idx.collect(scored, limit)
}

// SubstringScan is the last-resort retrieval floor: it matches the whole
// query as a raw substring of title or body. The ranker falls back to it
// when term scoring and the vector path both come up empty, so multi-word
// literals like "create thread" still surface something.
func (idx *Index) SubstringScan(query string, filters Filters, limit int) []types.LexicalResult {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scored := make(map[int]float64)
	for i := range idx.entries {
		e := &idx.entries[i]
		if !matchesFilters(&e.chunk, filters) {
			continue
		}
		switch {
		case strings.Contains(e.lowerTitle, needle):
			scored[i] = titleWeight
		case strings.Contains(e.lowerContent, needle):
			scored[i] = 1
		}
	}

	return idx.collect(scored, limit)
}

// collect sorts scored entry indexes into the final result order. Callers
// must hold at least a read lock.
func (idx *Index) collect(scored map[int]float64, limit int) []types.LexicalResult {
	order := make([]int, 0, len(scored))
	for i := range scored {
		order = append(order, i)
	}

	sort.Slice(order, func(a, b int) bool {
		ea, eb := &idx.entries[order[a]], &idx.entries[order[b]]
		sa, sb := scored[order[a]], scored[order[b]]
		if sa != sb {
			return sa > sb
		}
		ra, rb := ea.chunk.Metadata.Importance.Rank(), eb.chunk.Metadata.Importance.Rank()
		if ra != rb {
			return ra > rb
		}
		if len(ea.chunk.Content) != len(eb.chunk.Content) {
			return len(ea.chunk.Content) < len(eb.chunk.Content)
		}
		return ea.chunk.ID < eb.chunk.ID
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	results := make([]types.LexicalResult, 0, len(order))
	for _, i := range order {
		results = append(results, types.LexicalResult{
			ChunkID: idx.entries[i].chunk.ID,
			Score:   scored[i],
		})
	}
	return results
}

// QueryTerms lowercases and tokenizes a query, dropping terms shorter than
// minTermLength.
func QueryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if len(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// termMatcher counts occurrences of one query term. Plain identifiers match
// on word boundaries; terms carrying regex metacharacters (operator++,
// std::thread) fall back to substring counting because \b is undefined at
// non-word edges. A compile failure also degrades to substring counting
// rather than erroring the whole search.
type termMatcher struct {
	term string
	re   *regexp.Regexp
}

var wordTerm = regexp.MustCompile(`^[a-z0-9_]+$`)

func newTermMatcher(term string) *termMatcher {
	m := &termMatcher{term: term}
	if !wordTerm.MatchString(term) {
		return m
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return m
	}
	m.re = re
	return m
}

func (m *termMatcher) count(text string) int {
	if m.re != nil {
		return len(m.re.FindAllStringIndex(text, -1))
	}
	return strings.Count(text, m.term)
}

func matchesFilters(c *types.DocumentChunk, f Filters) bool {
	if f.Namespace != "" && !strings.EqualFold(c.Metadata.Namespace, f.Namespace) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(string(c.Metadata.Type), f.Type) {
		return false
	}
	if f.Language != "" && !strings.EqualFold(c.Metadata.Language, f.Language) {
		return false
	}
	return true
}
