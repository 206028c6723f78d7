package search

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// cacheEntry holds one cached result set with its expiration time.
type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// queryCache is a TTL layer over an LRU cache. Entries are deep-copied on
// both sides so callers can mutate returned results freely.
type queryCache struct {
	mu  sync.Mutex
	lru *lru.Cache[[32]byte, *cacheEntry]
}

func newQueryCache(size int) *queryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		panic(fmt.Sprintf("query cache: %v", err))
	}
	return &queryCache{lru: cache}
}

func (c *queryCache) get(key [32]byte) ([]types.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return copyResults(entry.results), true
}

func (c *queryCache) put(key [32]byte, results []types.SearchResult, ttl time.Duration) {
	entry := &cacheEntry{
		results:   copyResults(results),
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Lock()
	c.lru.Add(key, entry)
	c.mu.Unlock()
}

func (c *queryCache) purge() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// copyResults deep-copies a result set. Tags is the only reference field in
// a SearchResult; everything else copies by value.
func copyResults(src []types.SearchResult) []types.SearchResult {
	dst := make([]types.SearchResult, len(src))
	copy(dst, src)
	for i := range dst {
		if len(src[i].Metadata.Tags) > 0 {
			dst[i].Metadata.Tags = append([]string(nil), src[i].Metadata.Tags...)
		}
	}
	return dst
}

// cacheKey hashes every input that affects ranking into a fixed-size key.
func cacheKey(query string, opts Options) [32]byte {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("|")
	b.WriteString(opts.Filters.Namespace)
	b.WriteString("|")
	b.WriteString(opts.Filters.Type)
	b.WriteString("|")
	b.WriteString(opts.Filters.Language)
	fmt.Fprintf(&b, "|%d|%.4f|%.4f", opts.Limit, opts.Weights.Lexical, opts.Weights.Semantic)
	return sha256.Sum256([]byte(b.String()))
}
