package search

import (
	"context"
	"strings"

	"github.com/mwhitfield/sdkdocs-mcp/internal/lexical"
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// SearchWithContext runs a normal search and augments each result with
// relationship-graph context: adjacent APIs, prerequisites, documented error
// patterns, and per-result quality scores. Without an enricher the results
// carry scores only.
func (r *Ranker) SearchWithContext(ctx context.Context, query string, opts Options) ([]types.EnhancedSearchResult, error) {
	results, err := r.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	terms := lexical.QueryTerms(query)
	enhanced := make([]types.EnhancedSearchResult, len(results))
	for i, res := range results {
		e := types.EnhancedSearchResult{SearchResult: res}

		if r.enricher != nil {
			key := res.Metadata.ParentID
			e.RelatedAPIs = r.enricher.GetRelated(key)
			e.Prerequisites = r.enricher.GetPrerequisites(key)
			e.ErrorPatterns = r.enricher.GetErrorPatterns(key)
		}

		e.ComplexityScore = complexityScore(res.Content, len(e.Prerequisites))
		e.ContextScore = contextScore(res.Content, terms)
		e.Completeness = completenessScore(res.Content, len(e.ErrorPatterns))
		enhanced[i] = e
	}
	return enhanced, nil
}

// complexityScore estimates how much setup a caller needs before using the
// documented API: longer content and more prerequisites score higher.
func complexityScore(content string, prereqCount int) float64 {
	score := float64(len(content)) / 4000
	score += 0.15 * float64(prereqCount)
	return clamp01(score)
}

// contextScore is the fraction of query terms appearing in the content.
func contextScore(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// completenessScore rewards documentation that goes beyond a bare
// description: worked examples and documented failure modes.
func completenessScore(content string, errorPatternCount int) float64 {
	score := 0.4
	if strings.Contains(content, "```") {
		score += 0.3
	}
	if errorPatternCount > 0 || strings.Contains(content, "| Parameter |") {
		score += 0.3
	}
	return clamp01(score)
}
