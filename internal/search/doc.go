// Package search blends lexical and semantic retrieval into one ranked
// result list.
//
// Both paths run concurrently per query, oversampled past the requested
// limit. Lexical scores are max-normalized into [0,1], semantic scores
// arrive normalized, and the two are combined under caller-supplied weights
// that are clamped and renormalized to sum to 1. A failing or absent vector
// path degrades the blend to lexical-only; an empty union falls back to a
// raw substring scan so any literal match in the corpus still surfaces.
//
// Results are cached in a TTL-bounded LRU keyed by the full query shape and
// purged on re-index. SearchWithContext layers relationship-graph context
// (related APIs, prerequisites, error patterns) onto the ranked results.
package search
