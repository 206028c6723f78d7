// Package lexical implements the keyword side of hybrid retrieval: a small
// in-memory index scoring chunks by weighted whole-word term frequency,
// with metadata facet filters and a raw substring scan as the retrieval
// floor. Scores are unnormalized frequencies; the hybrid ranker normalizes
// before blending them with vector similarities.
package lexical
