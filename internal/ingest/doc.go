// Package ingest normalizes heterogeneous source content into the canonical
// ParsedContent records consumed by chunking.
//
// Two source shapes are supported:
//
//   - JSON API manifests following the namespaces -> classes/functions ->
//     methods schema, with description, signature, parameters, returns and
//     examples per entry.
//   - Long-form markdown documents with YAML front matter (language,
//     namespace, category, skillLevel, tags) and fenced code blocks.
//
// Normalization is deterministic and side-effect free. Structurally invalid
// items produce a NormalizationError naming the offending source file; the
// item is skipped and the error is aggregated into the run report so one bad
// entry never blocks the rest of a large corpus.
//
// Importance is assigned here with a fixed heuristic (constructors and
// connect/setup methods rank highest, getters and listers medium, deprecated
// or internal entries low) so downstream ranking can weight by importance
// consistently.
package ingest
