// Package relationship derives a prerequisite/co-occurrence graph over API
// methods from normalized documentation.
//
// Two signals feed prerequisite edges: explicitly documented ordering
// ("call setup() first") parsed from descriptions, and a resource
// convention heuristic where a method consuming a connection, session or
// similar resource depends on the initializer-style methods that produce
// it. Example code snippets contribute co-occurrence patterns and usage
// counts.
//
// Everything here is best-effort enrichment. The graph promises plausible
// suggestions, not ground truth, and callers treat empty answers as normal.
package relationship
