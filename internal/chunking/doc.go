// Package chunking converts normalized content into bounded,
// overlap-controlled retrieval units.
//
// Four interchangeable strategies are registered by default:
//
//   - method-level: one chunk per method or function, sliced on paragraph
//     boundaries only when the body exceeds the cap.
//   - context-aware: groups a class with its methods into a shared chunk
//     while the combined size stays under the cap.
//   - hierarchical: heading structure (H1-H3) forms chunk boundaries.
//   - hybrid: hierarchical for structured documents, method-level
//     otherwise. This is the production default.
//
// The Manager owns everything around the strategies: selection by name
// (unknown names fail fast with ErrUnknownStrategy), optional content
// enhancement, the merge/re-split optimization pass, deterministic chunk-ID
// assignment, and post-hoc validation. IDs are derived from source identity
// and position so re-running over unchanged input yields the identical ID
// set, which is what incremental re-indexing diffs against.
//
// An atomic unit that alone exceeds the cap (a fenced code block) is never
// split mid-block; it becomes one chunk flagged Oversized and surfaces as a
// validation warning, not an error.
package chunking
