// Package pipeline drives the index-then-query lifecycle: discover corpus
// files, normalize them concurrently, chunk, persist, refresh vector
// records, and publish an immutable query snapshot.
//
// A rebuild never disturbs queries in flight: the new lexical index,
// relationship graph and ranker are built completely, then swapped in with
// one atomic pointer store. Concurrent IndexCorpus calls for the same path
// collapse into a single run via singleflight.
package pipeline
