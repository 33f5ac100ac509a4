// Package indexer maintains a live token-to-file inverted index over a
// user-chosen set of files and directories.
//
// Callers register paths with [Indexer.AddPath]; the index answers
// [Indexer.Search] queries in expected O(1) plus output size and is kept
// consistent with the filesystem in the background: modifications trigger
// re-indexing, deletions remove entries, creations add them, and
// registrations of not-yet-existing paths are honored as soon as the path
// materializes, even after arbitrary intermediate ancestors are created.
//
// The index is in-memory only and rebuilt per process. Search is membership
// only; ranking, phrase queries, and language analysis are out of scope (the
// pluggable tokenizer decides what a token is).
package indexer
