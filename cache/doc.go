// Package cache provides an in-memory block cache for byte sources.
//
// Reading signal cells from a remote container issues many small range
// requests, often to nearby offsets. Wrapping the source in a BlockCache
// turns those into a smaller number of fixed-size block fetches that are
// shared across readers of the same source.
package cache
