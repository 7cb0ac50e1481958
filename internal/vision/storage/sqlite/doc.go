// Package sqlite persists tracking output: track summaries, per-frame
// track observations, and memory ledger events (missing / new / expired).
//
// It is an adapter, not a domain layer: the l1-l4 packages never import
// it. All rows are scoped by a run id so multiple sessions can share one
// database file.
package sqlite
