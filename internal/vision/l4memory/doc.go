// Package l4memory owns Layer 4 (Memory) of the vision data model.
//
// Responsibilities: per-identity presence history, significance
// scoring, and derivation of "object went missing" and "object newly
// appeared" events from the track table's per-frame output.
// Key types: MemoryRecord, Ledger.
//
// Dependency rule: L4 may depend on L1-L3, but never on pipeline or
// storage packages. No SQL/database code is allowed in this package.
package l4memory
