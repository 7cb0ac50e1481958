// Package l3tracks owns Layer 3 (Tracks) of the vision data model.
//
// Responsibilities: track lifecycle (creation, confirmation, ageing,
// removal), per-frame application of association results, and bounded
// trajectory history.
// Key types: Track, TrackTable.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
// No SQL/database code is allowed in this package.
package l3tracks
