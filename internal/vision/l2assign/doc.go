// Package l2assign owns Layer 2 (Association) of the vision data model.
//
// Responsibilities: building the track-to-detection IoU matrix and
// solving the optimal bipartite assignment with the Hungarian
// algorithm, then applying the IoU acceptance threshold.
// Key types: Matching, Match.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
// No SQL/database code is allowed in this package.
package l2assign
