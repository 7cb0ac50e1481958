// Package l1detect owns Layer 1 (Detections) of the vision data model.
//
// Responsibilities: detection geometry (axis-aligned boxes, IoU),
// boundary validation of detector output, class-id to class-name
// mapping, and decoding of per-frame detection batches from an NDJSON
// stream.
// Key types: Rect, Detection, FrameDetections.
//
// Dependency rule: L1 depends on nothing above it.
// No SQL/database code is allowed in this package.
package l1detect
