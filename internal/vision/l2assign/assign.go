package l2assign

import (
	"github.com/banshee-data/presence.report/internal/vision/l1detect"
)

// Match pairs a track index with a detection index, with the IoU that
// produced the pairing.
type Match struct {
	TrackIndex     int
	DetectionIndex int
	IoU            float64
}

// Matching is the result of one frame's track-to-detection association.
// Index sets are disjoint: each track index and each detection index appears
// in exactly one of the three groups.
type Matching struct {
	Matches            []Match
	UnmatchedTracks    []int
	UnmatchedDetections []int
}

// IoUMatrix computes the full M×N IoU matrix between track boxes and
// detection boxes. Returns nil when either dimension is zero so callers pay
// no computation cost for empty frames.
func IoUMatrix(trackBoxes []l1detect.Rect, detections []l1detect.Detection) [][]float64 {
	if len(trackBoxes) == 0 || len(detections) == 0 {
		return nil
	}
	matrix := make([][]float64, len(trackBoxes))
	for i, tb := range trackBoxes {
		row := make([]float64, len(detections))
		for j, d := range detections {
			row[j] = tb.IoU(d.Box)
		}
		matrix[i] = row
	}
	return matrix
}

// Assign solves the optimal track-to-detection matching for one frame.
//
// The solver maximises total IoU (min-cost assignment over negated IoU) and
// the acceptance threshold is applied only after the optimal solve: pairs
// the solver chose whose IoU falls below iouThreshold are rejected into the
// unmatched sets. Rejecting before solving would bias the optimum toward a
// worse global pairing.
//
// Pure function: no mutation of tracks or detections.
func Assign(trackBoxes []l1detect.Rect, detections []l1detect.Detection, iouThreshold float64) Matching {
	m := len(trackBoxes)
	n := len(detections)

	// Degenerate frames: nothing to solve, everything is unmatched.
	if m == 0 || n == 0 {
		result := Matching{}
		for i := 0; i < m; i++ {
			result.UnmatchedTracks = append(result.UnmatchedTracks, i)
		}
		for j := 0; j < n; j++ {
			result.UnmatchedDetections = append(result.UnmatchedDetections, j)
		}
		return result
	}

	iou := IoUMatrix(trackBoxes, detections)

	cost := make([][]float64, m)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			cost[i][j] = -iou[i][j]
		}
	}

	assignment := hungarianAssign(cost)

	result := Matching{}
	matchedDetections := make([]bool, n)
	for trackIdx, detIdx := range assignment {
		// A row can be unassigned outright when M > N; a solved pair below
		// the threshold is rejected here, after the optimal solve.
		if detIdx >= 0 && iou[trackIdx][detIdx] >= iouThreshold {
			result.Matches = append(result.Matches, Match{
				TrackIndex:     trackIdx,
				DetectionIndex: detIdx,
				IoU:            iou[trackIdx][detIdx],
			})
			matchedDetections[detIdx] = true
		} else {
			result.UnmatchedTracks = append(result.UnmatchedTracks, trackIdx)
		}
	}

	// Detections outside the solved permutation (N > M) and detections whose
	// solved pairing was rejected are both unmatched.
	for j := 0; j < n; j++ {
		if !matchedDetections[j] {
			result.UnmatchedDetections = append(result.UnmatchedDetections, j)
		}
	}

	return result
}
