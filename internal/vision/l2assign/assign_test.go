package l2assign

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/presence.report/internal/vision/l1detect"
)

func det(x1, y1, x2, y2 float64) l1detect.Detection {
	return l1detect.Detection{Box: l1detect.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}, Confidence: 0.9}
}

func TestAssignEmptyInputs(t *testing.T) {
	t.Parallel()
	t.Run("no tracks", func(t *testing.T) {
		m := Assign(nil, []l1detect.Detection{det(0, 0, 10, 10)}, 0.3)
		assert.Empty(t, m.Matches)
		assert.Empty(t, m.UnmatchedTracks)
		assert.Equal(t, []int{0}, m.UnmatchedDetections)
	})

	t.Run("no detections", func(t *testing.T) {
		m := Assign([]l1detect.Rect{{X2: 10, Y2: 10}}, nil, 0.3)
		assert.Empty(t, m.Matches)
		assert.Equal(t, []int{0}, m.UnmatchedTracks)
		assert.Empty(t, m.UnmatchedDetections)
	})

	t.Run("both empty", func(t *testing.T) {
		m := Assign(nil, nil, 0.3)
		assert.Empty(t, m.Matches)
		assert.Empty(t, m.UnmatchedTracks)
		assert.Empty(t, m.UnmatchedDetections)
	})
}

func TestAssignIdentityMatch(t *testing.T) {
	t.Parallel()
	tracks := []l1detect.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 100, Y1: 100, X2: 120, Y2: 120},
	}
	dets := []l1detect.Detection{
		det(100, 100, 120, 120),
		det(0, 0, 10, 10),
	}

	m := Assign(tracks, dets, 0.3)
	require.Len(t, m.Matches, 2)
	assert.Empty(t, m.UnmatchedTracks)
	assert.Empty(t, m.UnmatchedDetections)

	byTrack := map[int]Match{}
	for _, match := range m.Matches {
		byTrack[match.TrackIndex] = match
	}
	assert.Equal(t, 1, byTrack[0].DetectionIndex)
	assert.Equal(t, 0, byTrack[1].DetectionIndex)
	assert.InDelta(t, 1.0, byTrack[0].IoU, 1e-12)
}

func TestAssignThresholdAppliedAfterSolve(t *testing.T) {
	// Track 1's optimal pairing has IoU ≈ 0.02: the solver still selects it,
	// then the threshold rejects the pair into both unmatched sets.
	tracks := []l1detect.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 100, Y1: 100, X2: 110, Y2: 110},
	}
	dets := []l1detect.Detection{
		det(1, 0, 11, 10),
		det(108, 108, 118, 118),
	}

	m := Assign(tracks, dets, 0.3)
	require.Len(t, m.Matches, 1)

	want := Matching{
		Matches:            []Match{{TrackIndex: 0, DetectionIndex: 0, IoU: m.Matches[0].IoU}},
		UnmatchedTracks:    []int{1},
		UnmatchedDetections: []int{1},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("matching mismatch (-want +got):\n%s", diff)
	}
	assert.Greater(t, m.Matches[0].IoU, 0.3)
}

func TestAssignMoreDetectionsThanTracks(t *testing.T) {
	tracks := []l1detect.Rect{{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	dets := []l1detect.Detection{
		det(200, 200, 210, 210),
		det(1, 1, 11, 11),
		det(300, 300, 310, 310),
	}

	m := Assign(tracks, dets, 0.3)
	require.Len(t, m.Matches, 1)
	assert.Equal(t, 0, m.Matches[0].TrackIndex)
	assert.Equal(t, 1, m.Matches[0].DetectionIndex)
	assert.Empty(t, m.UnmatchedTracks)
	assert.Equal(t, []int{0, 2}, m.UnmatchedDetections)
}

func TestAssignMoreTracksThanDetections(t *testing.T) {
	tracks := []l1detect.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 50, Y1: 50, X2: 60, Y2: 60},
		{X1: 100, Y1: 100, X2: 110, Y2: 110},
	}
	dets := []l1detect.Detection{det(50, 50, 60, 60)}

	m := Assign(tracks, dets, 0.3)
	require.Len(t, m.Matches, 1)
	assert.Equal(t, 1, m.Matches[0].TrackIndex)
	assert.ElementsMatch(t, []int{0, 2}, m.UnmatchedTracks)
	assert.Empty(t, m.UnmatchedDetections)
}

func TestAssignGloballyOptimalOverGreedy(t *testing.T) {
	// Both detections overlap both tracks; the solve must pick the pairing
	// with the higher total IoU, not a locally tempting one.
	tracks := []l1detect.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 4, Y1: 0, X2: 14, Y2: 10},
	}
	dets := []l1detect.Detection{
		det(2, 0, 12, 10),
		det(5, 0, 15, 10),
	}

	m := Assign(tracks, dets, 0.1)
	require.Len(t, m.Matches, 2)

	byTrack := map[int]int{}
	for _, match := range m.Matches {
		byTrack[match.TrackIndex] = match.DetectionIndex
	}
	assert.Equal(t, 0, byTrack[0])
	assert.Equal(t, 1, byTrack[1])
}

func TestIoUMatrix(t *testing.T) {
	assert.Nil(t, IoUMatrix(nil, []l1detect.Detection{det(0, 0, 1, 1)}))
	assert.Nil(t, IoUMatrix([]l1detect.Rect{{X2: 1, Y2: 1}}, nil))

	matrix := IoUMatrix(
		[]l1detect.Rect{{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		[]l1detect.Detection{det(0, 0, 10, 10), det(50, 50, 60, 60)},
	)
	require.Len(t, matrix, 1)
	require.Len(t, matrix[0], 2)
	assert.InDelta(t, 1.0, matrix[0][0], 1e-12)
	assert.Equal(t, 0.0, matrix[0][1])
}
