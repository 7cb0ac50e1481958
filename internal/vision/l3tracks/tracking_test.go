package l3tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/presence.report/internal/vision/l1detect"
)

func testConfig() TableConfig {
	return TableConfig{
		IoUThreshold:        0.3,
		MaxAge:              3,
		HitsToConfirm:       3,
		MaxTrajectoryPoints: 5,
	}
}

func det(x1, y1, x2, y2, conf float64, classID int) l1detect.Detection {
	return l1detect.Detection{
		Box:        l1detect.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2},
		Confidence: conf,
		ClassID:    classID,
	}
}

func TestBootstrapFrame(t *testing.T) {
	tt := NewTrackTable(testConfig(), l1detect.ClassNames{0: "person", 2: "car"})

	tracks := tt.Update([]l1detect.Detection{
		det(0, 0, 10, 10, 0.9, 0),
		det(100, 100, 120, 130, 0.8, 2),
	}, 1000)

	require.Len(t, tracks, 2)
	assert.Equal(t, int64(1), tracks[0].ID, "ids start at 1")
	assert.Equal(t, int64(2), tracks[1].ID)
	assert.Equal(t, 1, tracks[0].Hits, "a new track counts its founding detection as a hit")
	assert.Equal(t, 0, tracks[0].Missed)
	assert.Equal(t, "person", tracks[0].ClassName)
	assert.Equal(t, "car", tracks[1].ClassName)
	assert.Equal(t, TrackTentative, tracks[0].State())
	assert.Equal(t, l1detect.Point{X: 5, Y: 5}, tracks[0].Centroid)
	assert.Equal(t, int64(1000), tracks[0].FirstUnixNanos)
}

func TestConfirmationAfterThreeHits(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	d := det(0, 0, 10, 10, 0.9, 0)
	tt.Update([]l1detect.Detection{d}, 1000)
	tt.Update([]l1detect.Detection{d}, 2000)
	tracks := tt.Update([]l1detect.Detection{d}, 3000)

	require.Len(t, tracks, 1)
	assert.Equal(t, 3, tracks[0].Hits)
	assert.True(t, tracks[0].IsConfirmed())
	assert.Equal(t, TrackConfirmed, tracks[0].State())
}

func TestConfirmationIsMonotone(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	d := det(0, 0, 10, 10, 0.9, 0)
	for i := 0; i < 3; i++ {
		tt.Update([]l1detect.Detection{d}, int64(1000*(i+1)))
	}

	// Two missed frames: hits never decrease, so confirmation holds.
	tt.Update(nil, 4000)
	tracks := tt.Update(nil, 5000)
	require.Len(t, tracks, 1)
	assert.Equal(t, 3, tracks[0].Hits)
	assert.Equal(t, 2, tracks[0].Missed)
	assert.True(t, tracks[0].IsConfirmed())
}

func TestMissedResetsOnMatch(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	d := det(0, 0, 10, 10, 0.9, 0)
	tt.Update([]l1detect.Detection{d}, 1000)
	tt.Update(nil, 2000)
	tt.Update(nil, 3000)
	tracks := tt.Update([]l1detect.Detection{d}, 4000)

	require.Len(t, tracks, 1)
	assert.Equal(t, 0, tracks[0].Missed)
	assert.Equal(t, 2, tracks[0].Hits, "hits accumulate across gaps")
}

func TestRemovalAtMaxAge(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	tt.Update([]l1detect.Detection{det(0, 0, 10, 10, 0.9, 0)}, 1000)

	// MaxAge is 3: two misses keep the track, the third removes it.
	tt.Update(nil, 2000)
	tracks := tt.Update(nil, 3000)
	require.Len(t, tracks, 1)
	assert.Empty(t, tt.RemovedThisFrame)

	tracks = tt.Update(nil, 4000)
	assert.Empty(t, tracks)
	require.Len(t, tt.RemovedThisFrame, 1)
	assert.Equal(t, int64(1), tt.RemovedThisFrame[0].ID)
	assert.Equal(t, TrackDeleted, tt.RemovedThisFrame[0].State())
}

func TestIDsNeverReused(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	d := det(0, 0, 10, 10, 0.9, 0)
	tt.Update([]l1detect.Detection{d}, 1000)
	for i := 0; i < 3; i++ {
		tt.Update(nil, int64(2000+1000*i))
	}
	total, _, _ := tt.TrackCount()
	require.Equal(t, 0, total)

	// Same position, but the old identity is gone for good.
	tracks := tt.Update([]l1detect.Detection{d}, 10000)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(2), tracks[0].ID)
}

func TestNewDetectionSpawnsTrackAlongsideMatch(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	tt.Update([]l1detect.Detection{det(0, 0, 10, 10, 0.9, 0)}, 1000)
	tracks := tt.Update([]l1detect.Detection{
		det(1, 0, 11, 10, 0.9, 0),
		det(500, 500, 520, 520, 0.7, 1),
	}, 2000)

	require.Len(t, tracks, 2)
	assert.Equal(t, int64(1), tracks[0].ID)
	assert.Equal(t, 2, tracks[0].Hits)
	assert.Equal(t, int64(2), tracks[1].ID)
	assert.Equal(t, 1, tracks[1].Hits)
}

func TestClassNameFollowsLatestDetection(t *testing.T) {
	tt := NewTrackTable(testConfig(), l1detect.ClassNames{0: "person", 1: "bicycle"})

	tt.Update([]l1detect.Detection{det(0, 0, 10, 10, 0.9, 0)}, 1000)
	tracks := tt.Update([]l1detect.Detection{det(0, 0, 10, 10, 0.9, 1)}, 2000)

	require.Len(t, tracks, 1)
	assert.Equal(t, 1, tracks[0].ClassID)
	assert.Equal(t, "bicycle", tracks[0].ClassName)
}

func TestTrajectoryBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAge = 100
	tt := NewTrackTable(cfg, nil)

	for i := 0; i < 10; i++ {
		x := float64(i)
		tt.Update([]l1detect.Detection{det(x, 0, x+10, 10, 0.9, 0)}, int64(1000*(i+1)))
	}

	tracks := tt.Tracks()
	require.Len(t, tracks, 1)
	require.Len(t, tracks[0].Trajectory, 5, "trajectory capped at MaxTrajectoryPoints")
	// Oldest entries dropped: the remaining points are the most recent five.
	assert.Equal(t, int64(6000), tracks[0].Trajectory[0].Timestamp)
	assert.Equal(t, int64(10000), tracks[0].Trajectory[4].Timestamp)
}

func TestCrossingObjectsKeepIdentities(t *testing.T) {
	tt := NewTrackTable(testConfig(), nil)

	// Two objects approach, overlap, then separate. The optimal assignment
	// keeps each id on its own box throughout.
	left := func(x float64) l1detect.Detection { return det(x, 0, x+10, 10, 0.9, 0) }
	right := func(x float64) l1detect.Detection { return det(x, 0, x+10, 10, 0.9, 0) }

	tt.Update([]l1detect.Detection{left(0), right(30)}, 1000)
	tt.Update([]l1detect.Detection{left(4), right(26)}, 2000)
	tracks := tt.Update([]l1detect.Detection{left(8), right(22)}, 3000)

	require.Len(t, tracks, 2)
	assert.Equal(t, int64(1), tracks[0].ID)
	assert.Equal(t, 8.0, tracks[0].Box.X1)
	assert.Equal(t, int64(2), tracks[1].ID)
	assert.Equal(t, 22.0, tracks[1].Box.X1)
}
