package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/presence.report/internal/vision/l1detect"
	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
	"github.com/banshee-data/presence.report/internal/vision/l4memory"
)

func testTrack(id int64) *l3tracks.Track {
	box := l1detect.Rect{X1: 10, Y1: 20, X2: 110, Y2: 120}
	return &l3tracks.Track{
		ID:         id,
		ClassName:  "person",
		Box:        box,
		Confidence: 0.87,
		Centroid:   box.Centroid(),
	}
}

func TestColorAssignmentIsDeterministic(t *testing.T) {
	o := NewOverlayer()

	c1 := o.colorFor(7)
	c2 := o.colorFor(9)
	assert.Equal(t, palette[0], c1, "first track observed takes the first palette entry")
	assert.Equal(t, palette[1], c2)
	assert.Equal(t, c1, o.colorFor(7), "colour is stable per track id")

	// A fresh overlayer replaying the same ids reproduces the same colours.
	replay := NewOverlayer()
	assert.Equal(t, c1, replay.colorFor(7))
	assert.Equal(t, c2, replay.colorFor(9))
}

func TestPaletteCycles(t *testing.T) {
	o := NewOverlayer()
	for i := 0; i < len(palette); i++ {
		o.colorFor(int64(i))
	}
	assert.Equal(t, palette[0], o.colorFor(int64(len(palette))))
}

func TestBuildOverlay(t *testing.T) {
	o := NewOverlayer()
	tr := testTrack(1)
	tr.Hits = 5

	rec := &l4memory.MemoryRecord{
		TrackID:      2,
		ClassName:    "backpack",
		LastBox:      l1detect.Rect{X1: 0, Y1: 0, X2: 50, Y2: 50},
		LastCentroid: l1detect.Point{X: 25, Y: 25},
	}
	fresh := &l4memory.MemoryRecord{
		TrackID:   1,
		ClassName: "person",
		LastBox:   tr.Box,
	}

	overlay := o.BuildOverlay(42, 123456, []*l3tracks.Track{tr}, []*l4memory.MemoryRecord{rec}, []*l4memory.MemoryRecord{fresh})

	assert.Equal(t, 42, overlay.FrameIndex)
	assert.Equal(t, int64(123456), overlay.TSUnixNanos)
	assert.Equal(t, 1, overlay.TotalObjects)
	assert.Equal(t, 1, overlay.TotalMissing)
	assert.Equal(t, 1, overlay.TotalNew)

	require.Len(t, overlay.Tracks, 1)
	assert.Equal(t, int64(1), overlay.Tracks[0].TrackID)
	assert.Equal(t, "1: person (0.87)", overlay.Tracks[0].Label)
	assert.Equal(t, [4]float64{10, 20, 110, 120}, overlay.Tracks[0].Box)

	require.Len(t, overlay.Missing, 1)
	assert.Equal(t, "Missing: backpack (ID: 2)", overlay.Missing[0].Label)
	assert.Equal(t, [2]float64{25, 25}, overlay.Missing[0].Centroid)
	assert.Equal(t, missingColor, overlay.Missing[0].Color, "unseen track falls back to the missing colour")

	require.Len(t, overlay.New, 1)
	assert.Equal(t, "NEW: person", overlay.New[0].Label)
	assert.Equal(t, overlay.Tracks[0].Color, overlay.New[0].Color, "new marker reuses the track's colour")
}

func TestTrajectoryIncludedWhenLongEnough(t *testing.T) {
	o := NewOverlayer()
	tr := testTrack(1)

	overlay := o.BuildOverlay(0, 0, []*l3tracks.Track{tr}, nil, nil)
	assert.Empty(t, overlay.Tracks[0].Trajectory, "single-point trajectories are omitted")

	tr.Trajectory = []l3tracks.TrackPoint{{X: 1, Y: 2}, {X: 3, Y: 4}}
	overlay = o.BuildOverlay(1, 0, []*l3tracks.Track{tr}, nil, nil)
	assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, overlay.Tracks[0].Trajectory)
}
