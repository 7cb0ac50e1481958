// Package render builds the annotation overlay for each processed frame.
// It is read-only over tracking output: drawing primitives are produced
// here and composited (or serialised) by the output sink. Per-track colour
// state is owned by this package, keyed by track id, populated on first
// observation — it is not part of the tracking core's state.
package render

import (
	"fmt"

	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
	"github.com/banshee-data/presence.report/internal/vision/l4memory"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// palette is a fixed set of visually distinct track colours. Assignment
// cycles deterministically so replays produce identical overlays.
var palette = []Color{
	{230, 25, 75}, {60, 180, 75}, {255, 225, 25}, {0, 130, 200},
	{245, 130, 48}, {145, 30, 180}, {70, 240, 240}, {240, 50, 230},
	{210, 245, 60}, {250, 190, 190}, {0, 128, 128}, {170, 110, 40},
}

var (
	missingColor = Color{R: 255} // Red fallback for missing markers
	newColor     = Color{G: 255} // Green fallback for new-object boxes
)

// TrackBox is one annotated bounding box.
type TrackBox struct {
	TrackID    int64        `json:"track_id"`
	Label      string       `json:"label"`
	Box        [4]float64   `json:"box"`
	Color      Color        `json:"color"`
	Confirmed  bool         `json:"confirmed"`
	Trajectory [][2]float64 `json:"trajectory,omitempty"`
}

// MissingMarker marks the last known position of a missing object.
type MissingMarker struct {
	TrackID  int64      `json:"track_id"`
	Label    string     `json:"label"`
	Centroid [2]float64 `json:"centroid"`
	Color    Color      `json:"color"`
}

// NewMarker highlights a newly confirmed object.
type NewMarker struct {
	TrackID int64      `json:"track_id"`
	Label   string     `json:"label"`
	Box     [4]float64 `json:"box"`
	Color   Color      `json:"color"`
}

// FrameOverlay is the full annotation set for one frame, plus the status
// totals shown in the corner panel.
type FrameOverlay struct {
	FrameIndex   int             `json:"frame_index"`
	TSUnixNanos  int64           `json:"ts_unix_nanos"`
	Tracks       []TrackBox      `json:"tracks"`
	Missing      []MissingMarker `json:"missing"`
	New          []NewMarker     `json:"new"`
	TotalObjects int             `json:"total_objects"`
	TotalMissing int             `json:"total_missing"`
	TotalNew     int             `json:"total_new"`
}

// Overlayer turns per-frame tracking output into a FrameOverlay.
type Overlayer struct {
	colors map[int64]Color
	next   int
}

// NewOverlayer creates an Overlayer with an empty colour map.
func NewOverlayer() *Overlayer {
	return &Overlayer{colors: make(map[int64]Color)}
}

// colorFor returns the colour for a track id, assigning the next palette
// entry on first observation.
func (o *Overlayer) colorFor(trackID int64) Color {
	if c, ok := o.colors[trackID]; ok {
		return c
	}
	c := palette[o.next%len(palette)]
	o.next++
	o.colors[trackID] = c
	return c
}

// BuildOverlay assembles the annotation overlay for one frame.
func (o *Overlayer) BuildOverlay(frameIndex int, tsNanos int64, tracks []*l3tracks.Track, missing, appeared []*l4memory.MemoryRecord) FrameOverlay {
	overlay := FrameOverlay{
		FrameIndex:   frameIndex,
		TSUnixNanos:  tsNanos,
		TotalObjects: len(tracks),
		TotalMissing: len(missing),
		TotalNew:     len(appeared),
	}

	for _, t := range tracks {
		box := TrackBox{
			TrackID:   t.ID,
			Label:     fmt.Sprintf("%d: %s (%.2f)", t.ID, t.ClassName, t.Confidence),
			Box:       [4]float64{t.Box.X1, t.Box.Y1, t.Box.X2, t.Box.Y2},
			Color:     o.colorFor(t.ID),
			Confirmed: t.IsConfirmed(),
		}
		if len(t.Trajectory) > 1 {
			box.Trajectory = make([][2]float64, len(t.Trajectory))
			for i, p := range t.Trajectory {
				box.Trajectory[i] = [2]float64{p.X, p.Y}
			}
		}
		overlay.Tracks = append(overlay.Tracks, box)
	}

	for _, rec := range missing {
		color := missingColor
		if c, ok := o.colors[rec.TrackID]; ok {
			color = c
		}
		overlay.Missing = append(overlay.Missing, MissingMarker{
			TrackID:  rec.TrackID,
			Label:    fmt.Sprintf("Missing: %s (ID: %d)", rec.ClassName, rec.TrackID),
			Centroid: [2]float64{rec.LastCentroid.X, rec.LastCentroid.Y},
			Color:    color,
		})
	}

	for _, rec := range appeared {
		color := newColor
		if c, ok := o.colors[rec.TrackID]; ok {
			color = c
		}
		overlay.New = append(overlay.New, NewMarker{
			TrackID: rec.TrackID,
			Label:   fmt.Sprintf("NEW: %s", rec.ClassName),
			Box:     [4]float64{rec.LastBox.X1, rec.LastBox.Y1, rec.LastBox.X2, rec.LastBox.Y2},
			Color:   color,
		})
	}

	return overlay
}
