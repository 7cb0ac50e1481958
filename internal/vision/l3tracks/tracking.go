package l3tracks

import (
	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/vision/l1detect"
	"github.com/banshee-data/presence.report/internal/vision/l2assign"
)

// TrackState represents the derived lifecycle state of a track.
type TrackState string

const (
	TrackTentative TrackState = "tentative" // New track, needs confirmation
	TrackConfirmed TrackState = "confirmed" // Stable track with sufficient history
	TrackDeleted   TrackState = "deleted"   // Track aged out of the table
)

// TableConfig holds configuration parameters for the track table.
type TableConfig struct {
	IoUThreshold        float64 // Minimum IoU for an accepted association
	MaxAge              int     // Consecutive misses before removal
	HitsToConfirm       int     // Hits needed for confirmation
	MaxTrajectoryPoints int     // Trajectory history cap (oldest dropped)
}

// DefaultTableConfig returns table configuration loaded from the canonical
// tuning defaults file (config/tuning.defaults.json). Panics if the file
// cannot be found — intended for tests and binaries that have already
// validated config availability.
func DefaultTableConfig() TableConfig {
	return TableConfigFromTuning(config.MustLoadDefaultConfig())
}

// TableConfigFromTuning builds a TableConfig from a loaded TuningConfig.
// Use this in production code where the TuningConfig is already loaded.
func TableConfigFromTuning(cfg *config.TuningConfig) TableConfig {
	return TableConfig{
		IoUThreshold:        cfg.GetIoUThreshold(),
		MaxAge:              cfg.GetMaxAge(),
		HitsToConfirm:       cfg.GetHitsToConfirm(),
		MaxTrajectoryPoints: cfg.GetMaxTrajectoryPoints(),
	}
}

// TrackPoint represents a single centroid in a track's trajectory.
type TrackPoint struct {
	X         float64
	Y         float64
	Timestamp int64 // Unix nanos
}

// Track is a persistent identity hypothesis correlating detections across
// frames. Owned exclusively by the TrackTable.
type Track struct {
	// Identity
	ID        int64
	ClassID   int
	ClassName string

	// Latest observation
	Box        l1detect.Rect
	Confidence float64
	Centroid   l1detect.Point

	// Lifecycle counters. Hits never decreases; Missed increments on every
	// unmatched frame and resets to 0 on any match.
	Age    int // Frames since creation that produced an update
	Hits   int // Successful matches (confirmation counter)
	Missed int // Consecutive frames with no match since the last match

	// Timestamps
	FirstUnixNanos int64
	LastUnixNanos  int64

	// Trajectory of centroids, one per frame the track was observed.
	// Bounded: oldest entries drop once the configured cap is reached.
	Trajectory []TrackPoint

	hitsToConfirm int
	maxAge        int
	trajCap       int
}

// IsConfirmed reports whether the track has accumulated enough hits. The
// transition is monotone: hits never decrease, so a confirmed track never
// regresses to tentative.
func (t *Track) IsConfirmed() bool {
	return t.Hits >= t.hitsToConfirm
}

// ShouldBeDeleted reports whether the track has been unmatched for at least
// max_age consecutive frames.
func (t *Track) ShouldBeDeleted() bool {
	return t.Missed >= t.maxAge
}

// State returns the derived lifecycle state for reporting and persistence.
func (t *Track) State() TrackState {
	switch {
	case t.ShouldBeDeleted():
		return TrackDeleted
	case t.IsConfirmed():
		return TrackConfirmed
	default:
		return TrackTentative
	}
}

// update applies a matched detection to the track.
func (t *Track) update(d l1detect.Detection, names l1detect.ClassNames, nowNanos int64) {
	t.Box = d.Box
	t.Confidence = d.Confidence
	t.ClassID = d.ClassID
	t.ClassName = names.Name(d.ClassID)
	t.Centroid = d.Box.Centroid()
	t.Age++
	t.Hits++
	t.Missed = 0
	t.LastUnixNanos = nowNanos

	t.Trajectory = append(t.Trajectory, TrackPoint{
		X:         t.Centroid.X,
		Y:         t.Centroid.Y,
		Timestamp: nowNanos,
	})
	if t.trajCap > 0 && len(t.Trajectory) > t.trajCap {
		t.Trajectory = t.Trajectory[1:]
	}
}

// markMissed records an unmatched frame.
func (t *Track) markMissed() {
	t.Missed++
}

// TrackTable owns the set of live tracks. It is owned by a single pipeline
// goroutine: exactly one Update call per frame, no concurrent use.
type TrackTable struct {
	Config     TableConfig
	ClassNames l1detect.ClassNames

	tracks []*Track
	nextID int64

	// RemovedThisFrame holds tracks aged out by the most recent Update,
	// for persistence and diagnostics. Replaced every frame.
	RemovedThisFrame []*Track
}

// NewTrackTable creates a track table with the given configuration and
// injected class-name mapping (nil is valid: ids render numerically).
func NewTrackTable(cfg TableConfig, names l1detect.ClassNames) *TrackTable {
	return &TrackTable{
		Config:     cfg,
		ClassNames: names,
		nextID:     1,
	}
}

// Update processes one frame's detections and returns the current live
// track list. Called exactly once per frame with the full detection list.
func (tt *TrackTable) Update(detections []l1detect.Detection, nowNanos int64) []*Track {
	// First-frame bootstrap: every detection spawns a new track.
	if len(tt.tracks) == 0 {
		for _, d := range detections {
			tt.initTrack(d, nowNanos)
		}
		tt.RemovedThisFrame = nil
		return tt.Tracks()
	}

	boxes := make([]l1detect.Rect, len(tt.tracks))
	for i, t := range tt.tracks {
		boxes[i] = t.Box
	}

	matching := l2assign.Assign(boxes, detections, tt.Config.IoUThreshold)

	for _, m := range matching.Matches {
		tt.tracks[m.TrackIndex].update(detections[m.DetectionIndex], tt.ClassNames, nowNanos)
	}
	for _, trackIdx := range matching.UnmatchedTracks {
		tt.tracks[trackIdx].markMissed()
	}
	for _, detIdx := range matching.UnmatchedDetections {
		tt.initTrack(detections[detIdx], nowNanos)
	}

	// Removal happens after all updates. Removal is permanent: ids are
	// never reused and a removed track never resurrects.
	live := tt.tracks[:0]
	var removed []*Track
	for _, t := range tt.tracks {
		if t.ShouldBeDeleted() {
			removed = append(removed, t)
			continue
		}
		live = append(live, t)
	}
	tt.tracks = live
	tt.RemovedThisFrame = removed

	return tt.Tracks()
}

// initTrack creates a new track from an unmatched detection.
func (tt *TrackTable) initTrack(d l1detect.Detection, nowNanos int64) *Track {
	centroid := d.Box.Centroid()
	track := &Track{
		ID:             tt.nextID,
		ClassID:        d.ClassID,
		ClassName:      tt.ClassNames.Name(d.ClassID),
		Box:            d.Box,
		Confidence:     d.Confidence,
		Centroid:       centroid,
		Age:            0,
		Hits:           1,
		Missed:         0,
		FirstUnixNanos: nowNanos,
		LastUnixNanos:  nowNanos,
		Trajectory: []TrackPoint{{
			X:         centroid.X,
			Y:         centroid.Y,
			Timestamp: nowNanos,
		}},
		hitsToConfirm: tt.Config.HitsToConfirm,
		maxAge:        tt.Config.MaxAge,
		trajCap:       tt.Config.MaxTrajectoryPoints,
	}
	tt.nextID++
	tt.tracks = append(tt.tracks, track)
	return track
}

// Tracks returns the live tracks in creation order. The slice is a copy;
// the Track pointers are shared with the table.
func (tt *TrackTable) Tracks() []*Track {
	out := make([]*Track, len(tt.tracks))
	copy(out, tt.tracks)
	return out
}

// TrackCount returns counts of live tracks by derived state.
func (tt *TrackTable) TrackCount() (total, tentative, confirmed int) {
	for _, t := range tt.tracks {
		total++
		if t.IsConfirmed() {
			confirmed++
		} else {
			tentative++
		}
	}
	return
}

// NextID returns the id the next created track will receive.
func (tt *TrackTable) NextID() int64 {
	return tt.nextID
}
