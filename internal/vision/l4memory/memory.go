package l4memory

import (
	"sort"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/vision/l1detect"
	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
)

// RecordStatus represents the presence status of a memory record.
type RecordStatus string

const (
	StatusPresent RecordStatus = "present" // Seen in the current frame
	StatusMissing RecordStatus = "missing" // Significant object gone for several frames
)

// Internal lifecycle constants — not user-tunable.
const (
	// MissingAfterConsecutive is the consecutive-absence count at which a
	// significant record flips to Missing.
	MissingAfterConsecutive = 5
	// SignificanceMaturityFrames is the frame count at which the maturity
	// factor of the significance score saturates at 1.
	SignificanceMaturityFrames = 10
	// NewObjectFrameWindow is the frame-count window during which a
	// significant record is reported as newly appeared.
	NewObjectFrameWindow = 10
)

// LedgerConfig holds configuration parameters for the memory ledger.
type LedgerConfig struct {
	MemoryFrames             int     // Presence-history capacity (FIFO)
	MinConfidence            float64 // Confidence gate for record creation
	SignificanceThreshold    float64 // Score above which a record is significant
	MinSignificantFrameCount int     // Minimum presence updates before significance
	MinObjectArea            float64 // px² below which the size score scales down
	MaxObjectArea            float64 // px² above which the size score decays (floor 0.5)
}

// DefaultLedgerConfig returns ledger configuration loaded from the canonical
// tuning defaults file. Panics if the file cannot be found — intended for
// tests and binaries that have already validated config availability.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfigFromTuning(config.MustLoadDefaultConfig())
}

// LedgerConfigFromTuning builds a LedgerConfig from a loaded TuningConfig.
// The size-score ceiling is half the configured frame area.
func LedgerConfigFromTuning(cfg *config.TuningConfig) LedgerConfig {
	return LedgerConfig{
		MemoryFrames:             cfg.GetMemoryFrames(),
		MinConfidence:            cfg.GetMinConfidenceForMemory(),
		SignificanceThreshold:    cfg.GetSignificanceThreshold(),
		MinSignificantFrameCount: cfg.GetMinSignificantFrameCount(),
		MinObjectArea:            cfg.GetMinObjectArea(),
		MaxObjectArea:            float64(cfg.GetFrameWidth()) * float64(cfg.GetFrameHeight()) / 2,
	}
}

// MemoryRecord is the temporal memory of one tracked identity. One record
// exists per track id that passed the confidence gate and has not expired.
type MemoryRecord struct {
	TrackID   int64
	ClassID   int
	ClassName string

	// Snapshots. The First* fields are frozen at creation.
	FirstBox       l1detect.Rect
	LastBox        l1detect.Rect
	FirstCentroid  l1detect.Point
	LastCentroid   l1detect.Point
	LastConfidence float64

	// PresenceHistory is a bounded FIFO of per-frame presence flags
	// (1 = present, 0 = absent). Capacity is LedgerConfig.MemoryFrames.
	PresenceHistory []uint8

	ConsecutiveMissing int
	Status             RecordStatus

	// SignificanceScore is presence_rate × maturity × size_score, in [0,1].
	SignificanceScore float64
	Significant       bool

	// FrameCount is the total number of presence updates received.
	FrameCount int
}

// newRecord creates a memory record from a freshly observed track.
func newRecord(t *l3tracks.Track) *MemoryRecord {
	return &MemoryRecord{
		TrackID:            t.ID,
		ClassID:            t.ClassID,
		ClassName:          t.ClassName,
		FirstBox:           t.Box,
		LastBox:            t.Box,
		FirstCentroid:      t.Centroid,
		LastCentroid:       t.Centroid,
		LastConfidence:     t.Confidence,
		PresenceHistory:    []uint8{1},
		ConsecutiveMissing: 0,
		Status:             StatusPresent,
		FrameCount:         1,
	}
}

// recordPresence applies a frame in which the identity's track is live.
func (r *MemoryRecord) recordPresence(t *l3tracks.Track, cfg LedgerConfig) {
	r.LastBox = t.Box
	r.LastCentroid = t.Centroid
	r.LastConfidence = t.Confidence
	r.PresenceHistory = append(r.PresenceHistory, 1)
	r.ConsecutiveMissing = 0
	r.Status = StatusPresent
	r.FrameCount++
	r.recompute(cfg)
}

// recordAbsence applies a frame in which the identity's track is gone.
func (r *MemoryRecord) recordAbsence(cfg LedgerConfig) {
	r.PresenceHistory = append(r.PresenceHistory, 0)
	r.ConsecutiveMissing++
	if r.ConsecutiveMissing >= MissingAfterConsecutive && r.Significant {
		r.Status = StatusMissing
	}
	r.recompute(cfg)
}

// recompute trims the presence history to capacity and refreshes the
// significance score. An object is significant when it has appeared
// consistently, for enough frames, at a plausible size — a three-way gate
// that damps single-frame detector flicker without a smoothing stage.
func (r *MemoryRecord) recompute(cfg LedgerConfig) {
	if len(r.PresenceHistory) > cfg.MemoryFrames {
		r.PresenceHistory = r.PresenceHistory[len(r.PresenceHistory)-cfg.MemoryFrames:]
	}

	present := 0
	for _, p := range r.PresenceHistory {
		if p == 1 {
			present++
		}
	}
	presenceRate := float64(present) / float64(len(r.PresenceHistory))

	maturity := float64(r.FrameCount) / SignificanceMaturityFrames
	if maturity > 1 {
		maturity = 1
	}

	r.SignificanceScore = presenceRate * maturity * r.sizeScore(cfg)
	r.Significant = r.SignificanceScore > cfg.SignificanceThreshold &&
		r.FrameCount >= cfg.MinSignificantFrameCount
}

// sizeScore maps the last bbox area to [0, 1]: linear ramp below the minimum
// area, 1.0 in the plausible band, linear decay above the maximum with a
// floor of 0.5.
func (r *MemoryRecord) sizeScore(cfg LedgerConfig) float64 {
	area := r.LastBox.Area()
	switch {
	case area < cfg.MinObjectArea:
		return area / cfg.MinObjectArea
	case area > cfg.MaxObjectArea:
		score := 1.0 - (area-cfg.MaxObjectArea)/cfg.MaxObjectArea
		if score < 0.5 {
			return 0.5
		}
		return score
	default:
		return 1.0
	}
}

// Ledger observes the track table's output over time and derives missing and
// newly-appeared object events. Owned by a single pipeline goroutine.
type Ledger struct {
	Config LedgerConfig

	records    map[int64]*MemoryRecord
	frameCount int

	// ExpiredThisFrame holds records dropped by the most recent Update,
	// for persistence and diagnostics. Replaced every frame.
	ExpiredThisFrame []*MemoryRecord
}

// NewLedger creates a memory ledger with the given configuration.
func NewLedger(cfg LedgerConfig) *Ledger {
	return &Ledger{
		Config:  cfg,
		records: make(map[int64]*MemoryRecord),
	}
}

// Update processes one frame's live tracks, in lockstep with the track
// table, and returns the records classified missing and newly appeared.
// Both result slices are ordered by track id.
func (l *Ledger) Update(tracks []*l3tracks.Track) (missing, appeared []*MemoryRecord) {
	l.frameCount++

	current := make(map[int64]*l3tracks.Track, len(tracks))
	for _, t := range tracks {
		current[t.ID] = t
	}

	// Update existing records, present or absent.
	for id, rec := range l.records {
		if t, ok := current[id]; ok {
			rec.recordPresence(t, l.Config)
		} else {
			rec.recordAbsence(l.Config)
		}
	}

	// Create records for newly seen tracks passing the confidence gate.
	for id, t := range current {
		if _, ok := l.records[id]; ok {
			continue
		}
		if t.Confidence >= l.Config.MinConfidence {
			l.records[id] = newRecord(t)
		}
	}

	// Classify. A record is missing while its status says so; it is "new"
	// while present, significant, and still inside the early frame window.
	for id, rec := range l.records {
		if rec.Status == StatusMissing {
			missing = append(missing, rec)
		}
		if _, present := current[id]; present && rec.Significant && rec.FrameCount <= NewObjectFrameWindow {
			appeared = append(appeared, rec)
		}
	}

	// Expire records that have been absent longer than the memory window.
	var expired []*MemoryRecord
	for id, rec := range l.records {
		if rec.ConsecutiveMissing > l.Config.MemoryFrames {
			expired = append(expired, rec)
			delete(l.records, id)
		}
	}
	l.ExpiredThisFrame = expired

	sort.Slice(missing, func(i, j int) bool { return missing[i].TrackID < missing[j].TrackID })
	sort.Slice(appeared, func(i, j int) bool { return appeared[i].TrackID < appeared[j].TrackID })
	return missing, appeared
}

// Record returns the memory record for a track id, or nil if absent.
func (l *Ledger) Record(trackID int64) *MemoryRecord {
	return l.records[trackID]
}

// RecordCount returns the number of live memory records.
func (l *Ledger) RecordCount() int {
	return len(l.records)
}

// FrameCount returns the number of Update calls processed.
func (l *Ledger) FrameCount() int {
	return l.frameCount
}
