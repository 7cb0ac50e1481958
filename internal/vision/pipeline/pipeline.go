// Package pipeline wires the vision layers into a per-frame processing loop:
// detection intake, track association, memory classification, overlay
// rendering, persistence, and output. All layer state is owned by the single
// goroutine that calls ProcessFrame.
package pipeline

import (
	"context"
	"time"

	"github.com/banshee-data/presence.report/internal/vision/l1detect"
	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
	"github.com/banshee-data/presence.report/internal/vision/l4memory"
	"github.com/banshee-data/presence.report/internal/vision/render"
	"github.com/banshee-data/presence.report/internal/vision/report"
	"github.com/banshee-data/presence.report/internal/vision/sink"
	"github.com/banshee-data/presence.report/internal/vision/storage/sqlite"
)

// Config holds the dependencies for the frame processing loop. Tracks and
// Ledger are required; everything else is optional and skipped when nil.
type Config struct {
	Tracks *l3tracks.TrackTable
	Ledger *l4memory.Ledger

	// Overlay and output. When Sink is nil no overlays are built.
	Overlayer *render.Overlayer
	Sink      *sink.FrameSink

	// Persistence. When DB is nil nothing is stored.
	DB    *sqlite.DB
	RunID string

	// Session statistics. Optional.
	Collector *report.Collector
}

// Pipeline processes detection frames through tracking, memory, rendering,
// persistence and output.
type Pipeline struct {
	cfg Config

	framesProcessed   int
	detectionsDropped int

	// Event edge state: a memory event is persisted once per transition,
	// not once per frame the condition holds.
	missingNoted map[int64]struct{}
	newNoted     map[int64]struct{}
}

// New creates a pipeline from the given dependencies.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		missingNoted: make(map[int64]struct{}),
		newNoted:     make(map[int64]struct{}),
	}
}

// ProcessFrame runs one detection frame through every stage. Persistence
// failures are logged and do not interrupt the frame; tracking state always
// advances.
func (p *Pipeline) ProcessFrame(ctx context.Context, fd l1detect.FrameDetections) {
	start := time.Now()
	p.framesProcessed++

	valid, rejected := l1detect.FilterValid(fd.Detections)
	if rejected > 0 {
		p.detectionsDropped += rejected
		diagf("[Frame %d] Rejected %d malformed detections", fd.FrameIndex, rejected)
	}

	// The ledger runs in lockstep with the full live track list, so memory
	// records accumulate presence from a track's first frame, not from
	// confirmation.
	live := p.cfg.Tracks.Update(valid, fd.TSUnixNanos)
	missing, appeared := p.cfg.Ledger.Update(live)

	total, tentative, confirmed := p.cfg.Tracks.TrackCount()
	tracef("[Frame %d] detections=%d tracks=%d tentative=%d confirmed=%d missing=%d new=%d",
		fd.FrameIndex, len(valid), total, tentative, confirmed, len(missing), len(appeared))

	if p.cfg.DB != nil {
		p.persistFrame(ctx, fd, live, missing, appeared)
	}

	if p.cfg.Sink != nil && p.cfg.Overlayer != nil {
		overlay := p.cfg.Overlayer.BuildOverlay(fd.FrameIndex, fd.TSUnixNanos, live, missing, appeared)
		p.cfg.Sink.Write(overlay)
	}

	if p.cfg.Collector != nil {
		p.collectSample(fd, live, missing, appeared, time.Since(start))
	}
}

// persistFrame writes the frame's tracking output. Each failure is logged
// and the rest of the frame's writes still proceed.
func (p *Pipeline) persistFrame(ctx context.Context, fd l1detect.FrameDetections, live []*l3tracks.Track, missing, appeared []*l4memory.MemoryRecord) {
	db, runID := p.cfg.DB, p.cfg.RunID

	for _, t := range live {
		if err := db.UpsertTrack(ctx, runID, t); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
	}
	for _, t := range p.cfg.Tracks.RemovedThisFrame {
		if err := db.MarkTrackDeleted(ctx, runID, t.ID); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
	}

	// Observation rows are written only for frames the track actually
	// matched: an unmatched track carries its last box, and re-writing it
	// would fill the trajectory with stale duplicate samples.
	for _, t := range live {
		if !t.IsConfirmed() || t.Missed > 0 {
			continue
		}
		obs := sqlite.TrackObservation{
			RunID:       runID,
			TrackID:     t.ID,
			FrameIndex:  fd.FrameIndex,
			TSUnixNanos: fd.TSUnixNanos,
			CentroidX:   t.Centroid.X,
			CentroidY:   t.Centroid.Y,
			Confidence:  t.Confidence,
			X1:          t.Box.X1,
			Y1:          t.Box.Y1,
			X2:          t.Box.X2,
			Y2:          t.Box.Y2,
		}
		if err := db.InsertTrackObservation(ctx, obs); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
	}

	for _, rec := range missing {
		if _, noted := p.missingNoted[rec.TrackID]; noted {
			continue
		}
		p.missingNoted[rec.TrackID] = struct{}{}
		ev := sqlite.NewMemoryEvent(runID, sqlite.EventMissing, fd.FrameIndex, fd.TSUnixNanos, rec)
		if err := db.InsertMemoryEvent(ctx, ev); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
	}

	// A record that returns to the scene may go missing again later; clear
	// the edge state for any record now present.
	for _, t := range live {
		delete(p.missingNoted, t.ID)
	}

	for _, rec := range appeared {
		if _, noted := p.newNoted[rec.TrackID]; noted {
			continue
		}
		p.newNoted[rec.TrackID] = struct{}{}
		ev := sqlite.NewMemoryEvent(runID, sqlite.EventNew, fd.FrameIndex, fd.TSUnixNanos, rec)
		if err := db.InsertMemoryEvent(ctx, ev); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
	}

	for _, rec := range p.cfg.Ledger.ExpiredThisFrame {
		ev := sqlite.NewMemoryEvent(runID, sqlite.EventExpired, fd.FrameIndex, fd.TSUnixNanos, rec)
		if err := db.InsertMemoryEvent(ctx, ev); err != nil {
			opsf("[Frame %d] %v", fd.FrameIndex, err)
		}
		delete(p.missingNoted, rec.TrackID)
		delete(p.newNoted, rec.TrackID)
	}
}

// collectSample records one session statistics sample.
func (p *Pipeline) collectSample(fd l1detect.FrameDetections, live []*l3tracks.Track, missing, appeared []*l4memory.MemoryRecord, elapsed time.Duration) {
	meanConf := 0.0
	confirmed := 0
	for _, t := range live {
		meanConf += t.Confidence
		if t.IsConfirmed() {
			confirmed++
		}
		p.cfg.Collector.NoteTrack(t.ID, t.ClassName, fd.TSUnixNanos)
	}
	if len(live) > 0 {
		meanConf /= float64(len(live))
	}

	p.cfg.Collector.Add(report.FrameSample{
		FrameIndex:     fd.FrameIndex,
		TSUnixNanos:    fd.TSUnixNanos,
		TrackCount:     len(live),
		ConfirmedCount: confirmed,
		MissingCount:   len(missing),
		NewCount:       len(appeared),
		MeanConfidence: meanConf,
		ProcessTime:    elapsed,
	})
}

// FramesProcessed returns the number of frames run through the pipeline.
func (p *Pipeline) FramesProcessed() int {
	return p.framesProcessed
}

// DetectionsDropped returns the number of malformed detections rejected.
func (p *Pipeline) DetectionsDropped() int {
	return p.detectionsDropped
}
