package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/presence.report/internal/vision/l4memory"
)

// Memory event types, mirroring the ledger's classification output.
const (
	EventMissing = "missing"
	EventNew     = "new"
	EventExpired = "expired"
)

// MemoryEvent is one ledger classification outcome worth keeping: an object
// going missing, an object newly appearing, or a record expiring.
type MemoryEvent struct {
	EventID           string
	RunID             string
	TrackID           int64
	EventType         string
	FrameIndex        int
	TSUnixNanos       int64
	ClassName         string
	SignificanceScore float64
	X1, Y1, X2, Y2    float64
}

// NewMemoryEvent builds an event row from a ledger record, assigning a fresh
// event id.
func NewMemoryEvent(runID, eventType string, frameIndex int, tsNanos int64, rec *l4memory.MemoryRecord) MemoryEvent {
	return MemoryEvent{
		EventID:           uuid.NewString(),
		RunID:             runID,
		TrackID:           rec.TrackID,
		EventType:         eventType,
		FrameIndex:        frameIndex,
		TSUnixNanos:       tsNanos,
		ClassName:         rec.ClassName,
		SignificanceScore: rec.SignificanceScore,
		X1:                rec.LastBox.X1,
		Y1:                rec.LastBox.Y1,
		X2:                rec.LastBox.X2,
		Y2:                rec.LastBox.Y2,
	}
}

// InsertMemoryEvent persists one memory event.
func (db *DB) InsertMemoryEvent(ctx context.Context, ev MemoryEvent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO memory_events (
			event_id, run_id, track_id, event_type,
			frame_index, ts_unix_nanos, class_name, significance_score,
			x1, y1, x2, y2
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.RunID, ev.TrackID, ev.EventType,
		ev.FrameIndex, ev.TSUnixNanos, ev.ClassName, ev.SignificanceScore,
		ev.X1, ev.Y1, ev.X2, ev.Y2)
	if err != nil {
		return fmt.Errorf("insert memory event for track %d: %w", ev.TrackID, err)
	}
	return nil
}

// GetMemoryEvents returns a run's memory events in frame order, optionally
// filtered by event type (empty string matches all types).
func (db *DB) GetMemoryEvents(ctx context.Context, runID, eventType string) ([]MemoryEvent, error) {
	query := `
		SELECT event_id, run_id, track_id, event_type,
			frame_index, ts_unix_nanos, class_name, significance_score,
			x1, y1, x2, y2
		FROM memory_events WHERE run_id = ?`
	args := []interface{}{runID}
	if eventType != "" {
		query += ` AND event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY frame_index, track_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memory events: %w", err)
	}
	defer rows.Close()

	var out []MemoryEvent
	for rows.Next() {
		var ev MemoryEvent
		if err := rows.Scan(
			&ev.EventID, &ev.RunID, &ev.TrackID, &ev.EventType,
			&ev.FrameIndex, &ev.TSUnixNanos, &ev.ClassName, &ev.SignificanceScore,
			&ev.X1, &ev.Y1, &ev.X2, &ev.Y2); err != nil {
			return nil, fmt.Errorf("scan memory event row: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory event rows: %w", err)
	}
	return out, nil
}

// PruneRun deletes every row belonging to a run, across all tables.
func (db *DB) PruneRun(ctx context.Context, runID string) error {
	for _, table := range []string{"memory_events", "track_observations", "tracks"} {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", table), runID); err != nil {
			return fmt.Errorf("prune %s for run %s: %w", table, runID, err)
		}
	}
	return nil
}
