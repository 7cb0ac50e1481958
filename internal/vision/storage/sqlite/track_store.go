package sqlite

import (
	"context"
	"fmt"

	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
)

// TrackRow is one track summary row, scoped to a run. A track's row is
// upserted every frame the track is live, so the stored values always
// reflect its latest state.
type TrackRow struct {
	RunID          string
	TrackID        int64
	ClassID        int
	ClassName      string
	State          string
	Hits           int
	Missed         int
	Age            int
	Confidence     float64
	FirstUnixNanos int64
	LastUnixNanos  int64
	X1, Y1, X2, Y2 float64
}

// TrackObservation is one per-frame position sample for a track.
type TrackObservation struct {
	RunID       string
	TrackID     int64
	FrameIndex  int
	TSUnixNanos int64
	CentroidX   float64
	CentroidY   float64
	Confidence  float64
	X1, Y1      float64
	X2, Y2      float64
}

// trackRowFromTrack snapshots a live track into a row for the given run.
func trackRowFromTrack(runID string, t *l3tracks.Track) TrackRow {
	return TrackRow{
		RunID:          runID,
		TrackID:        t.ID,
		ClassID:        t.ClassID,
		ClassName:      t.ClassName,
		State:          string(t.State()),
		Hits:           t.Hits,
		Missed:         t.Missed,
		Age:            t.Age,
		Confidence:     t.Confidence,
		FirstUnixNanos: t.FirstUnixNanos,
		LastUnixNanos:  t.LastUnixNanos,
		X1:             t.Box.X1,
		Y1:             t.Box.Y1,
		X2:             t.Box.X2,
		Y2:             t.Box.Y2,
	}
}

// UpsertTrack writes the current state of a track, inserting on first sight
// and updating the mutable columns thereafter.
func (db *DB) UpsertTrack(ctx context.Context, runID string, t *l3tracks.Track) error {
	row := trackRowFromTrack(runID, t)
	_, err := db.ExecContext(ctx, `
		INSERT INTO tracks (
			run_id, track_id, class_id, class_name, state,
			hits, missed, age, confidence,
			first_unix_nanos, last_unix_nanos,
			x1, y1, x2, y2
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, track_id) DO UPDATE SET
			class_id = excluded.class_id,
			class_name = excluded.class_name,
			state = excluded.state,
			hits = excluded.hits,
			missed = excluded.missed,
			age = excluded.age,
			confidence = excluded.confidence,
			last_unix_nanos = excluded.last_unix_nanos,
			x1 = excluded.x1, y1 = excluded.y1,
			x2 = excluded.x2, y2 = excluded.y2`,
		row.RunID, row.TrackID, row.ClassID, row.ClassName, row.State,
		row.Hits, row.Missed, row.Age, row.Confidence,
		row.FirstUnixNanos, row.LastUnixNanos,
		row.X1, row.Y1, row.X2, row.Y2)
	if err != nil {
		return fmt.Errorf("upsert track %d: %w", t.ID, err)
	}
	return nil
}

// MarkTrackDeleted records a track's terminal state after the table drops it.
func (db *DB) MarkTrackDeleted(ctx context.Context, runID string, trackID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tracks SET state = 'deleted' WHERE run_id = ? AND track_id = ?`,
		runID, trackID)
	if err != nil {
		return fmt.Errorf("mark track %d deleted: %w", trackID, err)
	}
	return nil
}

// InsertTrackObservation appends one frame's position sample for a track.
// Re-inserting the same (run, track, frame) triple replaces the sample.
func (db *DB) InsertTrackObservation(ctx context.Context, obs TrackObservation) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO track_observations (
			run_id, track_id, frame_index, ts_unix_nanos,
			centroid_x, centroid_y, confidence,
			x1, y1, x2, y2
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.RunID, obs.TrackID, obs.FrameIndex, obs.TSUnixNanos,
		obs.CentroidX, obs.CentroidY, obs.Confidence,
		obs.X1, obs.Y1, obs.X2, obs.Y2)
	if err != nil {
		return fmt.Errorf("insert observation for track %d frame %d: %w", obs.TrackID, obs.FrameIndex, err)
	}
	return nil
}

// GetTracks returns all track rows for a run, ordered by track id.
func (db *DB) GetTracks(ctx context.Context, runID string) ([]TrackRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, track_id, class_id, class_name, state,
			hits, missed, age, confidence,
			first_unix_nanos, last_unix_nanos,
			x1, y1, x2, y2
		FROM tracks WHERE run_id = ? ORDER BY track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []TrackRow
	for rows.Next() {
		var r TrackRow
		if err := rows.Scan(
			&r.RunID, &r.TrackID, &r.ClassID, &r.ClassName, &r.State,
			&r.Hits, &r.Missed, &r.Age, &r.Confidence,
			&r.FirstUnixNanos, &r.LastUnixNanos,
			&r.X1, &r.Y1, &r.X2, &r.Y2); err != nil {
			return nil, fmt.Errorf("scan track row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track rows: %w", err)
	}
	return out, nil
}

// GetTrackObservations returns the full observation history for one track,
// ordered by frame index.
func (db *DB) GetTrackObservations(ctx context.Context, runID string, trackID int64) ([]TrackObservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, track_id, frame_index, ts_unix_nanos,
			centroid_x, centroid_y, confidence,
			x1, y1, x2, y2
		FROM track_observations
		WHERE run_id = ? AND track_id = ?
		ORDER BY frame_index`, runID, trackID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []TrackObservation
	for rows.Next() {
		var o TrackObservation
		if err := rows.Scan(
			&o.RunID, &o.TrackID, &o.FrameIndex, &o.TSUnixNanos,
			&o.CentroidX, &o.CentroidY, &o.Confidence,
			&o.X1, &o.Y1, &o.X2, &o.Y2); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}
	return out, nil
}
