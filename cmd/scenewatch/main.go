// Command scenewatch reads per-frame object detections as NDJSON, tracks
// objects across frames, maintains a temporal memory of significant objects,
// and emits annotated frame overlays. Optionally persists tracking output to
// sqlite and writes a session report when the run ends.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/version"
	"github.com/banshee-data/presence.report/internal/vision/l1detect"
	"github.com/banshee-data/presence.report/internal/vision/l3tracks"
	"github.com/banshee-data/presence.report/internal/vision/l4memory"
	"github.com/banshee-data/presence.report/internal/vision/pipeline"
	"github.com/banshee-data/presence.report/internal/vision/render"
	"github.com/banshee-data/presence.report/internal/vision/report"
	"github.com/banshee-data/presence.report/internal/vision/sink"
	"github.com/banshee-data/presence.report/internal/vision/storage/sqlite"
)

var (
	inputPath     = flag.String("input", "-", "Detection NDJSON input path ('-' for stdin)")
	outputPath    = flag.String("output", "-", "Overlay NDJSON output path ('-' for stdout)")
	configPath    = flag.String("config", "", "Tuning config JSON (defaults compiled in when empty)")
	classesPath   = flag.String("classes", "", "Class-name map JSON (numeric ids used when empty)")
	dbPath        = flag.String("db", "", "Sqlite database path (persistence disabled when empty)")
	migrationsDir = flag.String("migrations", "migrations", "Migrations directory (used with -db)")
	reportDir     = flag.String("report-dir", "", "Directory for session report output (disabled when empty)")
	verbose       = flag.Bool("verbose", false, "Enable diagnostic and trace logging")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var names l1detect.ClassNames
	if *classesPath != "" {
		names, err = l1detect.LoadClassNames(*classesPath)
		if err != nil {
			log.Fatalf("Failed to load class names: %v", err)
		}
	}

	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, nil, nil)
	}

	in, err := openInput(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer in.Close()

	out, err := openOutput(*outputPath)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	defer out.Close()

	var db *sqlite.DB
	if *dbPath != "" {
		db, err = sqlite.NewDB(*dbPath, *migrationsDir)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
	}

	runID := uuid.NewString()
	log.Printf("scenewatch %s (%s) starting run %s (input=%s)", version.Version, version.GitSHA, runID, *inputPath)

	frameSink := sink.NewFrameSink(out, sink.Config{
		QueueSize:   cfg.GetSinkQueueSize(),
		StopTimeout: cfg.GetSinkStopTimeout(),
	})
	frameSink.Start()

	collector := report.NewCollector()
	p := pipeline.New(pipeline.Config{
		Tracks:    l3tracks.NewTrackTable(l3tracks.TableConfigFromTuning(cfg), names),
		Ledger:    l4memory.NewLedger(l4memory.LedgerConfigFromTuning(cfg)),
		Overlayer: render.NewOverlayer(),
		Sink:      frameSink,
		DB:        db,
		RunID:     runID,
		Collector: collector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := l1detect.NewStreamReader(in)
	for {
		if ctx.Err() != nil {
			log.Print("Interrupted, shutting down")
			break
		}
		fd, err := reader.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Input stream error: %v", err)
			}
			break
		}
		p.ProcessFrame(ctx, fd)
	}

	frameSink.Stop()

	stats := frameSink.Stats()
	rejected := reader.DetectionsRejected + p.DetectionsDropped()
	log.Printf("Run %s complete: frames=%d rejected_detections=%d overlays_written=%d overlays_dropped=%d",
		runID, p.FramesProcessed(), rejected, stats.Written, stats.Dropped)

	if *reportDir != "" {
		if err := writeReport(*reportDir, runID, cfg, collector, db); err != nil {
			log.Printf("Failed to write session report: %v", err)
		}
	}
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.MustLoadDefaultConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// writeReport emits the session chart and summary, plus a trajectory plot
// when observations were persisted.
func writeReport(dir, runID string, cfg *config.TuningConfig, collector *report.Collector, db *sqlite.DB) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	chartFile, err := os.Create(filepath.Join(dir, "session.html"))
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer chartFile.Close()
	if err := report.RenderSessionChart(chartFile, runID, collector); err != nil {
		return err
	}

	summary := collector.Summarise()
	log.Printf("Session summary: frames=%d tracks=%d peak=%d missing_events=%d new_events=%d conf_p50=%.2f dwell_p50=%.1fs proc_p90=%.2fms",
		summary.Frames, summary.DistinctTracks, summary.PeakTracks,
		summary.TotalMissing, summary.TotalNew,
		summary.Confidence.P50, summary.DwellSeconds.P50, summary.ProcessMs.P90)

	if db == nil {
		return nil
	}

	paths, err := trajectoryPaths(db, runID)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	return report.SaveTrajectoryPlot(
		filepath.Join(dir, "trajectories.png"),
		cfg.GetFrameWidth(), cfg.GetFrameHeight(), paths)
}

// trajectoryPaths loads per-track centroid histories from the database.
func trajectoryPaths(db *sqlite.DB, runID string) ([]report.TrackPath, error) {
	ctx := context.Background()
	tracks, err := db.GetTracks(ctx, runID)
	if err != nil {
		return nil, err
	}

	var paths []report.TrackPath
	for _, t := range tracks {
		obs, err := db.GetTrackObservations(ctx, runID, t.TrackID)
		if err != nil {
			return nil, err
		}
		if len(obs) < 2 {
			continue
		}
		tp := report.TrackPath{TrackID: t.TrackID, ClassName: t.ClassName}
		for _, o := range obs {
			tp.Points = append(tp.Points, report.PathPoint{X: o.CentroidX, Y: o.CentroidY})
		}
		paths = append(paths, tp)
	}
	return paths, nil
}
