// Package sink writes annotated frame overlays to an output stream from a
// dedicated worker goroutine, decoupling slow output I/O from the tracking
// pipeline via a bounded queue.
package sink

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/vision/render"
)

// Config holds configuration for the frame sink.
type Config struct {
	// QueueSize is the bounded capacity of the frame queue.
	QueueSize int

	// StopTimeout is how long Stop waits for the worker to drain and exit
	// before giving up with a warning.
	StopTimeout time.Duration
}

// DefaultConfig returns a default sink configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:   128,
		StopTimeout: 10 * time.Second,
	}
}

// FrameSink serialises frame overlays as NDJSON on a worker goroutine.
// Enqueue never blocks: when the queue is full the frame is dropped and
// counted. Output frame loss under overload is an accepted tradeoff, not an
// error — no backpressure reaches the tracking pipeline.
type FrameSink struct {
	config Config

	frameChan chan render.FrameOverlay
	stopCh    chan struct{}
	done      chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once

	w *bufio.Writer

	// Stats
	written       atomic.Uint64
	droppedFrames atomic.Uint64
	writeErrors   atomic.Uint64
}

// NewFrameSink creates a sink writing NDJSON overlays to w.
func NewFrameSink(w io.Writer, cfg Config) *FrameSink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultConfig().StopTimeout
	}
	return &FrameSink{
		config:    cfg,
		frameChan: make(chan render.FrameOverlay, cfg.QueueSize),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		w:         bufio.NewWriter(w),
	}
}

// Start launches the worker goroutine. Safe to call once.
func (s *FrameSink) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.writerLoop()
	})
}

// Write enqueues a frame overlay for output. Non-blocking: drops the frame
// silently (counted) when the queue is full.
func (s *FrameSink) Write(overlay render.FrameOverlay) {
	select {
	case s.frameChan <- overlay:
	default:
		s.droppedFrames.Add(1)
	}
}

// writerLoop drains the queue until stopped, then flushes what remains.
func (s *FrameSink) writerLoop() {
	defer close(s.done)

	enc := json.NewEncoder(s.w)
	for {
		select {
		case overlay := <-s.frameChan:
			if err := enc.Encode(overlay); err != nil {
				s.writeErrors.Add(1)
				monitoring.Logf("[Sink] Failed to write frame %d: %v", overlay.FrameIndex, err)
				continue
			}
			s.written.Add(1)
		case <-s.stopCh:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case overlay := <-s.frameChan:
					if err := enc.Encode(overlay); err != nil {
						s.writeErrors.Add(1)
						continue
					}
					s.written.Add(1)
				default:
					if err := s.w.Flush(); err != nil {
						monitoring.Logf("[Sink] Flush failed: %v", err)
					}
					return
				}
			}
		}
	}
}

// Stop shuts the sink down in two phases: signal the worker, then join with
// a bounded timeout. A worker that fails to terminate in time produces a
// warning, not an error, and teardown continues.
func (s *FrameSink) Stop() {
	s.stopOnce.Do(func() {
		if !s.started.Load() {
			return
		}
		if remaining := len(s.frameChan); remaining > 0 {
			monitoring.Logf("[Sink] Waiting for %d queued frames to be written", remaining)
		}
		close(s.stopCh)

		select {
		case <-s.done:
		case <-time.After(s.config.StopTimeout):
			monitoring.Logf("[Sink] Warning: writer worker did not terminate within %v", s.config.StopTimeout)
		}
	})
}

// Stats returns the sink's output counters.
func (s *FrameSink) Stats() Stats {
	return Stats{
		Written:     s.written.Load(),
		Dropped:     s.droppedFrames.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
}

// Stats contains frame sink statistics.
type Stats struct {
	Written     uint64
	Dropped     uint64
	WriteErrors uint64
}
