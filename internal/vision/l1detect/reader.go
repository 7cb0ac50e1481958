package l1detect

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/presence.report/internal/monitoring"
)

// maxLineBytes bounds a single NDJSON line. A frame with several hundred
// detections fits comfortably; anything larger is detector misbehaviour.
const maxLineBytes = 4 * 1024 * 1024

// StreamReader decodes per-frame detection batches from an NDJSON stream,
// one FrameDetections object per line. Malformed detections within a frame
// are dropped at this boundary (with a counter), not passed downstream.
type StreamReader struct {
	scanner    *bufio.Scanner
	frameIndex int

	// Counters for boundary diagnostics.
	FramesRead         int
	DetectionsRejected int
}

// NewStreamReader wraps an io.Reader producing detection NDJSON.
func NewStreamReader(r io.Reader) *StreamReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &StreamReader{scanner: sc}
}

// Next returns the next frame's detections. It returns io.EOF when the
// stream is exhausted. Blank lines are skipped. Invalid detections inside a
// frame are filtered out and counted; a line that is not valid JSON is a
// hard error since frame boundaries can no longer be trusted.
func (sr *StreamReader) Next() (FrameDetections, error) {
	for sr.scanner.Scan() {
		line := sr.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame FrameDetections
		if err := json.Unmarshal(line, &frame); err != nil {
			return FrameDetections{}, fmt.Errorf("frame %d: malformed detection line: %w", sr.frameIndex, err)
		}

		if frame.FrameIndex == 0 {
			frame.FrameIndex = sr.frameIndex
		}
		sr.frameIndex = frame.FrameIndex + 1

		valid, rejected := FilterValid(frame.Detections)
		if rejected > 0 {
			sr.DetectionsRejected += rejected
			monitoring.Logf("[Detect] Frame %d: rejected %d malformed detections", frame.FrameIndex, rejected)
		}
		frame.Detections = valid

		sr.FramesRead++
		return frame, nil
	}

	if err := sr.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return FrameDetections{}, fmt.Errorf("detection line exceeds %d bytes: %w", maxLineBytes, err)
		}
		return FrameDetections{}, fmt.Errorf("read detection stream: %w", err)
	}
	return FrameDetections{}, io.EOF
}
