package l1detect

import (
	"encoding/json"
	"fmt"
)

// Rect is an axis-aligned rectangle in image space with x1 < x2 and y1 < y2.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Area returns the rectangle area in px².
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Centroid returns the midpoint of the rectangle.
func (r Rect) Centroid() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Valid reports whether the rectangle is well-formed (non-degenerate).
func (r Rect) Valid() bool {
	return r.X2 > r.X1 && r.Y2 > r.Y1
}

// IoU returns the Intersection-over-Union of two rectangles in [0, 1].
// Non-overlapping rectangles yield exactly 0 — the intersection area is
// never taken negative.
func (r Rect) IoU(other Rect) float64 {
	ix1 := max(r.X1, other.X1)
	iy1 := max(r.Y1, other.Y1)
	ix2 := min(r.X2, other.X2)
	iy2 := min(r.Y2, other.Y2)

	if ix2 < ix1 || iy2 < iy1 {
		return 0.0
	}

	intersection := (ix2 - ix1) * (iy2 - iy1)
	union := r.Area() + other.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return intersection / union
}

// Point is a 2D position in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is a single detector output for one frame. It is ephemeral:
// produced by the detector, consumed within the same frame, never persisted.
type Detection struct {
	Box        Rect
	Confidence float64
	ClassID    int
}

// detectionWire is the JSON shape emitted by the external detector:
// {"bbox":[x1,y1,x2,y2],"confidence":0.93,"class_id":0}
type detectionWire struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	ClassID    int       `json:"class_id"`
}

// UnmarshalJSON decodes the detector wire format into a Detection.
func (d *Detection) UnmarshalJSON(data []byte) error {
	var w detectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.BBox) != 4 {
		return fmt.Errorf("bbox must have 4 elements, got %d", len(w.BBox))
	}
	d.Box = Rect{X1: w.BBox[0], Y1: w.BBox[1], X2: w.BBox[2], Y2: w.BBox[3]}
	d.Confidence = w.Confidence
	d.ClassID = w.ClassID
	return nil
}

// MarshalJSON encodes a Detection back into the detector wire format.
func (d Detection) MarshalJSON() ([]byte, error) {
	return json.Marshal(detectionWire{
		BBox:       []float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
		Confidence: d.Confidence,
		ClassID:    d.ClassID,
	})
}

// FrameDetections is one frame's worth of detector output.
type FrameDetections struct {
	FrameIndex  int         `json:"frame_index"`
	TSUnixNanos int64       `json:"ts_unix_nanos"`
	Detections  []Detection `json:"detections"`
}
