package l1detect

import "fmt"

// ValidateDetection checks a single detection against the boundary contract:
// well-formed rectangle (x1 < x2, y1 < y2), confidence in [0, 1], and a
// non-negative class id. Malformed detections are rejected here so the
// tracking core can assume well-formed input.
func ValidateDetection(d Detection) error {
	if !d.Box.Valid() {
		return fmt.Errorf("degenerate bbox [%.2f,%.2f,%.2f,%.2f]: require x1<x2 and y1<y2",
			d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", d.Confidence)
	}
	if d.ClassID < 0 {
		return fmt.Errorf("negative class id %d", d.ClassID)
	}
	return nil
}

// FilterValid returns the subset of detections that pass ValidateDetection
// along with the number rejected. Order is preserved.
func FilterValid(detections []Detection) (valid []Detection, rejected int) {
	valid = make([]Detection, 0, len(detections))
	for _, d := range detections {
		if err := ValidateDetection(d); err != nil {
			rejected++
			continue
		}
		valid = append(valid, d)
	}
	return valid, rejected
}
