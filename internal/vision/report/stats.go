package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameSample is one frame's worth of session statistics.
type FrameSample struct {
	FrameIndex     int
	TSUnixNanos    int64
	TrackCount     int
	ConfirmedCount int
	MissingCount   int
	NewCount       int
	MeanConfidence float64
	ProcessTime    time.Duration
}

// trackSpan records a track's first and last observed timestamps.
type trackSpan struct {
	firstNanos int64
	lastNanos  int64
}

// Collector accumulates per-frame samples over a session. Owned by the
// pipeline goroutine; no locking.
type Collector struct {
	samples []FrameSample

	// classCounts accumulates, per class name, how many distinct tracks
	// were created. spans holds per-track dwell bounds.
	classCounts map[string]int
	spans       map[int64]*trackSpan
}

// NewCollector creates an empty session collector.
func NewCollector() *Collector {
	return &Collector{
		classCounts: make(map[string]int),
		spans:       make(map[int64]*trackSpan),
	}
}

// Add appends one frame sample.
func (c *Collector) Add(s FrameSample) {
	c.samples = append(c.samples, s)
}

// NoteTrack counts a track toward its class total the first time it is seen
// and extends its dwell span on every observation.
func (c *Collector) NoteTrack(trackID int64, className string, tsNanos int64) {
	if span, ok := c.spans[trackID]; ok {
		span.lastNanos = tsNanos
		return
	}
	c.spans[trackID] = &trackSpan{firstNanos: tsNanos, lastNanos: tsNanos}
	c.classCounts[className]++
}

// Samples returns the accumulated frame samples.
func (c *Collector) Samples() []FrameSample {
	return c.samples
}

// DwellSeconds returns each distinct track's observed dwell time.
func (c *Collector) DwellSeconds() []float64 {
	out := make([]float64, 0, len(c.spans))
	for _, span := range c.spans {
		out = append(out, float64(span.lastNanos-span.firstNanos)/float64(time.Second))
	}
	return out
}

// ClassCounts returns distinct-track totals per class name.
func (c *Collector) ClassCounts() map[string]int {
	return c.classCounts
}

// Quantiles holds the percentile spread of one measured quantity.
type Quantiles struct {
	P50 float64
	P90 float64
	P99 float64
	Max float64
}

// Summary is the aggregate view of a session.
type Summary struct {
	Frames         int
	DistinctTracks int
	PeakTracks     int
	TotalMissing   int
	TotalNew       int

	Confidence   Quantiles
	DwellSeconds Quantiles
	ProcessMs    Quantiles
	ClassCounts  map[string]int
}

// quantiles computes P50/P90/P99/max over values. Returns zeros for empty
// input.
func quantiles(values []float64) Quantiles {
	if len(values) == 0 {
		return Quantiles{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Quantiles{
		P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90: stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99: stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Max: sorted[len(sorted)-1],
	}
}

// Summarise reduces the collected samples to a session summary.
func (c *Collector) Summarise() Summary {
	s := Summary{
		Frames:         len(c.samples),
		DistinctTracks: len(c.spans),
		ClassCounts:    c.classCounts,
	}

	confidences := make([]float64, 0, len(c.samples))
	processMs := make([]float64, 0, len(c.samples))
	for _, sample := range c.samples {
		if sample.TrackCount > s.PeakTracks {
			s.PeakTracks = sample.TrackCount
		}
		s.TotalMissing += sample.MissingCount
		s.TotalNew += sample.NewCount
		if sample.TrackCount > 0 {
			confidences = append(confidences, sample.MeanConfidence)
		}
		processMs = append(processMs, float64(sample.ProcessTime.Microseconds())/1000.0)
	}

	s.Confidence = quantiles(confidences)
	s.DwellSeconds = quantiles(c.DwellSeconds())
	s.ProcessMs = quantiles(processMs)
	return s
}
