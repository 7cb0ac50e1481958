package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderSessionChart writes a self-contained HTML page with the per-frame
// count series and per-class track totals for a session.
func RenderSessionChart(w io.Writer, runID string, c *Collector) error {
	samples := c.Samples()

	frames := make([]string, len(samples))
	trackSeries := make([]opts.LineData, len(samples))
	missingSeries := make([]opts.LineData, len(samples))
	newSeries := make([]opts.LineData, len(samples))
	for i, s := range samples {
		frames[i] = strconv.Itoa(s.FrameIndex)
		trackSeries[i] = opts.LineData{Value: s.TrackCount}
		missingSeries[i] = opts.LineData{Value: s.MissingCount}
		newSeries[i] = opts.LineData{Value: s.NewCount}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scene Presence Session", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Objects per Frame", Subtitle: fmt.Sprintf("run=%s frames=%d", runID, len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	line.SetXAxis(frames).
		AddSeries("tracked", trackSeries).
		AddSeries("missing", missingSeries).
		AddSeries("new", newSeries)

	classCounts := c.ClassCounts()
	classNames := make([]string, 0, len(classCounts))
	for name := range classCounts {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)

	classData := make([]opts.BarData, len(classNames))
	for i, name := range classNames {
		classData[i] = opts.BarData{Value: classCounts[name]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Distinct Tracks by Class"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(classNames).
		AddSeries("tracks", classData,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(line, bar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render session chart: %w", err)
	}
	return nil
}
