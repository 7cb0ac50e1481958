package report

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TrackPath is one track's centroid history for plotting.
type TrackPath struct {
	TrackID   int64
	ClassName string
	Points    []PathPoint
}

// PathPoint is one centroid sample in image coordinates.
type PathPoint struct {
	X, Y float64
}

// SaveTrajectoryPlot writes a PNG of all track centroid paths in image
// coordinates. The Y axis is inverted so the plot matches the frame's
// top-left origin.
func SaveTrajectoryPlot(path string, frameWidth, frameHeight int, paths []TrackPath) error {
	p := plot.New()
	p.Title.Text = "Track Trajectories"
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"
	p.X.Min, p.X.Max = 0, float64(frameWidth)
	p.Y.Min, p.Y.Max = 0, float64(frameHeight)

	sorted := make([]TrackPath, len(paths))
	copy(sorted, paths)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TrackID < sorted[j].TrackID })

	colors := generateColors(len(sorted))
	for i, tp := range sorted {
		if len(tp.Points) < 2 {
			continue
		}
		pts := make(plotter.XYs, len(tp.Points))
		for j, pt := range tp.Points {
			pts[j] = plotter.XY{X: pt.X, Y: float64(frameHeight) - pt.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trajectory line for track %d: %w", tp.TrackID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%d %s", tp.TrackID, tp.ClassName), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(12*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

// generateColors creates a palette of distinct colors, one per track.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
