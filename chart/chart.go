// Package chart describes a labelled line chart of culture trajectories and
// renders it to PNG.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/pthm-cable/growth/config"
)

// ErrEmpty is returned when a figure has nothing to draw.
var ErrEmpty = errors.New("chart: figure has no points")

// Line is one condition's series.
type Line struct {
	Name  string
	Label string
	Color color.RGBA
	X, Y  []float64
}

// Figure is everything a renderer needs: the lines plus axis and title text.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Lines  []Line
}

// Style holds export settings.
type Style struct {
	WidthIn   float64
	HeightIn  float64
	DPI       int
	TitleSize float64 // points
	AxisSize  float64 // points
}

// StyleFrom copies export settings from the chart config, filling gaps.
func StyleFrom(c config.ChartConfig) Style {
	s := Style{
		WidthIn:   c.WidthIn,
		HeightIn:  c.HeightIn,
		DPI:       c.DPI,
		TitleSize: c.TitleSize,
		AxisSize:  c.AxisSize,
	}
	if s.DPI <= 0 {
		s.DPI = 96
	}
	if s.TitleSize <= 0 {
		s.TitleSize = 18
	}
	if s.AxisSize <= 0 {
		s.AxisSize = 14
	}
	return s
}

// Validate checks that every line is well formed and at least one has points.
func (f Figure) Validate() error {
	points := 0
	for _, l := range f.Lines {
		if len(l.X) != len(l.Y) {
			return fmt.Errorf("chart: line %s has %d x values and %d y values", l.Name, len(l.X), len(l.Y))
		}
		points += len(l.X)
	}
	if points == 0 {
		return ErrEmpty
	}
	return nil
}

// Bounds returns the data range over all lines, ignoring non-finite values.
// ok is false when there is no finite point.
func (f Figure) Bounds() (xmin, xmax, ymin, ymax float64, ok bool) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, l := range f.Lines {
		for i := range l.X {
			x, y := l.X[i], l.Y[i]
			if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
				continue
			}
			xmin = math.Min(xmin, x)
			xmax = math.Max(xmax, x)
			ymin = math.Min(ymin, y)
			ymax = math.Max(ymax, y)
			ok = true
		}
	}
	return xmin, xmax, ymin, ymax, ok
}
