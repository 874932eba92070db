// Package renderer draws growth charts in a raylib window.
package renderer

import (
	"fmt"
	"math"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/growth/chart"
)

// Plot area insets from the chart bounds, in pixels.
const (
	marginLeft   = 80
	marginRight  = 24
	marginTop    = 56
	marginBottom = 64
)

// ChartRenderer draws a chart.Figure into a screen rectangle.
type ChartRenderer struct {
	Background rl.Color
	Frame      rl.Color
	Grid       rl.Color
	Text       rl.Color

	TitleSize int32
	LabelSize int32
	TickSize  int32
	LineWidth float32
	Ticks     int // Approximate number of tick intervals per axis
}

// NewChartRenderer creates a renderer with a light theme.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{
		Background: rl.RayWhite,
		Frame:      rl.DarkGray,
		Grid:       rl.NewColor(220, 220, 220, 255),
		Text:       rl.DarkGray,
		TitleSize:  20,
		LabelSize:  16,
		TickSize:   12,
		LineWidth:  2.5,
		Ticks:      6,
	}
}

// axes maps data coordinates into the plot rectangle.
type axes struct {
	plot       rl.Rectangle
	xmin, xmax float64
	ymin, ymax float64
}

func (a axes) point(x, y float64) rl.Vector2 {
	fx := (x - a.xmin) / (a.xmax - a.xmin)
	fy := (y - a.ymin) / (a.ymax - a.ymin)
	return rl.Vector2{
		X: a.plot.X + float32(fx)*a.plot.Width,
		Y: a.plot.Y + a.plot.Height - float32(fy)*a.plot.Height,
	}
}

// Draw renders the figure. Must be called between BeginDrawing and EndDrawing.
func (r *ChartRenderer) Draw(fig chart.Figure, bounds rl.Rectangle) {
	rl.DrawRectangleRec(bounds, r.Background)

	titleW := rl.MeasureText(fig.Title, r.TitleSize)
	rl.DrawText(fig.Title, int32(bounds.X+bounds.Width/2)-titleW/2, int32(bounds.Y)+16, r.TitleSize, r.Text)

	plot := rl.Rectangle{
		X:      bounds.X + marginLeft,
		Y:      bounds.Y + marginTop,
		Width:  bounds.Width - marginLeft - marginRight,
		Height: bounds.Height - marginTop - marginBottom,
	}

	xmin, xmax, ymin, ymax, ok := fig.Viewport(r.Ticks)
	if !ok {
		msg := "No data"
		w := rl.MeasureText(msg, r.LabelSize)
		rl.DrawText(msg, int32(plot.X+plot.Width/2)-w/2, int32(plot.Y+plot.Height/2), r.LabelSize, r.Text)
		rl.DrawRectangleLinesEx(plot, 1, r.Frame)
		return
	}
	a := axes{plot: plot, xmin: xmin, xmax: xmax, ymin: ymin, ymax: ymax}

	r.drawGrid(a)
	r.drawAxisLabels(fig, a)

	for _, line := range fig.Lines {
		r.drawLine(line, a)
	}
	rl.DrawRectangleLinesEx(plot, 1, r.Frame)

	r.drawLegend(fig.Lines, plot)
}

func (r *ChartRenderer) drawGrid(a axes) {
	for _, x := range chart.NiceTicks(a.xmin, a.xmax, r.Ticks) {
		p := a.point(x, a.ymin)
		rl.DrawLineEx(rl.Vector2{X: p.X, Y: a.plot.Y}, p, 1, r.Grid)
		label := formatTick(x)
		w := rl.MeasureText(label, r.TickSize)
		rl.DrawText(label, int32(p.X)-w/2, int32(p.Y)+6, r.TickSize, r.Text)
	}
	for _, y := range chart.NiceTicks(a.ymin, a.ymax, r.Ticks) {
		p := a.point(a.xmin, y)
		rl.DrawLineEx(p, rl.Vector2{X: a.plot.X + a.plot.Width, Y: p.Y}, 1, r.Grid)
		label := formatTick(y)
		w := rl.MeasureText(label, r.TickSize)
		rl.DrawText(label, int32(p.X)-w-8, int32(p.Y)-r.TickSize/2, r.TickSize, r.Text)
	}
}

func (r *ChartRenderer) drawAxisLabels(fig chart.Figure, a axes) {
	w := rl.MeasureText(fig.XLabel, r.LabelSize)
	rl.DrawText(fig.XLabel,
		int32(a.plot.X+a.plot.Width/2)-w/2,
		int32(a.plot.Y+a.plot.Height)+30,
		r.LabelSize, r.Text)

	// Rotated y label centred on the plot's left edge.
	h := rl.MeasureText(fig.YLabel, r.LabelSize)
	rl.DrawTextPro(rl.GetFontDefault(), fig.YLabel,
		rl.Vector2{X: a.plot.X - 64, Y: a.plot.Y + a.plot.Height/2 + float32(h)/2},
		rl.Vector2{},
		-90,
		float32(r.LabelSize), 1, r.Text)
}

// drawLine draws a series as connected segments, breaking at non-finite values.
func (r *ChartRenderer) drawLine(line chart.Line, a axes) {
	var prev rl.Vector2
	havePrev := false
	for i := range line.X {
		x, y := line.X[i], line.Y[i]
		if math.IsNaN(y) || math.IsInf(y, 0) || math.IsNaN(x) || math.IsInf(x, 0) {
			havePrev = false
			continue
		}
		p := a.point(x, y)
		if havePrev {
			rl.DrawLineEx(prev, p, r.LineWidth, line.Color)
		} else if len(line.X) == 1 {
			rl.DrawCircleV(p, r.LineWidth, line.Color)
		}
		prev, havePrev = p, true
	}
}

func (r *ChartRenderer) drawLegend(lines []chart.Line, plot rl.Rectangle) {
	if len(lines) == 0 {
		return
	}

	rowH := r.LabelSize + 6
	var maxW int32
	for _, l := range lines {
		maxW = max(maxW, rl.MeasureText(l.Label, r.LabelSize))
	}

	box := rl.Rectangle{
		X:      plot.X + 12,
		Y:      plot.Y + 12,
		Width:  float32(maxW + 48),
		Height: float32(int32(len(lines))*rowH + 12),
	}
	rl.DrawRectangleRec(box, rl.Fade(r.Background, 0.9))
	rl.DrawRectangleLinesEx(box, 1, r.Grid)

	y := box.Y + 6
	for _, l := range lines {
		mid := y + float32(rowH)/2
		rl.DrawLineEx(rl.Vector2{X: box.X + 8, Y: mid}, rl.Vector2{X: box.X + 32, Y: mid}, r.LineWidth, l.Color)
		rl.DrawText(l.Label, int32(box.X)+40, int32(y)+3, r.LabelSize, r.Text)
		y += float32(rowH)
	}
}

func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return fmt.Sprintf("%.3g", v)
}
