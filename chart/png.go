package chart

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Plot builds a gonum plot of the figure.
func Plot(f Figure, s Style) (*plot.Plot, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel

	p.Title.TextStyle.Font.Size = vg.Points(s.TitleSize)
	p.Title.Padding = vg.Points(10)
	p.X.Label.TextStyle.Font.Size = vg.Points(s.AxisSize)
	p.Y.Label.TextStyle.Font.Size = vg.Points(s.AxisSize)
	p.Legend.Top = true
	p.Legend.Left = true

	p.Add(plotter.NewGrid())

	for _, l := range f.Lines {
		if len(l.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(l.X))
		for i := range l.X {
			pts[i].X = l.X[i]
			pts[i].Y = l.Y[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", l.Name, err)
		}
		line.LineStyle.Color = l.Color
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(l.Label, line)
	}

	return p, nil
}

// WritePNG renders the figure as PNG to w.
func WritePNG(w io.Writer, f Figure, s Style) error {
	p, err := Plot(f, s)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(s.WidthIn)*vg.Inch, vg.Length(s.HeightIn)*vg.Inch),
		vgimg.UseDPI(s.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return bw.Flush()
}

// SavePNG renders the figure to a PNG file, creating parent directories.
func SavePNG(path string, f Figure, s Style) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := WritePNG(file, f, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
