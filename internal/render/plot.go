package render

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotRenderer draws a frame as a static image with gonum/plot.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
	Radius vg.Length
}

// NewPlotRenderer sizes the image in inches.
func NewPlotRenderer(widthIn, heightIn float64) *PlotRenderer {
	return &PlotRenderer{
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
		Radius: vg.Points(6),
	}
}

// Formats supported by Render.
var PlotFormats = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
}

// Render writes the frame in the given format ("png" or "svg").
func (r *PlotRenderer) Render(w io.Writer, f Frame, format string) error {
	if _, ok := PlotFormats[format]; !ok {
		return fmt.Errorf("unsupported plot format %q", format)
	}

	p, err := r.build(f)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(r.Width, r.Height, format)
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

func (r *PlotRenderer) build(f Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Trajectories"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	for _, s := range f.Series {
		xys := make(plotter.XYs, len(s.Markers))
		steps := make([]string, len(s.Markers))
		for i, m := range s.Markers {
			xys[i] = plotter.XY{X: m.X, Y: m.Y}
			steps[i] = strconv.Itoa(m.Step)
		}

		col := Style(s.StyleIndex).RGBA

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("route %s line: %w", s.RouteID, err)
		}
		line.Color = col
		line.Width = vg.Points(2)

		markers, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("route %s markers: %w", s.RouteID, err)
		}
		markers.GlyphStyle.Color = col
		markers.GlyphStyle.Radius = r.Radius
		markers.GlyphStyle.Shape = draw.CircleGlyph{}

		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: steps})
		if err != nil {
			return nil, fmt.Errorf("route %s labels: %w", s.RouteID, err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Color = color.White
		}

		p.Add(line, markers, labels)
		p.Legend.Add(s.RouteID, line, markers)
	}

	// Add widens the axes to the data; pin them back to the viewport.
	p.X.Min, p.X.Max = f.Viewport.XMin, f.Viewport.XMax
	p.Y.Min, p.Y.Max = f.Viewport.YMin, f.Viewport.YMax
	// Y grows downwards, the same orientation as Viewport.Scales.
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}
