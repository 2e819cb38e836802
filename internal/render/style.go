package render

import (
	"image/color"
)

// Swatch is one palette entry
type Swatch struct {
	Name string     `json:"name"`
	Hex  string     `json:"hex"`
	RGBA color.RGBA `json:"-"`
}

// Palette is the fixed set of route colors, indexed by style index.
var Palette = []Swatch{
	{Name: "red", Hex: "#FF0000", RGBA: color.RGBA{R: 255, A: 255}},
	{Name: "blue", Hex: "#0000FF", RGBA: color.RGBA{B: 255, A: 255}},
	{Name: "green", Hex: "#008000", RGBA: color.RGBA{G: 128, A: 255}},
	{Name: "purple", Hex: "#800080", RGBA: color.RGBA{R: 128, B: 128, A: 255}},
	{Name: "orange", Hex: "#FFA500", RGBA: color.RGBA{R: 255, G: 165, A: 255}},
}

// Style returns the swatch for a style index, wrapping past the palette size.
func Style(index int) Swatch {
	n := len(Palette)
	i := index % n
	if i < 0 {
		i += n
	}
	return Palette[i]
}

// Viewport is the fixed data domain drawn on both axes. It does not change
// between redraws so toggling never rescales the view.
type Viewport struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`
}

// DefaultViewport covers 0..10 on both axes.
var DefaultViewport = Viewport{XMin: 0, XMax: 10, YMin: 0, YMax: 10}

// SquareViewport uses the same range on both axes.
func SquareViewport(min, max float64) Viewport {
	return Viewport{XMin: min, XMax: max, YMin: min, YMax: max}
}

// Contains reports whether a data point lies inside the viewport.
func (v Viewport) Contains(x, y float64) bool {
	return x >= v.XMin && x <= v.XMax && y >= v.YMin && y <= v.YMax
}

// LinearScale maps a data interval onto a pixel interval.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Map projects a data value. A degenerate domain maps everything to R0.
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return s.R0
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Scales returns the x and y scales for a canvas of the given pixel size and
// margins. Y grows downwards, so the domain minimum sits at the top edge.
func (v Viewport) Scales(width, height float64, m Margin) (x, y LinearScale) {
	x = LinearScale{D0: v.XMin, D1: v.XMax, R0: m.Left, R1: width - m.Right}
	y = LinearScale{D0: v.YMin, D1: v.YMax, R0: m.Top, R1: height - m.Bottom}
	return x, y
}

// Margin around the drawing area in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargin leaves room for the axes.
var DefaultMargin = Margin{Top: 40, Right: 20, Bottom: 20, Left: 40}
