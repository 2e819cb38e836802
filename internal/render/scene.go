// Package render holds the drawing surfaces the dashboard controller targets:
// a recorded scene plus the plot, chart, GeoJSON and table renderers that
// read it.
package render

import (
	"strconv"
	"sync"

	"trajview/internal/domain"
	"trajview/internal/selection"
)

// Marker is one drawn point. Label is shown on hover, Step inside the marker.
type Marker struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Time  float64 `json:"time"`
	Step  int     `json:"step"`
	Label string  `json:"label"`
}

// Series is the result of one DrawRoute call
type Series struct {
	RouteID    string   `json:"routeId"`
	StyleIndex int      `json:"styleIndex"`
	Color      string   `json:"color"`
	Markers    []Marker `json:"markers"`
}

// NewSeries builds a series from route points, labelling each marker with its time.
func NewSeries(routeID string, points []domain.Point, styleIndex int) Series {
	markers := make([]Marker, len(points))
	for i, p := range points {
		markers[i] = Marker{
			X:     p.X,
			Y:     p.Y,
			Time:  p.Time,
			Step:  i,
			Label: "Time:" + strconv.FormatFloat(p.Time, 'f', -1, 64),
		}
	}
	return Series{
		RouteID:    routeID,
		StyleIndex: styleIndex,
		Color:      Style(styleIndex).Hex,
		Markers:    markers,
	}
}

// Frame is the complete drawn state after one clear-then-draw cycle.
type Frame struct {
	Seq       uint64           `json:"seq"`
	Session   string           `json:"session"`
	Selection selection.Active `json:"selection"`
	Series    []Series         `json:"series"`
	Viewport  Viewport         `json:"viewport"`
}

// RouteIDs lists the drawn routes in draw order.
func (f Frame) RouteIDs() []string {
	ids := make([]string, len(f.Series))
	for i, s := range f.Series {
		ids[i] = s.RouteID
	}
	return ids
}

// PixelPoint is a marker projected onto a canvas
type PixelPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Step int     `json:"step"`
}

// ProjectedSeries is a series in canvas coordinates
type ProjectedSeries struct {
	RouteID string       `json:"routeId"`
	Color   string       `json:"color"`
	Points  []PixelPoint `json:"points"`
}

// Project maps every series onto a width x height canvas using the frame's
// fixed viewport.
func (f Frame) Project(width, height float64, m Margin) []ProjectedSeries {
	xs, ys := f.Viewport.Scales(width, height, m)
	out := make([]ProjectedSeries, len(f.Series))
	for i, s := range f.Series {
		pts := make([]PixelPoint, len(s.Markers))
		for j, mk := range s.Markers {
			pts[j] = PixelPoint{X: xs.Map(mk.X), Y: ys.Map(mk.Y), Step: mk.Step}
		}
		out[i] = ProjectedSeries{RouteID: s.RouteID, Color: s.Color, Points: pts}
	}
	return out
}

// Scene is an in-memory drawing surface. It only keeps what was drawn since
// the last Clear.
type Scene struct {
	mu       sync.RWMutex
	viewport Viewport
	series   []Series
}

func NewScene(vp Viewport) *Scene {
	return &Scene{viewport: vp}
}

// Clear removes every drawn route.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = nil
}

// DrawRoute draws a connected line with a marker per point.
func (s *Scene) DrawRoute(routeID string, points []domain.Point, styleIndex int) {
	series := NewSeries(routeID, points, styleIndex)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = append(s.series, series)
}

// Viewport returns the fixed data domain.
func (s *Scene) Viewport() Viewport {
	return s.viewport
}

// Drawn returns a copy of the drawn series.
func (s *Scene) Drawn() []Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Series, len(s.series))
	copy(out, s.series)
	return out
}
