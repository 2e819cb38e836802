package domain

import (
	"encoding/json"
	"math"
)

// AllToggleID is the id of the "display all routes" toggle. No route may use it.
const AllToggleID = "drawall"

// Point is one observed position at one instant
type Point struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Time float64 `json:"time" yaml:"time"`
}

// SamePosition reports whether two points share exact coordinates
func (p Point) SamePosition(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// RawRoute is a route as it arrives from the dataset, before normalization
type RawRoute struct {
	ID     string  `json:"id" yaml:"id" validate:"required"`
	Points []Point `json:"points" yaml:"points" validate:"min=2"`
}

// Route is a normalized route: points sorted by time, never mutated after load
type Route struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
}

// First returns the earliest point. Routes are never empty after normalization.
func (r Route) First() Point {
	return r.Points[0]
}

// Last returns the latest point
func (r Route) Last() Point {
	return r.Points[len(r.Points)-1]
}

// RouteMetrics holds the derived per-route statistics shown in the summary table
type RouteMetrics struct {
	RouteID     string  `json:"routeId"`
	ColorIndex  int     `json:"colorIndex"`
	Distance    float64 `json:"distance"`
	Speed       float64 `json:"speed"`
	ElapsedTime float64 `json:"elapsedTime"`
	StopCount   int     `json:"stopCount"`
}

// SpeedDefined is false when the route has zero elapsed time
func (m RouteMetrics) SpeedDefined() bool {
	return !math.IsNaN(m.Speed) && !math.IsInf(m.Speed, 0)
}

// MarshalJSON encodes an undefined speed as null, JSON has no NaN
func (m RouteMetrics) MarshalJSON() ([]byte, error) {
	type wire struct {
		RouteID     string   `json:"routeId"`
		ColorIndex  int      `json:"colorIndex"`
		Distance    float64  `json:"distance"`
		Speed       *float64 `json:"speed"`
		ElapsedTime float64  `json:"elapsedTime"`
		StopCount   int      `json:"stopCount"`
	}
	w := wire{
		RouteID:     m.RouteID,
		ColorIndex:  m.ColorIndex,
		Distance:    m.Distance,
		ElapsedTime: m.ElapsedTime,
		StopCount:   m.StopCount,
	}
	if m.SpeedDefined() {
		speed := m.Speed
		w.Speed = &speed
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a null speed as NaN
func (m *RouteMetrics) UnmarshalJSON(data []byte) error {
	var w struct {
		RouteID     string   `json:"routeId"`
		ColorIndex  int      `json:"colorIndex"`
		Distance    float64  `json:"distance"`
		Speed       *float64 `json:"speed"`
		ElapsedTime float64  `json:"elapsedTime"`
		StopCount   int      `json:"stopCount"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = RouteMetrics{
		RouteID:     w.RouteID,
		ColorIndex:  w.ColorIndex,
		Distance:    w.Distance,
		Speed:       math.NaN(),
		ElapsedTime: w.ElapsedTime,
		StopCount:   w.StopCount,
	}
	if w.Speed != nil {
		m.Speed = *w.Speed
	}
	return nil
}
