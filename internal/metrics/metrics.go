// Package metrics derives per-route travel statistics from normalized routes.
//
// All functions are pure. Routes passed in must already be normalized (sorted
// by time, at least two points); the loader rejects anything else before it
// gets here.
package metrics

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"trajview/internal/domain"
)

// NotAvailable is how an undefined value is displayed.
const NotAvailable = "N/A"

// UndefinedSpeed is the speed of a route whose first and last timestamps coincide.
var UndefinedSpeed = math.NaN()

// Compute returns the summary statistics for one route.
func Compute(route domain.Route, colorIndex int) domain.RouteMetrics {
	points := route.Points

	var distance float64
	var stops int
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		distance += SegmentLength(a, b)
		if a.SamePosition(b) {
			stops++
		}
	}

	var elapsed float64
	if len(points) > 0 {
		elapsed = route.Last().Time - route.First().Time
	}

	return domain.RouteMetrics{
		RouteID:     route.ID,
		ColorIndex:  colorIndex,
		Distance:    distance,
		Speed:       Speed(distance, elapsed),
		ElapsedTime: elapsed,
		StopCount:   stops,
	}
}

// ComputeTable computes metrics for every route, using each route's position
// as its color index.
func ComputeTable(routes []domain.Route) []domain.RouteMetrics {
	table := make([]domain.RouteMetrics, len(routes))
	for i, r := range routes {
		table[i] = Compute(r, i)
	}
	return table
}

// SegmentLength is the Euclidean distance between two points.
func SegmentLength(a, b domain.Point) float64 {
	return planar.Distance(orb.Point{a.X, a.Y}, orb.Point{b.X, b.Y})
}

// Speed divides distance by elapsed time; zero elapsed time yields UndefinedSpeed.
func Speed(distance, elapsed float64) float64 {
	if elapsed == 0 {
		return UndefinedSpeed
	}
	return distance / elapsed
}

// FormatSpeed renders a speed for display, "N/A" when undefined.
func FormatSpeed(speed float64) string {
	return FormatFloat(speed)
}

// FormatFloat renders a value with the shortest exact representation, or
// "N/A" for NaN and infinities.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
