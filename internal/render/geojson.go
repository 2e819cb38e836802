package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON exports the drawn series as a FeatureCollection with one
// LineString per route. Coordinates are the raw data coordinates.
func GeoJSON(f Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range f.Series {
		ls := make(orb.LineString, len(s.Markers))
		times := make([]float64, len(s.Markers))
		for i, m := range s.Markers {
			ls[i] = orb.Point{m.X, m.Y}
			times[i] = m.Time
		}

		feature := geojson.NewFeature(ls)
		feature.ID = s.RouteID
		feature.Properties["route_id"] = s.RouteID
		feature.Properties["style_index"] = s.StyleIndex
		feature.Properties["color"] = s.Color
		feature.Properties["times"] = times
		fc.Append(feature)
	}
	return fc
}
