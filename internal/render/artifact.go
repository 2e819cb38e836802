package render

import (
	"bytes"
	"fmt"
)

// Artifact formats served for a frame.
const (
	FormatPNG     = "png"
	FormatSVG     = "svg"
	FormatHTML    = "html"
	FormatGeoJSON = "geojson"
)

// Artifacts renders a frame into any of the artifact formats.
type Artifacts struct {
	Plot  *PlotRenderer
	Chart *ChartRenderer
}

func NewArtifacts(plot *PlotRenderer, chart *ChartRenderer) *Artifacts {
	return &Artifacts{Plot: plot, Chart: chart}
}

// ContentType returns the media type of a format, empty if unknown.
func ContentType(format string) string {
	switch format {
	case FormatPNG, FormatSVG:
		return PlotFormats[format]
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatGeoJSON:
		return "application/geo+json"
	default:
		return ""
	}
}

// Render returns the encoded artifact and its content type.
func (a *Artifacts) Render(f Frame, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG, FormatSVG:
		if err := a.Plot.Render(&buf, f, format); err != nil {
			return nil, "", err
		}
	case FormatHTML:
		if err := a.Chart.Render(&buf, f); err != nil {
			return nil, "", err
		}
	case FormatGeoJSON:
		data, err := GeoJSON(f).MarshalJSON()
		if err != nil {
			return nil, "", fmt.Errorf("encode geojson: %w", err)
		}
		buf.Write(data)
	default:
		return nil, "", fmt.Errorf("unsupported artifact format %q", format)
	}
	return buf.Bytes(), ContentType(format), nil
}

// SceneKey identifies the rendered output of a frame: the selection plus the
// viewport and output sizes that shape every artifact.
func (a *Artifacts) SceneKey(f Frame) string {
	vp := f.Viewport
	return fmt.Sprintf("vp=%g,%g,%g,%g;plot=%gx%g;chart=%sx%s;%s",
		vp.XMin, vp.XMax, vp.YMin, vp.YMax,
		float64(a.Plot.Width), float64(a.Plot.Height),
		a.Chart.Width, a.Chart.Height,
		f.Selection.Key(),
	)
}
