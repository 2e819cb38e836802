package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"trajview/internal/domain"
	"trajview/internal/selection"
)

func testFrame() Frame {
	return Frame{
		Seq:       1,
		Selection: selection.All(),
		Viewport:  DefaultViewport,
		Series: []Series{
			NewSeries("alpha", []domain.Point{{X: 1, Y: 1, Time: 0}, {X: 4, Y: 5, Time: 2}}, 0),
			NewSeries("beta", []domain.Point{{X: 2, Y: 8, Time: 1}, {X: 2, Y: 8, Time: 3}, {X: 6, Y: 2, Time: 4}}, 6),
		},
	}
}

func TestStyle_Wraps(t *testing.T) {
	assert.Equal(t, "red", Style(0).Name)
	assert.Equal(t, "orange", Style(4).Name)
	assert.Equal(t, "red", Style(5).Name)
	assert.Equal(t, "blue", Style(6).Name)
	assert.Equal(t, "orange", Style(-1).Name)
}

func TestNewSeries_LabelsMarkers(t *testing.T) {
	s := NewSeries("r", []domain.Point{{X: 1, Y: 2, Time: 0.5}, {X: 3, Y: 4, Time: 7}}, 2)

	assert.Equal(t, "#008000", s.Color)
	require.Len(t, s.Markers, 2)
	assert.Equal(t, "Time:0.5", s.Markers[0].Label)
	assert.Equal(t, 1, s.Markers[1].Step)
}

func TestScene_ClearThenDraw(t *testing.T) {
	sc := NewScene(DefaultViewport)
	sc.DrawRoute("a", []domain.Point{{}, {X: 1, Time: 1}}, 0)
	sc.DrawRoute("b", []domain.Point{{}, {X: 1, Time: 1}}, 1)
	require.Len(t, sc.Drawn(), 2)

	sc.Clear()
	assert.Empty(t, sc.Drawn())

	sc.DrawRoute("b", []domain.Point{{}, {X: 1, Time: 1}}, 1)
	drawn := sc.Drawn()
	require.Len(t, drawn, 1)
	assert.Equal(t, "b", drawn[0].RouteID)
}

func TestViewport_Contains(t *testing.T) {
	assert.True(t, DefaultViewport.Contains(0, 10))
	assert.True(t, DefaultViewport.Contains(5, 5))
	assert.False(t, DefaultViewport.Contains(-0.1, 5))
	assert.False(t, DefaultViewport.Contains(5, 10.5))
}

func TestViewport_Scales(t *testing.T) {
	x, y := DefaultViewport.Scales(540, 440, DefaultMargin)

	assert.Equal(t, 40.0, x.Map(0))
	assert.Equal(t, 520.0, x.Map(10))
	assert.Equal(t, 40.0, y.Map(0))
	assert.Equal(t, 420.0, y.Map(10))
	assert.Equal(t, 3.0, LinearScale{D0: 1, D1: 1, R0: 3, R1: 9}.Map(5))
}

func TestFrame_Project(t *testing.T) {
	proj := testFrame().Project(540, 440, DefaultMargin)
	require.Len(t, proj, 2)
	assert.Equal(t, "alpha", proj[0].RouteID)
	assert.InDelta(t, 88.0, proj[0].Points[0].X, 1e-9)
	assert.InDelta(t, 78.0, proj[0].Points[0].Y, 1e-9)
}

func TestPlotRenderer_Formats(t *testing.T) {
	r := NewPlotRenderer(4, 4)

	var png bytes.Buffer
	require.NoError(t, r.Render(&png, testFrame(), "png"))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

	var svg bytes.Buffer
	require.NoError(t, r.Render(&svg, testFrame(), "svg"))
	assert.Contains(t, svg.String(), "<svg")

	var empty bytes.Buffer
	require.NoError(t, r.Render(&empty, Frame{Viewport: DefaultViewport, Selection: selection.None()}, "png"))
	assert.NotZero(t, empty.Len())

	assert.Error(t, r.Render(&bytes.Buffer{}, testFrame(), "gif"))
}

func TestPlotRenderer_YAxisGrowsDownwards(t *testing.T) {
	p, err := NewPlotRenderer(2, 2).build(testFrame())
	require.NoError(t, err)

	assert.IsType(t, plot.InvertedScale{}, p.Y.Scale)
	assert.InDelta(t, 1.0, p.Y.Norm(DefaultViewport.YMin), 1e-9)
	assert.InDelta(t, 0.0, p.Y.Norm(DefaultViewport.YMax), 1e-9)
	assert.InDelta(t, 0.0, p.X.Norm(DefaultViewport.XMin), 1e-9)
}

func TestChartRenderer_HTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer("").Render(&buf, testFrame()))

	html := buf.String()
	assert.Contains(t, html, "alpha")
	assert.Contains(t, html, "beta")
	assert.Contains(t, html, "Time:0")
	assert.Contains(t, html, `"inverse":true`)
}

func TestGeoJSON(t *testing.T) {
	fc := GeoJSON(testFrame())
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "alpha", fc.Features[0].Properties["route_id"])
	assert.Equal(t, "#0000FF", fc.Features[1].Properties["color"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"LineString"`)
}

func TestTable_RowsAndTerminal(t *testing.T) {
	tbl := NewTable()
	tbl.RenderTable([]domain.RouteMetrics{
		{RouteID: "alpha", ColorIndex: 0, Distance: 5, Speed: 2.5, ElapsedTime: 2},
		{RouteID: "still", ColorIndex: 1, Distance: 0, Speed: math.NaN(), ElapsedTime: 0, StopCount: 1},
	})

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"red", "alpha", "5", "2.5", "2", "0"}, rows[0].Cells())
	assert.Equal(t, "N/A", rows[1].Speed)
	assert.Equal(t, 1, tbl.Renders())

	out := Terminal(rows)
	for _, col := range Columns {
		assert.Contains(t, out, col)
	}
	assert.True(t, strings.Contains(out, "N/A"))
}

func TestArtifacts_Render(t *testing.T) {
	a := NewArtifacts(NewPlotRenderer(3, 3), NewChartRenderer(""))
	f := testFrame()

	for _, format := range []string{FormatPNG, FormatSVG, FormatHTML, FormatGeoJSON} {
		t.Run(format, func(t *testing.T) {
			data, ct, err := a.Render(f, format)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, ContentType(format), ct)
		})
	}

	_, _, err := a.Render(f, "bmp")
	assert.ErrorContains(t, err, "unsupported artifact format")
	assert.Empty(t, ContentType("bmp"))
}

func TestArtifacts_SceneKey(t *testing.T) {
	f := testFrame()
	base := NewArtifacts(NewPlotRenderer(3, 3), NewChartRenderer(""))
	key := base.SceneKey(f)

	assert.Equal(t, key, base.SceneKey(f))
	assert.True(t, strings.HasSuffix(key, ";all"))

	other := f
	other.Viewport = SquareViewport(0, 20)
	assert.NotEqual(t, key, base.SceneKey(other))

	bigger := NewArtifacts(NewPlotRenderer(6, 3), NewChartRenderer(""))
	assert.NotEqual(t, key, bigger.SceneKey(f))

	sub := f
	sub.Selection = selection.Active{Mode: selection.ModeSubset, IDs: []string{"alpha"}}
	assert.NotEqual(t, key, base.SceneKey(sub))
}
