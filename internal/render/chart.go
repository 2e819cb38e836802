package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartRenderer renders a frame as an interactive ECharts HTML page.
type ChartRenderer struct {
	AssetsHost string
	Width      string
	Height     string
}

func NewChartRenderer(assetsHost string) *ChartRenderer {
	return &ChartRenderer{AssetsHost: assetsHost, Width: "900px", Height: "900px"}
}

// Render writes the HTML page. Each route is a line series with a symbol per
// point; the tooltip shows the point's time label.
func (r *ChartRenderer) Render(w io.Writer, f Frame) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trajectories", Width: r.Width, Height: r.Height, AssetsHost: r.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Trajectories", Subtitle: fmt.Sprintf("selection=%s routes=%d", f.Selection.Key(), len(f.Series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: f.Viewport.XMin, Max: f.Viewport.XMax, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: f.Viewport.YMin, Max: f.Viewport.YMax, Inverse: opts.Bool(true), Name: "Y", NameLocation: "middle", NameGap: 30}),
	)

	for _, s := range f.Series {
		data := make([]opts.LineData, len(s.Markers))
		for i, m := range s.Markers {
			data[i] = opts.LineData{Name: m.Label, Value: []interface{}{m.X, m.Y, m.Time}}
		}
		line.AddSeries(s.RouteID, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
