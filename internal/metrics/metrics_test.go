package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajview/internal/domain"
)

func route(id string, pts ...domain.Point) domain.Route {
	return domain.Route{ID: id, Points: pts}
}

func TestCompute_TwoPointRoute(t *testing.T) {
	r := route("r1",
		domain.Point{X: 0, Y: 0, Time: 0},
		domain.Point{X: 3, Y: 4, Time: 2},
	)

	m := Compute(r, 3)

	assert.Equal(t, "r1", m.RouteID)
	assert.Equal(t, 3, m.ColorIndex)
	assert.Equal(t, 5.0, m.Distance)
	assert.Equal(t, 2.0, m.ElapsedTime)
	assert.Equal(t, 2.5, m.Speed)
	assert.Equal(t, 0, m.StopCount)
	assert.True(t, m.SpeedDefined())
}

func TestCompute_DwellAtStart(t *testing.T) {
	r := route("r2",
		domain.Point{X: 1, Y: 1, Time: 0},
		domain.Point{X: 1, Y: 1, Time: 1},
		domain.Point{X: 2, Y: 2, Time: 3},
	)

	m := Compute(r, 0)

	assert.Equal(t, 1, m.StopCount)
	assert.InDelta(t, math.Sqrt2, m.Distance, 1e-12)
	assert.Equal(t, 3.0, m.ElapsedTime)
	assert.InDelta(t, math.Sqrt2/3, m.Speed, 1e-12)
}

func TestCompute_CountsFinalSegment(t *testing.T) {
	r := route("r3",
		domain.Point{X: 0, Y: 0, Time: 0},
		domain.Point{X: 1, Y: 0, Time: 1},
		domain.Point{X: 1, Y: 0, Time: 2},
		domain.Point{X: 1, Y: 3, Time: 4},
		domain.Point{X: 1, Y: 3, Time: 5},
	)

	m := Compute(r, 0)

	assert.Equal(t, 4.0, m.Distance)
	assert.Equal(t, 2, m.StopCount)
}

func TestCompute_ZeroElapsedTimeIsUndefinedSpeed(t *testing.T) {
	r := route("still",
		domain.Point{X: 0, Y: 0, Time: 7},
		domain.Point{X: 3, Y: 4, Time: 7},
	)

	m := Compute(r, 1)

	assert.Equal(t, 0.0, m.ElapsedTime)
	assert.Equal(t, 5.0, m.Distance)
	assert.True(t, math.IsNaN(m.Speed))
	assert.False(t, m.SpeedDefined())
	assert.Equal(t, NotAvailable, FormatSpeed(m.Speed))
}

func TestComputeTable_AssignsPositionalColorIndex(t *testing.T) {
	routes := []domain.Route{
		route("a", domain.Point{Time: 0}, domain.Point{X: 1, Time: 1}),
		route("b", domain.Point{Time: 0}, domain.Point{X: 2, Time: 1}),
		route("c", domain.Point{Time: 0}, domain.Point{X: 3, Time: 1}),
	}

	table := ComputeTable(routes)
	require.Len(t, table, 3)
	for i, m := range table {
		assert.Equal(t, routes[i].ID, m.RouteID)
		assert.Equal(t, i, m.ColorIndex)
	}
	assert.Equal(t, 3.0, table[2].Speed)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "2.5", FormatFloat(2.5))
	assert.Equal(t, "5", FormatFloat(5))
	assert.Equal(t, NotAvailable, FormatFloat(math.Inf(1)))
	assert.Equal(t, NotAvailable, FormatFloat(math.NaN()))
}

func TestRouteMetrics_JSONUndefinedSpeed(t *testing.T) {
	m := Compute(route("still", domain.Point{Time: 1}, domain.Point{Time: 1}), 0)

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"speed":null`)

	var back domain.RouteMetrics
	require.NoError(t, back.UnmarshalJSON(data))
	assert.False(t, back.SpeedDefined())
	assert.Equal(t, "still", back.RouteID)
}
