package trajectory

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajview/internal/domain"
)

func TestNormalize_SortsByTimeStable(t *testing.T) {
	raw := []domain.RawRoute{{
		ID: "a",
		Points: []domain.Point{
			{X: 5, Y: 5, Time: 3},
			{X: 1, Y: 1, Time: 1},
			{X: 2, Y: 2, Time: 1},
			{X: 3, Y: 3, Time: 0},
		},
	}}

	routes, rejected := Normalize(raw)
	require.Empty(t, rejected)
	require.Len(t, routes, 1)

	want := []domain.Point{
		{X: 3, Y: 3, Time: 0},
		{X: 1, Y: 1, Time: 1},
		{X: 2, Y: 2, Time: 1},
		{X: 5, Y: 5, Time: 3},
	}
	if diff := cmp.Diff(want, routes[0].Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	points := []domain.Point{
		{X: 1, Y: 0, Time: 9},
		{X: 2, Y: 0, Time: 4},
	}
	raw := []domain.RawRoute{{ID: "a", Points: points}}

	routes, _ := Normalize(raw)
	require.Len(t, routes, 1)

	assert.Equal(t, 9.0, points[0].Time)
	assert.Equal(t, 4.0, points[1].Time)
	assert.Equal(t, 4.0, routes[0].Points[0].Time)

	routes[0].Points[0].X = 100
	assert.Equal(t, 1.0, points[0].X)
}

func TestNormalize_RejectsMalformedRoutes(t *testing.T) {
	tests := []struct {
		name   string
		route  domain.RawRoute
		reason string
	}{
		{
			name:   "no points",
			route:  domain.RawRoute{ID: "empty"},
			reason: "no points",
		},
		{
			name:   "single point",
			route:  domain.RawRoute{ID: "lonely", Points: []domain.Point{{X: 1, Y: 1, Time: 0}}},
			reason: "needs at least 2 points, got 1",
		},
		{
			name:   "missing id",
			route:  domain.RawRoute{Points: []domain.Point{{Time: 0}, {Time: 1}}},
			reason: "missing id",
		},
		{
			name:   "reserved id",
			route:  domain.RawRoute{ID: domain.AllToggleID, Points: []domain.Point{{Time: 0}, {Time: 1}}},
			reason: "id is reserved for the all toggle",
		},
		{
			name:   "nan coordinate",
			route:  domain.RawRoute{ID: "nan", Points: []domain.Point{{X: math.NaN()}, {Time: 1}}},
			reason: "point 0 is not finite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeRoute(tt.route)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedRoute))

			var mre *domain.MalformedRouteError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, tt.reason, mre.Reason)
		})
	}
}

func TestNormalize_IsolatesRejectedRoutes(t *testing.T) {
	raw := []domain.RawRoute{
		{ID: "a", Points: []domain.Point{{Time: 0}, {Time: 1}}},
		{ID: "bad"},
		{ID: "b", Points: []domain.Point{{Time: 0}, {Time: 1}}},
		{ID: "a", Points: []domain.Point{{Time: 5}, {Time: 6}}},
	}

	routes, rejected := Normalize(raw)

	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
	require.Len(t, rejected, 2)

	var first, second *domain.MalformedRouteError
	require.True(t, errors.As(rejected[0], &first))
	require.True(t, errors.As(rejected[1], &second))
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "duplicate id", second.Reason)
	assert.Equal(t, 3, second.Index)
}
