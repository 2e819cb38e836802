// Package trajectory turns raw dataset routes into time-ordered routes.
package trajectory

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-playground/validator/v10"

	"trajview/internal/domain"
)

// MinPoints is the smallest route that has a defined path and elapsed time.
const MinPoints = 2

var validate = validator.New()

// Normalize sorts every route's points by time and rejects malformed routes.
// The input is not modified. Accepted routes keep their input order, so a
// route's position in the result is a stable color index for the session.
func Normalize(raw []domain.RawRoute) ([]domain.Route, []error) {
	routes := make([]domain.Route, 0, len(raw))
	var rejected []error
	seen := make(map[string]struct{}, len(raw))

	for i, r := range raw {
		route, err := normalizeAt(r, i)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		if _, dup := seen[route.ID]; dup {
			rejected = append(rejected, &domain.MalformedRouteError{
				RouteID: route.ID,
				Index:   i,
				Reason:  "duplicate id",
			})
			continue
		}
		seen[route.ID] = struct{}{}
		routes = append(routes, route)
	}

	return routes, rejected
}

// NormalizeRoute normalizes a single route.
func NormalizeRoute(raw domain.RawRoute) (domain.Route, error) {
	return normalizeAt(raw, 0)
}

func normalizeAt(raw domain.RawRoute, index int) (domain.Route, error) {
	if err := validate.Struct(raw); err != nil {
		return domain.Route{}, &domain.MalformedRouteError{
			RouteID: raw.ID,
			Index:   index,
			Reason:  describeValidation(err, len(raw.Points)),
		}
	}

	if raw.ID == domain.AllToggleID {
		return domain.Route{}, &domain.MalformedRouteError{
			RouteID: raw.ID,
			Index:   index,
			Reason:  "id is reserved for the all toggle",
		}
	}

	for j, p := range raw.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Time) {
			return domain.Route{}, &domain.MalformedRouteError{
				RouteID: raw.ID,
				Index:   index,
				Reason:  fmt.Sprintf("point %d is not finite", j),
			}
		}
	}

	points := slices.Clone(raw.Points)
	slices.SortStableFunc(points, func(a, b domain.Point) int {
		return cmp.Compare(a.Time, b.Time)
	})

	return domain.Route{ID: raw.ID, Points: points}, nil
}

func describeValidation(err error, pointCount int) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Field() {
	case "ID":
		return "missing id"
	case "Points":
		if pointCount == 0 {
			return "no points"
		}
		return fmt.Sprintf("needs at least %d points, got %d", MinPoints, pointCount)
	default:
		return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
