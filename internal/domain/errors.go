package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRoute is wrapped by every MalformedRouteError
	ErrMalformedRoute = errors.New("malformed route")

	// ErrStaleToggle is wrapped by every StaleToggleReference
	ErrStaleToggle = errors.New("stale toggle reference")
)

// MalformedRouteError rejects a single route at load time.
// Index is the route's position in the raw input.
type MalformedRouteError struct {
	RouteID string
	Index   int
	Reason  string
}

func (e *MalformedRouteError) Error() string {
	if e.RouteID == "" {
		return fmt.Sprintf("malformed route at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed route %q: %s", e.RouteID, e.Reason)
}

func (e *MalformedRouteError) Unwrap() error {
	return ErrMalformedRoute
}

// StaleToggleReference names a toggled route id that is not in the loaded dataset
type StaleToggleReference struct {
	RouteID string
}

func (e *StaleToggleReference) Error() string {
	return fmt.Sprintf("toggle references unknown route %q", e.RouteID)
}

func (e *StaleToggleReference) Unwrap() error {
	return ErrStaleToggle
}
