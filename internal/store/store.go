package store

import (
	"sync"

	"trajview/internal/domain"
)

// RouteSummary is the list view of a route
type RouteSummary struct {
	ID         string  `json:"id"`
	ColorIndex int     `json:"colorIndex"`
	PointCount int     `json:"pointCount"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
}

// Store holds the loaded routes for the session. Routes are set once and
// only read afterwards; every accessor returns copies.
type Store struct {
	mu     sync.RWMutex
	routes []domain.Route
	byID   map[string]int
}

func New() *Store {
	return &Store{byID: make(map[string]int)}
}

// Replace installs the route list. Position in the list is the color index.
func (s *Store) Replace(routes []domain.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = make([]domain.Route, len(routes))
	s.byID = make(map[string]int, len(routes))
	for i, r := range routes {
		s.routes[i] = copyRoute(r)
		s.byID[r.ID] = i
	}
}

// Get returns a route and its color index.
func (s *Store) Get(id string) (domain.Route, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Route{}, 0, false
	}
	return copyRoute(s.routes[i]), i, true
}

// Has reports whether a route id is loaded.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Snapshot returns all routes in load order.
func (s *Store) Snapshot() []domain.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Route, len(s.routes))
	for i, r := range s.routes {
		result[i] = copyRoute(r)
	}
	return result
}

// IDs returns route ids in load order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.routes))
	for i, r := range s.routes {
		ids[i] = r.ID
	}
	return ids
}

// List returns route summaries in load order.
func (s *Store) List() []RouteSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]RouteSummary, 0, len(s.routes))
	for i, r := range s.routes {
		sum := RouteSummary{ID: r.ID, ColorIndex: i, PointCount: len(r.Points)}
		if len(r.Points) > 0 {
			sum.StartTime = r.First().Time
			sum.EndTime = r.Last().Time
		}
		result = append(result, sum)
	}
	return result
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

func copyRoute(r domain.Route) domain.Route {
	points := make([]domain.Point, len(r.Points))
	copy(points, r.Points)
	return domain.Route{ID: r.ID, Points: points}
}
