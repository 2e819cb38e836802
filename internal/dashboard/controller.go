// Package dashboard owns the session: it loads the routes, computes the
// summary table once and redraws the render surface on every toggle change.
package dashboard

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trajview/internal/domain"
	"trajview/internal/metrics"
	"trajview/internal/render"
	"trajview/internal/selection"
	"trajview/internal/store"
	"trajview/internal/trajectory"
)

var (
	ErrAlreadyLoaded = errors.New("dashboard already loaded")
	ErrNotLoaded     = errors.New("dashboard not loaded")
)

// State of the controller's redraw cycle
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Surface is the drawing target. Each redraw is one Clear followed by one
// DrawRoute per active route; the published frame is read back from Drawn.
type Surface interface {
	Clear()
	DrawRoute(routeID string, points []domain.Point, styleIndex int)
	Drawn() []render.Series
	Viewport() render.Viewport
}

// ToggleSet is the widget set: one toggle per route plus the all toggle.
type ToggleSet interface {
	Populate(ids []string, allChecked bool)
	Snapshot() selection.Snapshot
}

// TableSink receives the summary table exactly once.
type TableSink interface {
	RenderTable(rows []domain.RouteMetrics)
}

// Publisher is notified with the complete frame after every redraw.
type Publisher interface {
	Publish(frame render.Frame)
}

// ToggleChanged carries the full toggle snapshot at the time of a change.
type ToggleChanged struct {
	Snapshot selection.Snapshot
}

// LoadReport summarizes a Load call. OutOfView lists loaded routes with at
// least one point outside the surface's viewport.
type LoadReport struct {
	Loaded    int      `json:"loaded"`
	Rejected  []error  `json:"-"`
	OutOfView []string `json:"outOfView,omitempty"`
	Duration  time.Duration
}

// RefreshResult describes one redraw
type RefreshResult struct {
	Seq       uint64                         `json:"seq"`
	Selection selection.Active               `json:"selection"`
	Drawn     []string                       `json:"drawn"`
	Stale     []*domain.StaleToggleReference `json:"-"`
}

// StaleIDs lists the skipped route ids.
func (r RefreshResult) StaleIDs() []string {
	ids := make([]string, len(r.Stale))
	for i, s := range r.Stale {
		ids[i] = s.RouteID
	}
	return ids
}

// Counters are cumulative controller statistics
type Counters struct {
	Refreshes       int64 `json:"refreshes"`
	StaleReferences int64 `json:"stale_references"`
	RejectedRoutes  int   `json:"rejected_routes"`
	OutOfViewRoutes int   `json:"out_of_view_routes"`
}

type Option func(*Controller)

// WithPublisher forwards every frame to p.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithSession overrides the generated session id.
func WithSession(id string) Option {
	return func(c *Controller) { c.session = id }
}

// Controller serializes every load and redraw behind one mutex, so each
// toggle change is fully resolved before the next one is looked at.
type Controller struct {
	mu sync.Mutex

	routes  *store.Store
	surface Surface
	toggles ToggleSet
	tables  TableSink

	publisher Publisher
	session   string
	logger    *slog.Logger

	state    State
	loaded   bool
	table    []domain.RouteMetrics
	rejected []error
	active   selection.Active
	frame    render.Frame
	last     RefreshResult
	seq      uint64
	counters Counters
}

func New(routes *store.Store, surface Surface, toggles ToggleSet, tables TableSink, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		routes:   routes,
		surface:  surface,
		toggles:  toggles,
		tables:  tables,
		session: uuid.New().String(),
		active:  selection.None(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.With("component", "dashboard", "session", c.session)
	return c
}

// Load builds the route list, computes the metrics table, populates the
// toggles and draws every route. Malformed routes are dropped and reported;
// they never fail the load.
func (c *Controller) Load(raw []domain.RawRoute) (LoadReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return LoadReport{}, ErrAlreadyLoaded
	}

	start := time.Now()
	routes, rejected := trajectory.Normalize(raw)
	for _, err := range rejected {
		c.logger.Warn("route rejected", "error", err)
	}

	c.routes.Replace(routes)
	outOfView := c.outOfView(routes)
	c.table = metrics.ComputeTable(routes)
	c.rejected = rejected
	c.counters.RejectedRoutes = len(rejected)
	c.counters.OutOfViewRoutes = len(outOfView)
	c.tables.RenderTable(c.table)

	// The all toggle starts checked so the widgets agree with the first paint.
	c.toggles.Populate(c.routes.IDs(), true)
	c.loaded = true

	c.redraw(selection.All())

	report := LoadReport{
		Loaded:    len(routes),
		Rejected:  rejected,
		OutOfView: outOfView,
		Duration:  time.Since(start),
	}
	c.logger.Info("dashboard loaded",
		"routes", report.Loaded,
		"rejected", len(rejected),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// HandleToggleChanged resolves the selection from the event's snapshot and
// redraws exactly the active routes.
func (c *Controller) HandleToggleChanged(ev ToggleChanged) (RefreshResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return RefreshResult{}, ErrNotLoaded
	}
	return c.redraw(selection.Resolve(ev.Snapshot)), nil
}

// OnToggleChanged is the toggle set's change callback. It redraws from the
// set's current snapshot and returns that redraw's result; before Load it
// does nothing and returns the zero result.
func (c *Controller) OnToggleChanged() RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.logger.Debug("toggle change before load ignored")
		return RefreshResult{}
	}
	return c.redraw(selection.Resolve(c.toggles.Snapshot()))
}

// outOfView warns about routes the fixed viewport cannot show in full. They
// are still drawn.
func (c *Controller) outOfView(routes []domain.Route) []string {
	vp := c.surface.Viewport()
	var ids []string
	for _, r := range routes {
		for _, p := range r.Points {
			if !vp.Contains(p.X, p.Y) {
				ids = append(ids, r.ID)
				c.logger.Warn("route leaves the viewport",
					"route_id", r.ID,
					"x", p.X,
					"y", p.Y,
				)
				break
			}
		}
	}
	return ids
}

func (c *Controller) redraw(active selection.Active) RefreshResult {
	c.state = StateRefreshing
	defer func() { c.state = StateIdle }()

	result := RefreshResult{Selection: active, Drawn: []string{}}

	if active.Mode == selection.ModeSubset {
		for _, id := range active.IDs {
			if c.routes.Has(id) {
				continue
			}
			ref := &domain.StaleToggleReference{RouteID: id}
			result.Stale = append(result.Stale, ref)
			c.logger.Warn("skipping stale toggle", "route_id", id, "error", ref)
		}
	}

	c.surface.Clear()
	for i, r := range c.routes.Snapshot() {
		if !active.Includes(r.ID) {
			continue
		}
		c.surface.DrawRoute(r.ID, r.Points, i)
		result.Drawn = append(result.Drawn, r.ID)
	}

	c.seq++
	result.Seq = c.seq
	c.active = active
	c.frame = render.Frame{
		Seq:       c.seq,
		Session:   c.session,
		Selection: active,
		Series:    c.surface.Drawn(),
		Viewport:  c.surface.Viewport(),
	}
	c.last = result
	c.counters.Refreshes++
	c.counters.StaleReferences += int64(len(result.Stale))

	if c.publisher != nil {
		c.publisher.Publish(c.frame)
	}

	c.logger.Debug("redraw completed",
		"seq", c.seq,
		"selection", active.Key(),
		"drawn", len(result.Drawn),
		"stale", len(result.Stale),
	)
	return result
}

// Metrics returns the summary table computed at load.
func (c *Controller) Metrics() []domain.RouteMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.RouteMetrics, len(c.table))
	copy(out, c.table)
	return out
}

// Routes returns the loaded route store.
func (c *Controller) Routes() *store.Store {
	return c.routes
}

func (c *Controller) Selection() selection.Active {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frame returns the most recent complete frame.
func (c *Controller) Frame() render.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// LastRefresh returns the result of the most recent redraw.
func (c *Controller) LastRefresh() RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Rejected returns the routes dropped at load.
func (c *Controller) Rejected() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.rejected))
	copy(out, c.rejected)
	return out
}

func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Controller) Session() string {
	return c.session
}

func (c *Controller) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}
