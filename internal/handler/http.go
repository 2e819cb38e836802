package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trajview/internal/dashboard"
	"trajview/internal/domain"
	"trajview/internal/render"
	"trajview/internal/selection"
	"trajview/internal/store"
	"trajview/internal/toggle"
)

const maxBodyBytes = 1 << 20

// ArtifactCache stores rendered artifacts per scene key and the metrics
// table of the loaded dataset. Optional.
type ArtifactCache interface {
	Scene(ctx context.Context, sceneKey, format string) ([]byte, bool)
	PutScene(ctx context.Context, sceneKey, format string, data []byte)
	Metrics(ctx context.Context) ([]domain.RouteMetrics, bool)
}

type toggleBoard = toggle.Board[dashboard.RefreshResult]

type HTTPHandler struct {
	ctrl      *dashboard.Controller
	board     *toggleBoard
	table     *render.Table
	artifacts *render.Artifacts
	cache     ArtifactCache
	logger    *slog.Logger
}

func NewHTTPHandler(ctrl *dashboard.Controller, board *toggleBoard, table *render.Table, artifacts *render.Artifacts, cache ArtifactCache, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		ctrl:      ctrl,
		board:     board,
		table:     table,
		artifacts: artifacts,
		cache:     cache,
		logger:    logger.With("component", "http_handler"),
	}
}

type RoutesResponse struct {
	Routes     []store.RouteSummary `json:"routes"`
	Count      int                  `json:"count"`
	Rejected   []string             `json:"rejected,omitempty"`
	ServerTime time.Time            `json:"serverTime"`
}

func (h *HTTPHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}
	routes := h.ctrl.Routes().List()
	resp := RoutesResponse{
		Routes:     routes,
		Count:      len(routes),
		ServerTime: time.Now(),
	}
	for _, err := range h.ctrl.Rejected() {
		resp.Rejected = append(resp.Rejected, err.Error())
	}
	respondJSON(w, http.StatusOK, resp)
}

type RouteResponse struct {
	ID         string              `json:"id"`
	ColorIndex int                 `json:"colorIndex"`
	Color      string              `json:"color"`
	Points     []domain.Point      `json:"points"`
	Metrics    domain.RouteMetrics `json:"metrics"`
}

func (h *HTTPHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing route id")
		return
	}

	route, idx, ok := h.ctrl.Routes().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "route not found")
		return
	}

	resp := RouteResponse{
		ID:         route.ID,
		ColorIndex: idx,
		Color:      render.Style(idx).Name,
		Points:     route.Points,
	}
	if ms := h.ctrl.Metrics(); idx < len(ms) {
		resp.Metrics = ms[idx]
	}
	respondJSON(w, http.StatusOK, resp)
}

type MetricsResponse struct {
	Columns []string              `json:"columns"`
	Rows    []render.Row          `json:"rows"`
	Metrics []domain.RouteMetrics `json:"metrics"`
}

func (h *HTTPHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}

	ms, cacheHit := h.cachedMetrics(r.Context())
	if !cacheHit {
		ms = h.table.Metrics()
	}
	h.logger.Debug("metrics served", "routes", len(ms), "cache_hit", cacheHit)

	respondJSON(w, http.StatusOK, MetricsResponse{
		Columns: render.Columns,
		Rows:    render.RowsFor(ms),
		Metrics: ms,
	})
}

func (h *HTTPHandler) cachedMetrics(ctx context.Context) ([]domain.RouteMetrics, bool) {
	if h.cache == nil {
		return nil, false
	}
	ms, ok := h.cache.Metrics(ctx)
	if ok {
		ServerStats.IncCacheHits()
	} else {
		ServerStats.IncCacheMisses()
	}
	return ms, ok
}

type SelectionResponse struct {
	Seq       uint64             `json:"seq"`
	Selection selection.Active   `json:"selection"`
	Toggles   selection.Snapshot `json:"toggles"`
	State     string             `json:"state"`
}

func (h *HTTPHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}
	frame := h.ctrl.Frame()
	respondJSON(w, http.StatusOK, SelectionResponse{
		Seq:       frame.Seq,
		Selection: frame.Selection,
		Toggles:   h.board.Snapshot(),
		State:     h.ctrl.State().String(),
	})
}

type RefreshResponse struct {
	Seq       uint64           `json:"seq"`
	Selection selection.Active `json:"selection"`
	Drawn     []string         `json:"drawn"`
	Stale     []string         `json:"stale"`
}

func refreshResponse(res dashboard.RefreshResult) RefreshResponse {
	return RefreshResponse{
		Seq:       res.Seq,
		Selection: res.Selection,
		Drawn:     res.Drawn,
		Stale:     res.StaleIDs(),
	}
}

// PostToggles replaces the whole toggle state with the posted snapshot.
func (h *HTTPHandler) PostToggles(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}

	var snap selection.Snapshot
	if err := decodeBody(r, &snap); err != nil {
		respondError(w, http.StatusBadRequest, "invalid toggle snapshot: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, refreshResponse(h.board.Apply(snap)))
}

type ToggleRequest struct {
	Checked *bool `json:"checked"`
}

// PutToggle checks or unchecks a single toggle; "drawall" is the all toggle.
func (h *HTTPHandler) PutToggle(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}

	var req ToggleRequest
	if err := decodeBody(r, &req); err != nil || req.Checked == nil {
		respondError(w, http.StatusBadRequest, `body must be {"checked": true|false}`)
		return
	}

	id := r.PathValue("id")
	res, err := h.board.Set(id, *req.Checked)
	if err != nil {
		if errors.Is(err, toggle.ErrUnknownToggle) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, refreshResponse(res))
}

type ProjectedSceneResponse struct {
	Seq       uint64                   `json:"seq"`
	Selection selection.Active         `json:"selection"`
	Width     float64                  `json:"width"`
	Height    float64                  `json:"height"`
	Margin    render.Margin            `json:"margin"`
	Series    []render.ProjectedSeries `json:"series"`
}

// GetScene returns the current frame. With width and height query
// parameters the series come back in canvas pixels instead.
func (h *HTTPHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	if !h.requireLoaded(w) {
		return
	}

	q := r.URL.Query()
	if q.Get("width") == "" && q.Get("height") == "" {
		respondJSON(w, http.StatusOK, h.ctrl.Frame())
		return
	}

	width, werr := strconv.ParseFloat(q.Get("width"), 64)
	height, herr := strconv.ParseFloat(q.Get("height"), 64)
	m := render.DefaultMargin
	if werr != nil || herr != nil || width <= m.Left+m.Right || height <= m.Top+m.Bottom {
		respondError(w, http.StatusBadRequest, "width and height must both be numbers larger than the margins")
		return
	}

	frame := h.ctrl.Frame()
	respondJSON(w, http.StatusOK, ProjectedSceneResponse{
		Seq:       frame.Seq,
		Selection: frame.Selection,
		Width:     width,
		Height:    height,
		Margin:    m,
		Series:    frame.Project(width, height, m),
	})
}

// SceneArtifact serves the current frame rendered in one format.
func (h *HTTPHandler) SceneArtifact(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireLoaded(w) {
			return
		}

		frame := h.ctrl.Frame()
		key := h.artifacts.SceneKey(frame)
		etag := sceneETag(frame.Session, key, format)

		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		data, ok := h.cachedScene(r.Context(), key, format)
		if !ok {
			start := time.Now()
			var err error
			data, _, err = h.artifacts.Render(frame, format)
			if err != nil {
				h.logger.Error("render failed", "format", format, "selection", key, "error", err)
				respondError(w, http.StatusInternalServerError, "render failed")
				return
			}
			h.logger.Debug("rendered scene",
				"format", format,
				"selection", key,
				"size_bytes", len(data),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if h.cache != nil {
				h.cache.PutScene(r.Context(), key, format, data)
			}
		}

		w.Header().Set("Content-Type", render.ContentType(format))
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (h *HTTPHandler) cachedScene(ctx context.Context, key, format string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	data, ok := h.cache.Scene(ctx, key, format)
	if ok {
		ServerStats.IncCacheHits()
	} else {
		ServerStats.IncCacheMisses()
	}
	return data, ok
}

// A frame's content depends only on the session's routes and the scene key.
func sceneETag(session, sceneKey, format string) string {
	sum := sha256.Sum256([]byte(session + "\x00" + sceneKey + "\x00" + format))
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

func (h *HTTPHandler) requireLoaded(w http.ResponseWriter) bool {
	if h.ctrl.Loaded() {
		return true
	}
	respondError(w, http.StatusServiceUnavailable, "dataset not loaded")
	return false
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
