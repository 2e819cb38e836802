package handler

import (
	"net/http"
	"time"

	"trajview/internal/store"
)

// Readiness reports whether the dataset has been loaded.
type Readiness interface {
	IsReady() bool
}

type HealthHandler struct {
	ready Readiness
	store *store.Store
}

func NewHealthHandler(ready Readiness, s *store.Store) *HealthHandler {
	return &HealthHandler{
		ready: ready,
		store: s,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	RouteCount int       `json:"routeCount"`
	ServerTime time.Time `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadyResponse{
		Ready:      ready,
		RouteCount: h.store.Count(),
		ServerTime: time.Now(),
	})
}
