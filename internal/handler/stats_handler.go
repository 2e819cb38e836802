package handler

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"trajview/internal/dashboard"
	"trajview/internal/hub"
	"trajview/internal/middleware"
)

// Stats tracks server-wide metrics
type Stats struct {
	startTime        time.Time
	requestCount     atomic.Int64
	wsConnections    atomic.Int64
	wsMessagesIn     atomic.Int64
	wsMessagesOut    atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	rateLimitBlocked atomic.Int64
}

// Global stats instance
var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()         { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections()    { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections()    { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()     { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut()    { s.wsMessagesOut.Add(1) }
func (s *Stats) IncCacheHits()        { s.cacheHits.Add(1) }
func (s *Stats) IncCacheMisses()      { s.cacheMisses.Add(1) }
func (s *Stats) IncRateLimitBlocked() { s.rateLimitBlocked.Add(1) }

// DatasetInfo describes the loaded dataset.
type DatasetInfo interface {
	Fingerprint() string
	Source() string
}

type StatsHandler struct {
	ctrl    *dashboard.Controller
	hub     *hub.Hub
	dataset DatasetInfo
	limiter *middleware.RateLimiter
}

func NewStatsHandler(ctrl *dashboard.Controller, h *hub.Hub, dataset DatasetInfo, limiter *middleware.RateLimiter) *StatsHandler {
	return &StatsHandler{
		ctrl:    ctrl,
		hub:     h,
		dataset: dataset,
		limiter: limiter,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse        `json:"server"`
	Dataset   DatasetStatsResponse       `json:"dataset"`
	Dashboard DashboardStatsResponse     `json:"dashboard"`
	WebSocket WebSocketStatsResponse     `json:"websocket"`
	Cache     CacheStatsResponse         `json:"cache"`
	RateLimit *middleware.RateLimitStats `json:"rate_limit,omitempty"`
	Go        GoStatsResponse            `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	RateLimited   int64     `json:"rate_limited"`
	Version       string    `json:"version"`
}

type DatasetStatsResponse struct {
	Loaded      bool   `json:"loaded"`
	Source      string `json:"source,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Routes      int    `json:"routes"`
	Rejected    int    `json:"rejected"`
	OutOfView   int    `json:"out_of_view"`
}

type DashboardStatsResponse struct {
	Session         string `json:"session"`
	State           string `json:"state"`
	Seq             uint64 `json:"seq"`
	Selection       string `json:"selection"`
	Refreshes       int64  `json:"refreshes"`
	StaleReferences int64  `json:"stale_references"`
	// Drawn and LastStale describe the most recent redraw.
	Drawn     []string `json:"drawn"`
	LastStale []string `json:"last_stale,omitempty"`
}

type WebSocketStatsResponse struct {
	Connections     int64 `json:"connections"`
	Clients         int   `json:"clients"`
	MessagesIn      int64 `json:"messages_in"`
	MessagesOut     int64 `json:"messages_out"`
	FramesPublished int64 `json:"frames_published"`
	FramesDropped   int64 `json:"frames_dropped"`
}

type CacheStatsResponse struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hits := ServerStats.cacheHits.Load()
	misses := ServerStats.cacheMisses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	frame := h.ctrl.Frame()
	counters := h.ctrl.Counters()
	last := h.ctrl.LastRefresh()

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
			RateLimited:   ServerStats.rateLimitBlocked.Load(),
			Version:       "1.0.0",
		},
		Dataset: DatasetStatsResponse{
			Loaded:   h.ctrl.Loaded(),
			Routes:   h.ctrl.Routes().Count(),
			Rejected:  counters.RejectedRoutes,
			OutOfView: counters.OutOfViewRoutes,
		},
		Dashboard: DashboardStatsResponse{
			Session:         h.ctrl.Session(),
			State:           h.ctrl.State().String(),
			Seq:             frame.Seq,
			Selection:       frame.Selection.Key(),
			Refreshes:       counters.Refreshes,
			StaleReferences: counters.StaleReferences,
			Drawn:           last.Drawn,
			LastStale:       last.StaleIDs(),
		},
		WebSocket: WebSocketStatsResponse{
			Connections:     ServerStats.wsConnections.Load(),
			Clients:         h.hub.ClientCount(),
			MessagesIn:      ServerStats.wsMessagesIn.Load(),
			MessagesOut:     ServerStats.wsMessagesOut.Load(),
			FramesPublished: h.hub.Published(),
			FramesDropped:   h.hub.Dropped(),
		},
		Cache: CacheStatsResponse{
			Hits:   hits,
			Misses: misses,
			Ratio:  ratio,
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}

	if h.dataset != nil {
		response.Dataset.Source = h.dataset.Source()
		response.Dataset.Fingerprint = h.dataset.Fingerprint()
	}
	if h.limiter != nil {
		rl := h.limiter.Stats()
		response.RateLimit = &rl
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, response)
}
