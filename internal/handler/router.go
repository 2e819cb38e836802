package handler

import (
	"log/slog"
	"net/http"

	"trajview/internal/middleware"
	"trajview/internal/render"
)

// Router bundles the handlers served by the dashboard.
type Router struct {
	HTTP    *HTTPHandler
	WS      *WSHandler
	Health  *HealthHandler
	Stats   *StatsHandler
	Limiter *middleware.RateLimiter
	Logger  *slog.Logger
}

// Handler builds the root handler. The socket endpoint bypasses the gzip and
// logging wrappers, which would hide the connection hijacker.
func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /v1/routes", rt.HTTP.ListRoutes)
	api.HandleFunc("GET /v1/routes/{id}", rt.HTTP.GetRoute)
	api.HandleFunc("GET /v1/metrics", rt.HTTP.GetMetrics)
	api.HandleFunc("GET /v1/selection", rt.HTTP.GetSelection)

	api.Handle("POST /v1/toggles", rt.limit(http.HandlerFunc(rt.HTTP.PostToggles)))
	api.Handle("PUT /v1/toggles/{id}", rt.limit(http.HandlerFunc(rt.HTTP.PutToggle)))

	api.HandleFunc("GET /v1/scene", rt.HTTP.GetScene)
	api.HandleFunc("GET /v1/scene.png", rt.HTTP.SceneArtifact(render.FormatPNG))
	api.HandleFunc("GET /v1/scene.svg", rt.HTTP.SceneArtifact(render.FormatSVG))
	api.HandleFunc("GET /v1/scene.geojson", rt.HTTP.SceneArtifact(render.FormatGeoJSON))
	api.HandleFunc("GET /v1/scene/chart", rt.HTTP.SceneArtifact(render.FormatHTML))

	api.HandleFunc("GET /v1/stats", rt.Stats.GetStats)
	api.HandleFunc("GET /healthz", rt.Health.Healthz)
	api.HandleFunc("GET /readyz", rt.Health.Readyz)

	root := http.NewServeMux()
	root.HandleFunc("/v1/ws", rt.WS.ServeWS)
	root.Handle("/", LoggingMiddleware(rt.Logger)(CORSMiddleware(GzipMiddleware(api))))
	return root
}

func (rt *Router) limit(next http.Handler) http.Handler {
	if rt.Limiter == nil {
		return next
	}
	return rt.Limiter.Middleware(next)
}
