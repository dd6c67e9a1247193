package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
)

// Deps are the collaborators the router serves.
type Deps struct {
	// Canvas backs /canvas and /canvas.png.
	Canvas *store.Canvas

	// Sessions handles /ws.
	Sessions http.Handler

	// Metrics handles /metrics. Nil leaves the route unmounted.
	Metrics http.Handler

	// StaticDir is served for unmatched paths. Empty disables it.
	StaticDir string
}

// NewRouter wires every HTTP route.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	h := &handler{canvas: d.Canvas}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/ws", d.Sessions.ServeHTTP)
	r.Get("/canvas", h.snapshot)
	r.Get("/canvas.png", h.png)
	r.Get("/api/v1/palette", h.palette)

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.ServeHTTP)
	}

	if d.StaticDir != "" {
		r.NotFound(http.FileServer(http.Dir(d.StaticDir)).ServeHTTP)
	} else {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			jsonErr(w, http.StatusNotFound, "not found")
		})
	}

	return r
}
