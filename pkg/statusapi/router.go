package statusapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the status API, mirroring the
// teacher's health-route composition.
//
// Routes:
//   - GET /health - liveness probe
//   - GET /flows - snapshot of every running flow
func NewRouter(registry *Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	h := NewHandler(registry)
	r.Get("/health", h.Liveness)
	r.Get("/flows", h.Flows)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/health", http.StatusTemporaryRedirect)
	})

	return r
}
