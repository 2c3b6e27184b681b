package statusapi

import (
	"encoding/json"
	"net/http"
)

// Handler serves the status API's read-only JSON endpoints.
type Handler struct {
	registry *Registry
}

// NewHandler creates a Handler reporting on registry.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Liveness handles GET /health - always 200 while the process is up.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Flows handles GET /flows - a snapshot of every currently running flow.
func (h *Handler) Flows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"count": h.registry.Count(),
		"flows": h.registry.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
