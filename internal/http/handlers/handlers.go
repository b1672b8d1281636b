package handlers

import (
	"net/http"

	"service-parcel-platform/internal/logx"
)

// Handlers holds HTTP handlers dependencies (logger, etc.).
type Handlers struct {
	Logger logx.Logger
}

// New creates a Handlers instance. A nil logger discards output.
func New(logger logx.Logger) *Handlers {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Handlers{Logger: logger}
}

// Ping handles GET /ping and returns 200 with {"message":"pong"}.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, map[string]string{"message": "pong"})
}

// HealthcheckHead handles HEAD /healthcheck and returns 204 No Content.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFound returns a JSON 404 error for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, "NotFound", "route not found")
}

// MethodNotAllowed returns a JSON 405 error.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
}
