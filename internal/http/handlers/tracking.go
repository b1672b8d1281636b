package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-parcel-platform/internal/logx"
)

// TrackingHandler serves the tracking projection.
type TrackingHandler struct {
	uc     trackingUsecase
	logger logx.Logger
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(logger logx.Logger, uc trackingUsecase) *TrackingHandler {
	return &TrackingHandler{uc: uc, logger: logger}
}

// Track handles GET /parcels/{id}/track, where {id} is the tracking code.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, v)
}
