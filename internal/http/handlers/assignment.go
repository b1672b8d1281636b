package handlers

import (
	"net/http"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/logx"
)

// AssignmentHandler serves driver assignment.
type AssignmentHandler struct {
	uc     assignmentUsecase
	logger logx.Logger
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(logger logx.Logger, uc assignmentUsecase) *AssignmentHandler {
	return &AssignmentHandler{uc: uc, logger: logger}
}

// Assign handles POST /parcels/{id}/assign-driver/{driverId}.
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	parcelID, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}
	driverID, err := uuidFromURL(r, "driverId")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}

	res, err := h.uc.Assign(r.Context(), parcelID, driverID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(res))
}
