package handlers

import (
	"net/http"
	"strconv"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// DriverHandler serves HTTP endpoints for driver resources.
type DriverHandler struct {
	uc     driverUsecase
	logger logx.Logger
}

// NewDriverHandler wires a driverUsecase into HTTP handlers.
func NewDriverHandler(logger logx.Logger, uc driverUsecase) *DriverHandler {
	return &DriverHandler{uc: uc, logger: logger}
}

// GetByID handles GET /drivers/{id}.
func (h *DriverHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	d, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, driverToResponse(*d))
}

// List handles GET /drivers.
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limitPtr, offsetPtr *int
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeAppError(h.logger, w, r, apperr.Invalidf("invalid limit"))
			return
		}
		limitPtr = &v
	}
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeAppError(h.logger, w, r, apperr.Invalidf("invalid offset"))
			return
		}
		offsetPtr = &v
	}

	list, err := h.uc.List(r.Context(), limitPtr, offsetPtr)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, driversToResponse(list))
}

// Create handles POST /drivers.
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDriverRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	d := req.toModel()
	if err := h.uc.Create(r.Context(), d); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/drivers/"+d.ID.String())
	writeJSON(h.logger, w, r, http.StatusCreated, driverToResponse(*d))
}

// Update handles PATCH /drivers/{id}.
func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	var req updateDriverRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	d, err := h.uc.UpdatePartial(r.Context(), domain.PartialDriverUpdate{
		ID:            id,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, driverToResponse(*d))
}
