package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/logx"
)

// ParcelHandler serves the parcel lifecycle endpoints.
type ParcelHandler struct {
	uc     parcelUsecase
	logger logx.Logger
}

// NewParcelHandler creates a ParcelHandler.
func NewParcelHandler(logger logx.Logger, uc parcelUsecase) *ParcelHandler {
	return &ParcelHandler{uc: uc, logger: logger}
}

func (h *ParcelHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	return p, ok
}

// Create handles POST /parcels.
func (h *ParcelHandler) Create(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createParcelRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	in, err := req.toModel()
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	p, err := h.uc.Create(r.Context(), by, in)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/parcels/"+p.ID.String())
	writeJSON(h.logger, w, r, http.StatusCreated, parcelToResponse(*p))
}

// Get handles GET /parcels/{id}.
func (h *ParcelHandler) Get(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}

	p, err := h.uc.Get(r.Context(), by, id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}

// List handles GET /parcels: the caller's own parcels.
func (h *ParcelHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.uc.List)
}

// Dashboard handles GET /dashboard.
func (h *ParcelHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.uc.Dashboard)
}

func (h *ParcelHandler) list(
	w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error),
) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	out, err := fetch(r.Context(), by, page)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, listToResponse(out))
}

// Update handles PATCH /parcels/{id}.
func (h *ParcelHandler) Update(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}
	var req updateParcelRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.Update(r.Context(), by, id, req.toModel())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}

// Cancel handles POST /parcels/{id}/cancel.
func (h *ParcelHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}

	p, err := h.uc.Cancel(r.Context(), by, id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}

// UpdateLocation handles PATCH /parcels/{id}/update-location.
func (h *ParcelHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.UpdateLocation(r.Context(), by, id, req.toModel())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}

// SetStatus handles PATCH /parcels/{id}/status.
func (h *ParcelHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}
	var req statusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.SetStatus(r.Context(), by, id, req.Status)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}

// Confirm handles PATCH /parcels/confirm/{trackingCode}.
func (h *ParcelHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	by, ok := h.principal(w, r)
	if !ok {
		return
	}

	p, err := h.uc.Confirm(r.Context(), by, chi.URLParam(r, "trackingCode"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, parcelToResponse(*p))
}
