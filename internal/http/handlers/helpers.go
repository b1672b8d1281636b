package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Warn("json encode failed", logx.String("request_id", reqID(r.Context())), logx.Err(err))
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	logger.Debug("http error",
		logx.String("request_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("code", code),
		logx.String("msg", msg),
	)
	writeJSON(logger, w, r, status, ErrorResponse{Code: code, Error: msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalid),
		errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrAlreadyAssigned),
		errors.Is(err, apperr.ErrDriverOverloaded),
		errors.Is(err, apperr.ErrAlreadyPaid),
		errors.Is(err, apperr.ErrPaymentDeclined):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError answers with the code and message of a service error.
// Errors outside the taxonomy are logged and hidden behind a generic message.
func writeAppError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		msg = "not found"
	case !apperr.Known(err), errors.Is(err, apperr.ErrProcessing):
		logger.Error("request failed",
			logx.String("request_id", reqID(r.Context())),
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Err(err),
		)
		msg = "internal error, please retry"
	}
	writeError(logger, w, r, status, apperr.Code(err), msg)
}

const (
	bodyLimit = 1 << 20
)

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "ValidationError", "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "ValidationError", "invalid json: trailing data")
		return false
	}
	return true
}

func uuidFromURL(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Invalidf("invalid %s", name)
	}
	return id, nil
}

func pageFromQuery(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	num := func(key string) (int, error) {
		s := q.Get(key)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, apperr.Invalidf("invalid %s", key)
		}
		return v, nil
	}
	page, err := num("page")
	if err != nil {
		return domain.Page{}, err
	}
	size, err := num("page_size")
	if err != nil {
		return domain.Page{}, err
	}
	return domain.NewPage(page, size)
}
