package handlers

import (
	"errors"
	"io"
	"net/http"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/gateway/payments"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/logx"
)

const webhookBodyLimit = 64 << 10

// PaymentHandler serves the direct payment call and the processor webhook.
type PaymentHandler struct {
	uc     paymentUsecase
	parser eventParser
	logger logx.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(logger logx.Logger, uc paymentUsecase, parser eventParser) *PaymentHandler {
	return &PaymentHandler{uc: uc, parser: parser, logger: logger}
}

// Pay handles POST /parcels/{id}/pay.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	by, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := uuidFromURL(r, "id")
	if err != nil {
		writeAppError(h.logger, w, r, apperr.ErrNotFound)
		return
	}
	var req payRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.uc.Pay(r.Context(), by, id, req.PaymentMethodID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, payResponse{
		TrackingCode:  res.TrackingCode,
		PaymentStatus: res.PaymentStatus,
		ClientSecret:  res.ClientSecret,
	})
}

// Webhook handles POST /webhooks/payment.
// Only a bad signature is rejected; everything else is acknowledged so the
// processor does not redeliver.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookBodyLimit))
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "ValidationError", "unreadable body")
		return
	}

	ev, err := h.parser.Parse(payload, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrBadSignature):
		h.logger.Warn("webhook signature rejected", logx.String("request_id", reqID(r.Context())), logx.Err(err))
		writeError(h.logger, w, r, http.StatusBadRequest, "ValidationError", "invalid signature")
		return
	case err != nil:
		h.logger.Error("webhook payload rejected", logx.String("request_id", reqID(r.Context())), logx.Err(err))
		writeJSON(h.logger, w, r, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.uc.HandleEvent(r.Context(), ev); err != nil {
		h.logger.Error("webhook event handling failed",
			logx.String("request_id", reqID(r.Context())),
			logx.String("event_id", ev.ID),
			logx.String("tracking_code", ev.TrackingCode),
			logx.Err(err),
		)
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]bool{"received": true})
}
