package kafka

import (
	"strings"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

// NotificationDTO is the wire form of a queued notification.
type NotificationDTO struct {
	ID           string `json:"id"`
	Channel      string `json:"channel"`
	To           string `json:"to"`
	Subject      string `json:"subject,omitempty"`
	Body         string `json:"body"`
	TrackingCode string `json:"tracking_code"`
}

// FromDomain converts a notification to its wire form.
func FromDomain(n domain.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           n.ID.String(),
		Channel:      string(n.Channel),
		To:           n.To,
		Subject:      n.Subject,
		Body:         n.Body,
		TrackingCode: n.TrackingCode,
	}
}

// ToDomain converts the wire form back. A missing or malformed id yields uuid.Nil.
func ToDomain(dto NotificationDTO) domain.Notification {
	id, _ := uuid.Parse(strings.TrimSpace(dto.ID))
	return domain.Notification{
		ID:           id,
		Channel:      domain.Channel(strings.TrimSpace(dto.Channel)),
		To:           strings.TrimSpace(dto.To),
		Subject:      dto.Subject,
		Body:         dto.Body,
		TrackingCode: strings.TrimSpace(dto.TrackingCode),
	}
}
