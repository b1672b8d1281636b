package domain

import "github.com/google/uuid"

// EventKind is the kind of committed parcel change.
type EventKind string

// List of event kinds
const (
	EventStatusChanged  EventKind = "status_changed"
	EventDriverAssigned EventKind = "driver_assigned"
)

// TransitionEvent describes a committed change of status or driver.
// Parcel is the state after the commit.
type TransitionEvent struct {
	Kind   EventKind
	Parcel Parcel
	From   ParcelStatus
	Driver *Driver
}

// Channel is a notification delivery channel.
type Channel string

// List of channels
const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Notification is a single message to a single recipient.
type Notification struct {
	ID           uuid.UUID `json:"id"`
	Channel      Channel   `json:"channel"`
	To           string    `json:"to"`
	Subject      string    `json:"subject,omitempty"`
	Body         string    `json:"body"`
	TrackingCode string    `json:"tracking_code"`
}

// PaymentEventType is the processor event type.
type PaymentEventType string

// List of processor event types handled by the service
const (
	PaymentSucceeded PaymentEventType = "payment_intent.succeeded"
	PaymentFailed    PaymentEventType = "payment_intent.payment_failed"
)

// PaymentEvent is a verified asynchronous processor notification.
type PaymentEvent struct {
	ID            string
	Type          PaymentEventType
	IntentID      string
	TrackingCode  string
	FailureReason string
}

// ChargeRequest asks the processor to charge a payment method.
type ChargeRequest struct {
	TrackingCode    string
	Amount          Price
	Currency        string
	PaymentMethodID string
	Description     string
}

// ChargeResult is an accepted processor charge. Succeeded is false when the
// processor needs further customer action before the funds are captured.
type ChargeResult struct {
	IntentID     string
	ClientSecret string
	Succeeded    bool
}

// PaymentResult is returned to the caller of the direct payment path.
type PaymentResult struct {
	TrackingCode  string
	PaymentStatus PaymentStatus
	ClientSecret  string
}

// AssignResult is the outcome of binding a driver to a parcel.
type AssignResult struct {
	ParcelID     uuid.UUID
	TrackingCode string
	DriverID     uuid.UUID
	DriverName   string
	Status       ParcelStatus
}
