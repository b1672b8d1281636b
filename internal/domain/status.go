package domain

import (
	"fmt"

	"service-parcel-platform/internal/apperr"
)

type (
	// ParcelStatus represents the delivery status of a parcel.
	ParcelStatus string
	// PaymentStatus represents the payment status of a parcel.
	PaymentStatus string
)

// List of parcel statuses
const (
	StatusPending   ParcelStatus = "pending"
	StatusAssigned  ParcelStatus = "assigned"
	StatusInTransit ParcelStatus = "in_transit"
	StatusDelivered ParcelStatus = "delivered"
	StatusConfirmed ParcelStatus = "confirmed"
	StatusCancelled ParcelStatus = "cancelled"
)

// List of payment statuses
const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

var allowedStatuses = [...]ParcelStatus{
	StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusConfirmed, StatusCancelled,
}

// Statuses returns every parcel status in lifecycle order.
func Statuses() []ParcelStatus {
	return append([]ParcelStatus(nil), allowedStatuses[:]...)
}

// transitions lists the allowed edges of the parcel lifecycle.
var transitions = map[ParcelStatus][]ParcelStatus{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusInTransit, StatusDelivered, StatusCancelled},
	StatusInTransit: {StatusDelivered},
	StatusDelivered: {StatusConfirmed},
}

// Valid checks if the ParcelStatus is valid
func (s ParcelStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Final reports whether no transition leaves s.
func (s ParcelStatus) Final() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Settled reports whether the status is unlikely to change again.
// Delivered is settled even though it can still move to confirmed.
func (s ParcelStatus) Settled() bool {
	return s == StatusDelivered || s.Final()
}

// Active reports whether a parcel in this status counts against driver capacity.
func (s ParcelStatus) Active() bool {
	return s == StatusAssigned || s == StatusInTransit
}

// HasDriver reports whether a parcel in this status must have a bound driver.
func (s ParcelStatus) HasDriver() bool {
	switch s {
	case StatusAssigned, StatusInTransit, StatusDelivered, StatusConfirmed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the edge s -> next exists.
func (s ParcelStatus) CanTransitionTo(next ParcelStatus) bool {
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Valid checks if the PaymentStatus is valid
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// CheckTransition validates moving from -> to.
func CheckTransition(from, to ParcelStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, from, to)
	}
	return nil
}
