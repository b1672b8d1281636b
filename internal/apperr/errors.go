package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist
// or the caller is not allowed to see it.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates concurrent-write contention or a uniqueness conflict.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition is returned when a status edge is not defined.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrAlreadyAssigned is returned when the parcel already has a driver.
var ErrAlreadyAssigned = errors.New("parcel already assigned")

// ErrDriverOverloaded is returned when the driver has no free capacity left.
var ErrDriverOverloaded = errors.New("driver has too many active parcels")

// ErrAlreadyPaid is returned by the direct payment path when the parcel is paid.
var ErrAlreadyPaid = errors.New("parcel is already paid for")

// ErrPaymentDeclined is returned when the processor declines the charge.
var ErrPaymentDeclined = errors.New("payment declined")

// ErrProcessing is a transient or unexpected failure; the caller may retry.
var ErrProcessing = errors.New("processing error")

// Declined wraps ErrPaymentDeclined with the processor's reason.
func Declined(reason string) error {
	if reason == "" {
		return ErrPaymentDeclined
	}
	return fmt.Errorf("%w: %s", ErrPaymentDeclined, reason)
}

// Invalidf wraps ErrInvalid with a field-level explanation.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, "NotFound"},
	{ErrInvalid, "ValidationError"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrAlreadyAssigned, "AlreadyAssigned"},
	{ErrDriverOverloaded, "DriverOverloaded"},
	{ErrAlreadyPaid, "AlreadyPaid"},
	{ErrPaymentDeclined, "PaymentDeclined"},
	{ErrConflict, "Conflict"},
	{ErrProcessing, "ProcessingError"},
}

// Code returns the stable caller-visible code for err.
// Errors outside the taxonomy are reported as ProcessingError.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "ProcessingError"
}

// Known reports whether err belongs to the taxonomy.
func Known(err error) bool {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return true
		}
	}
	return false
}
