package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
)

// Driver is a delivery driver. ID is the driver's account id.
type Driver struct {
	ID            uuid.UUID
	Name          string
	Phone         string
	Email         string
	LicenseNumber string
	CreatedAt     time.Time
}

// Validate checks the driver fields for creation.
func (d *Driver) Validate() error {
	if d.ID == uuid.Nil {
		return apperr.Invalidf("id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return apperr.Invalidf("name is required")
	}
	if !ValidatePhone(d.Phone) {
		return apperr.Invalidf("phone must be 9-15 digits, optionally starting with '+'")
	}
	if !ValidateEmail(d.Email) {
		return apperr.Invalidf("email is invalid")
	}
	if strings.TrimSpace(d.LicenseNumber) == "" {
		return apperr.Invalidf("license_number is required")
	}
	return nil
}

// PartialDriverUpdate carries optional fields to update a driver.
// A nil field means “do not change” that attribute.
type PartialDriverUpdate struct {
	ID            uuid.UUID
	Name          *string
	Phone         *string
	Email         *string
	LicenseNumber *string
}

// Validate checks the set fields.
func (u *PartialDriverUpdate) Validate() error {
	if u.ID == uuid.Nil {
		return apperr.Invalidf("id is required")
	}
	if u.Name == nil && u.Phone == nil && u.Email == nil && u.LicenseNumber == nil {
		return apperr.Invalidf("no fields to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperr.Invalidf("name must not be empty")
	}
	if u.Phone != nil && !ValidatePhone(*u.Phone) {
		return apperr.Invalidf("phone must be 9-15 digits, optionally starting with '+'")
	}
	if u.Email != nil && !ValidateEmail(*u.Email) {
		return apperr.Invalidf("email is invalid")
	}
	if u.LicenseNumber != nil && strings.TrimSpace(*u.LicenseNumber) == "" {
		return apperr.Invalidf("license_number must not be empty")
	}
	return nil
}

// ValidateEmail validates a bare e-mail address.
func ValidateEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
