package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
)

// Price is an amount in minor currency units (cents).
type Price int64

// ParsePrice parses a decimal amount with at most two fractional digits ("10", "10.5", "10.00").
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperr.Invalidf("price is required")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, apperr.Invalidf("price %q must have at most two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || strings.HasPrefix(whole, "+") {
		return 0, apperr.Invalidf("price %q is not a decimal number", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 || strings.ContainsAny(frac, "+-") {
		return 0, apperr.Invalidf("price %q is not a decimal number", s)
	}
	if units < 0 || strings.HasPrefix(whole, "-") {
		return 0, apperr.Invalidf("price must be non-negative")
	}
	if units > (math.MaxInt64-cents)/100 {
		return 0, apperr.Invalidf("price %q is too large", s)
	}
	return Price(units*100 + cents), nil
}

// MinorUnits returns the amount charged by the payment processor.
func (p Price) MinorUnits() int64 { return int64(p) }

// String formats the price with two decimal places.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// Parcel is a shipment tracked through the delivery lifecycle.
type Parcel struct {
	ID               uuid.UUID
	TrackingCode     string
	SenderID         uuid.UUID
	SenderEmail      string
	SenderPhone      string
	RecipientName    string
	RecipientAddress string
	RecipientPhone   string
	Origin           string
	Destination      string
	Status           ParcelStatus
	AssignedDriverID *uuid.UUID
	CurrentLocation  *string
	CurrentLatitude  *float64
	CurrentLongitude *float64
	Price            Price
	PaymentStatus    PaymentStatus
	CreatedAt        time.Time
}

// OwnedBy reports whether the principal sent the parcel.
func (p *Parcel) OwnedBy(id uuid.UUID) bool {
	return p.SenderID == id
}

// DeliveredBy reports whether the parcel is bound to the driver.
func (p *Parcel) DeliveredBy(driverID uuid.UUID) bool {
	return p.AssignedDriverID != nil && *p.AssignedDriverID == driverID
}

// NewParcel carries the sender-provided fields of a parcel.
type NewParcel struct {
	RecipientName    string
	RecipientAddress string
	RecipientPhone   string
	Origin           string
	Destination      string
	CurrentLocation  *string
	CurrentLatitude  *float64
	CurrentLongitude *float64
	Price            Price
}

// Validate checks the new parcel fields.
func (n *NewParcel) Validate() error {
	if strings.TrimSpace(n.RecipientName) == "" {
		return apperr.Invalidf("recipient_name is required")
	}
	if strings.TrimSpace(n.RecipientAddress) == "" {
		return apperr.Invalidf("recipient_address is required")
	}
	if !ValidatePhone(n.RecipientPhone) {
		return apperr.Invalidf("recipient_phone must be 9-15 digits, optionally starting with '+'")
	}
	if strings.TrimSpace(n.Origin) == "" {
		return apperr.Invalidf("origin is required")
	}
	if strings.TrimSpace(n.Destination) == "" {
		return apperr.Invalidf("destination is required")
	}
	if n.Price < 0 {
		return apperr.Invalidf("price must be non-negative")
	}
	return ValidateCoordinates(n.CurrentLatitude, n.CurrentLongitude)
}

// PartialParcelUpdate carries optional sender-editable fields.
// A nil field means “do not change” that attribute.
type PartialParcelUpdate struct {
	RecipientName    *string
	RecipientAddress *string
	RecipientPhone   *string
	Origin           *string
	Destination      *string
}

// Empty reports whether no field is set.
func (u *PartialParcelUpdate) Empty() bool {
	return u.RecipientName == nil && u.RecipientAddress == nil && u.RecipientPhone == nil &&
		u.Origin == nil && u.Destination == nil
}

// Validate checks the set fields.
func (u *PartialParcelUpdate) Validate() error {
	if u.Empty() {
		return apperr.Invalidf("no fields to update")
	}
	for name, v := range map[string]*string{
		"recipient_name":    u.RecipientName,
		"recipient_address": u.RecipientAddress,
		"origin":            u.Origin,
		"destination":       u.Destination,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return apperr.Invalidf("%s must not be empty", name)
		}
	}
	if u.RecipientPhone != nil && !ValidatePhone(*u.RecipientPhone) {
		return apperr.Invalidf("recipient_phone must be 9-15 digits, optionally starting with '+'")
	}
	return nil
}

// LocationUpdate is a driver-reported position. Nil fields are left unchanged.
type LocationUpdate struct {
	Latitude        *float64
	Longitude       *float64
	CurrentLocation *string
}

// Validate checks ranges and that at least one field is present.
func (l *LocationUpdate) Validate() error {
	if l.Latitude == nil && l.Longitude == nil && l.CurrentLocation == nil {
		return apperr.Invalidf("no location fields provided")
	}
	return ValidateCoordinates(l.Latitude, l.Longitude)
}

// ValidateCoordinates checks latitude/longitude ranges; nil values are allowed.
func ValidateCoordinates(lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return apperr.Invalidf("latitude %v out of range [-90, 90]", *lat)
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return apperr.Invalidf("longitude %v out of range [-180, 180]", *lng)
	}
	return nil
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// TrackingView is the public projection served by the tracking endpoint.
type TrackingView struct {
	TrackingCode   string       `json:"tracking_code"`
	Status         ParcelStatus `json:"status"`
	AssignedDriver string       `json:"assigned_driver"`
}

// NotAssigned is shown in the tracking view when no driver is bound.
const NotAssigned = "Not Assigned"

// DashboardRow is a parcel listing row with the driver's name resolved.
// ContactHidden marks rows whose recipient address and phone must not be shown.
type DashboardRow struct {
	Parcel
	DriverName    *string
	ContactHidden bool
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+?\d{9,15}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
