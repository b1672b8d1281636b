package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

type parcelDTO struct {
	ID               uuid.UUID            `json:"id"`
	TrackingCode     string               `json:"tracking_code"`
	SenderID         uuid.UUID            `json:"sender_id"`
	RecipientName    string               `json:"recipient_name"`
	RecipientAddress *string              `json:"recipient_address"`
	RecipientPhone   *string              `json:"recipient_phone"`
	Origin           string               `json:"origin"`
	Destination      string               `json:"destination"`
	Status           domain.ParcelStatus  `json:"status"`
	AssignedDriver   *uuid.UUID           `json:"assigned_driver"`
	CurrentLocation  *string              `json:"current_location"`
	CurrentLatitude  *float64             `json:"current_latitude"`
	CurrentLongitude *float64             `json:"current_longitude"`
	Price            string               `json:"price"`
	PaymentStatus    domain.PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time            `json:"created_at"`
}

type dashboardRowDTO struct {
	parcelDTO
	DriverName *string `json:"driver_name"`
}

type listResponse struct {
	Count    int               `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Results  []dashboardRowDTO `json:"results"`
}

// price accepts both a JSON number and a decimal string.
type createParcelRequest struct {
	RecipientName    string      `json:"recipient_name"`
	RecipientAddress string      `json:"recipient_address"`
	RecipientPhone   string      `json:"recipient_phone"`
	Origin           string      `json:"origin"`
	Destination      string      `json:"destination"`
	Price            json.Number `json:"price"`
	CurrentLocation  *string     `json:"current_location,omitempty"`
	CurrentLatitude  *float64    `json:"current_latitude,omitempty"`
	CurrentLongitude *float64    `json:"current_longitude,omitempty"`
}

type updateParcelRequest struct {
	RecipientName    *string `json:"recipient_name,omitempty"`
	RecipientAddress *string `json:"recipient_address,omitempty"`
	RecipientPhone   *string `json:"recipient_phone,omitempty"`
	Origin           *string `json:"origin,omitempty"`
	Destination      *string `json:"destination,omitempty"`
}

type locationRequest struct {
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	CurrentLocation *string  `json:"current_location,omitempty"`
}

type statusRequest struct {
	Status domain.ParcelStatus `json:"status"`
}

type payRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type payResponse struct {
	TrackingCode  string               `json:"tracking_code"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	ClientSecret  string               `json:"client_secret"`
}

type assignResponse struct {
	ParcelID     uuid.UUID           `json:"parcel_id"`
	TrackingCode string              `json:"tracking_code"`
	DriverID     uuid.UUID           `json:"driver_id"`
	DriverName   string              `json:"driver_name"`
	Status       domain.ParcelStatus `json:"status"`
}

type driverDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"license_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type createDriverRequest struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"license_number"`
}

type updateDriverRequest struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	LicenseNumber *string `json:"license_number,omitempty"`
}
