package handlers

import (
	"service-parcel-platform/internal/domain"
)

func (r createParcelRequest) toModel() (domain.NewParcel, error) {
	price, err := domain.ParsePrice(r.Price.String())
	if err != nil {
		return domain.NewParcel{}, err
	}
	return domain.NewParcel{
		RecipientName:    r.RecipientName,
		RecipientAddress: r.RecipientAddress,
		RecipientPhone:   r.RecipientPhone,
		Origin:           r.Origin,
		Destination:      r.Destination,
		CurrentLocation:  r.CurrentLocation,
		CurrentLatitude:  r.CurrentLatitude,
		CurrentLongitude: r.CurrentLongitude,
		Price:            price,
	}, nil
}

func (r updateParcelRequest) toModel() domain.PartialParcelUpdate {
	return domain.PartialParcelUpdate{
		RecipientName:    r.RecipientName,
		RecipientAddress: r.RecipientAddress,
		RecipientPhone:   r.RecipientPhone,
		Origin:           r.Origin,
		Destination:      r.Destination,
	}
}

func (r locationRequest) toModel() domain.LocationUpdate {
	return domain.LocationUpdate{
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		CurrentLocation: r.CurrentLocation,
	}
}

func parcelToResponse(p domain.Parcel) parcelDTO {
	address, phone := p.RecipientAddress, p.RecipientPhone
	return parcelDTO{
		ID:               p.ID,
		TrackingCode:     p.TrackingCode,
		SenderID:         p.SenderID,
		RecipientName:    p.RecipientName,
		RecipientAddress: &address,
		RecipientPhone:   &phone,
		Origin:           p.Origin,
		Destination:      p.Destination,
		Status:           p.Status,
		AssignedDriver:   p.AssignedDriverID,
		CurrentLocation:  p.CurrentLocation,
		CurrentLatitude:  p.CurrentLatitude,
		CurrentLongitude: p.CurrentLongitude,
		Price:            p.Price.String(),
		PaymentStatus:    p.PaymentStatus,
		CreatedAt:        p.CreatedAt,
	}
}

func listToResponse(l domain.ParcelList) listResponse {
	out := listResponse{
		Count:    l.Count,
		Page:     l.Page.Number,
		PageSize: l.Page.Size,
		Results:  make([]dashboardRowDTO, 0, len(l.Rows)),
	}
	for _, row := range l.Rows {
		dto := dashboardRowDTO{parcelDTO: parcelToResponse(row.Parcel), DriverName: row.DriverName}
		if row.ContactHidden {
			dto.RecipientAddress = nil
			dto.RecipientPhone = nil
		}
		out.Results = append(out.Results, dto)
	}
	return out
}

func assignResultToResponse(r domain.AssignResult) assignResponse {
	return assignResponse{
		ParcelID:     r.ParcelID,
		TrackingCode: r.TrackingCode,
		DriverID:     r.DriverID,
		DriverName:   r.DriverName,
		Status:       r.Status,
	}
}

func (r createDriverRequest) toModel() *domain.Driver {
	return &domain.Driver{
		ID:            r.ID,
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		LicenseNumber: r.LicenseNumber,
	}
}

func driverToResponse(d domain.Driver) driverDTO {
	return driverDTO{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		Email:         d.Email,
		LicenseNumber: d.LicenseNumber,
		CreatedAt:     d.CreatedAt,
	}
}

func driversToResponse(list []domain.Driver) []driverDTO {
	out := make([]driverDTO, 0, len(list))
	for _, d := range list {
		out = append(out, driverToResponse(d))
	}
	return out
}
