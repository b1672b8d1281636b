package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
)

// Drivers is the driver view of a Store.
type Drivers struct{ s *Store }

// Drivers returns the driver repository sharing s's state.
func (s *Store) Drivers() *Drivers { return &Drivers{s: s} }

// Get returns the driver or (nil, nil).
func (d *Drivers) Get(_ context.Context, id uuid.UUID) (*domain.Driver, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	v, ok := d.s.st.drivers[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// List returns drivers ordered by name.
func (d *Drivers) List(_ context.Context, limit, offset *int) ([]domain.Driver, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	out := make([]domain.Driver, 0, len(d.s.st.drivers))
	for _, v := range d.s.st.drivers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if offset != nil {
		out = out[min(*offset, len(out)):]
	}
	if limit != nil {
		out = out[:min(*limit, len(out))]
	}
	return out, nil
}

func (d *Drivers) clash(self uuid.UUID, phone, email, license string) bool {
	for id, v := range d.s.st.drivers {
		if id == self {
			continue
		}
		if v.Phone == phone || v.Email == email || v.LicenseNumber == license {
			return true
		}
	}
	return false
}

// Create inserts a driver.
func (d *Drivers) Create(_ context.Context, v *domain.Driver) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.st.drivers[v.ID]; ok || d.clash(v.ID, v.Phone, v.Email, v.LicenseNumber) {
		return apperr.ErrConflict
	}
	v.CreatedAt = d.s.tick()
	d.s.st.drivers[v.ID] = *v
	return nil
}

// UpdatePartial applies set fields and reports whether the driver exists.
func (d *Drivers) UpdatePartial(_ context.Context, u domain.PartialDriverUpdate) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	v, ok := d.s.st.drivers[u.ID]
	if !ok {
		return false, nil
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Phone != nil {
		v.Phone = *u.Phone
	}
	if u.Email != nil {
		v.Email = *u.Email
	}
	if u.LicenseNumber != nil {
		v.LicenseNumber = *u.LicenseNumber
	}
	if d.clash(v.ID, v.Phone, v.Email, v.LicenseNumber) {
		return false, apperr.ErrConflict
	}
	d.s.st.drivers[u.ID] = v
	return true, nil
}
