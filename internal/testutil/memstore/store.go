// Package memstore is an in-memory parcel and driver store.
// Transactions are serialized by a single lock and applied on commit only.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/ports/parceltx"
)

type state struct {
	parcels map[uuid.UUID]domain.Parcel
	drivers map[uuid.UUID]domain.Driver
}

func (s state) clone() state {
	out := state{
		parcels: make(map[uuid.UUID]domain.Parcel, len(s.parcels)),
		drivers: make(map[uuid.UUID]domain.Driver, len(s.drivers)),
	}
	for k, v := range s.parcels {
		out.parcels[k] = copyParcel(v)
	}
	for k, v := range s.drivers {
		out.drivers[k] = v
	}
	return out
}

func copyParcel(p domain.Parcel) domain.Parcel {
	if p.AssignedDriverID != nil {
		id := *p.AssignedDriverID
		p.AssignedDriverID = &id
	}
	if p.CurrentLocation != nil {
		v := *p.CurrentLocation
		p.CurrentLocation = &v
	}
	if p.CurrentLatitude != nil {
		v := *p.CurrentLatitude
		p.CurrentLatitude = &v
	}
	if p.CurrentLongitude != nil {
		v := *p.CurrentLongitude
		p.CurrentLongitude = &v
	}
	return p
}

// Store keeps parcels and drivers in memory.
type Store struct {
	mu    sync.Mutex
	st    state
	clock time.Time

	// BeforeWrite, when set, runs before every guarded write inside a transaction.
	// A non-nil error aborts the write.
	BeforeWrite func(op string, parcelID uuid.UUID) error
	// Txs counts started transactions.
	Txs int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		st: state{
			parcels: make(map[uuid.UUID]domain.Parcel),
			drivers: make(map[uuid.UUID]domain.Driver),
		},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// PutParcel stores p as is.
func (s *Store) PutParcel(p domain.Parcel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.tick()
	}
	s.st.parcels[p.ID] = copyParcel(p)
}

// PutDriver stores d as is.
func (s *Store) PutDriver(d domain.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.tick()
	}
	s.st.drivers[d.ID] = d
}

// Parcel returns a copy of the stored parcel.
func (s *Store) Parcel(id uuid.UUID) (domain.Parcel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.parcels[id]
	return copyParcel(p), ok
}

// Create inserts a parcel.
func (s *Store) Create(_ context.Context, p *domain.Parcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.parcels {
		if existing.TrackingCode == p.TrackingCode {
			return fmt.Errorf("%w: tracking code %s", apperr.ErrConflict, p.TrackingCode)
		}
	}
	if _, ok := s.st.parcels[p.ID]; ok {
		return fmt.Errorf("%w: parcel %s", apperr.ErrConflict, p.ID)
	}
	p.CreatedAt = s.tick()
	s.st.parcels[p.ID] = copyParcel(*p)
	return nil
}

// GetByID returns the parcel or (nil, nil).
func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.byID(id), nil
}

// GetByTrackingCode returns the parcel or (nil, nil).
func (s *Store) GetByTrackingCode(_ context.Context, code string) (*domain.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.byCode(code), nil
}

// GetTrackingView returns the projection or (nil, nil).
func (s *Store) GetTrackingView(_ context.Context, code string) (*domain.TrackingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.st.byCode(code)
	if p == nil {
		return nil, nil
	}
	v := &domain.TrackingView{TrackingCode: p.TrackingCode, Status: p.Status, AssignedDriver: domain.NotAssigned}
	if p.AssignedDriverID != nil {
		if d, ok := s.st.drivers[*p.AssignedDriverID]; ok {
			v.AssignedDriver = d.Name
		}
	}
	return v, nil
}

// List returns one page of matching parcels, newest first.
func (s *Store) List(_ context.Context, f domain.ListFilter) (domain.ParcelList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []domain.DashboardRow
	for _, p := range s.st.parcels {
		if f.SenderID != nil && p.SenderID != *f.SenderID {
			continue
		}
		if f.DriverID != nil && !p.DeliveredBy(*f.DriverID) {
			continue
		}
		row := domain.DashboardRow{Parcel: copyParcel(p)}
		if p.AssignedDriverID != nil {
			if d, ok := s.st.drivers[*p.AssignedDriverID]; ok {
				name := d.Name
				row.DriverName = &name
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})

	out := domain.ParcelList{Count: len(rows), Page: f.Page, Rows: []domain.DashboardRow{}}
	from := f.Page.Offset()
	if from < len(rows) {
		to := min(from+f.Page.Size, len(rows))
		out.Rows = rows[from:to]
	}
	return out, nil
}

// CountByStatus returns the number of parcels per status.
func (s *Store) CountByStatus(context.Context) (map[domain.ParcelStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.ParcelStatus]int)
	for _, p := range s.st.parcels {
		out[p.Status]++
	}
	return out, nil
}

// WithTx runs fn against a private copy and publishes it if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx parceltx.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Txs++

	tx := &txRepo{st: s.st.clone(), hook: s.BeforeWrite}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (st state) byID(id uuid.UUID) *domain.Parcel {
	p, ok := st.parcels[id]
	if !ok {
		return nil
	}
	cp := copyParcel(p)
	return &cp
}

func (st state) byCode(code string) *domain.Parcel {
	for _, p := range st.parcels {
		if p.TrackingCode == code {
			cp := copyParcel(p)
			return &cp
		}
	}
	return nil
}

type txRepo struct {
	st   state
	hook func(op string, parcelID uuid.UUID) error
}

func (t *txRepo) GetParcelForUpdate(_ context.Context, id uuid.UUID) (*domain.Parcel, error) {
	return t.st.byID(id), nil
}

func (t *txRepo) GetParcelByTrackingCodeForUpdate(_ context.Context, code string) (*domain.Parcel, error) {
	return t.st.byCode(code), nil
}

func (t *txRepo) GetDriver(_ context.Context, id uuid.UUID) (*domain.Driver, error) {
	d, ok := t.st.drivers[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (t *txRepo) GetDriverForUpdate(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	return t.GetDriver(ctx, id)
}

func (t *txRepo) CountActiveByDriver(_ context.Context, driverID uuid.UUID) (int, error) {
	n := 0
	for _, p := range t.st.parcels {
		if p.DeliveredBy(driverID) && p.Status.Active() {
			n++
		}
	}
	return n, nil
}

// guard loads the parcel for a write and applies the hook.
func (t *txRepo) guard(op string, id uuid.UUID) (domain.Parcel, error) {
	if t.hook != nil {
		if err := t.hook(op, id); err != nil {
			return domain.Parcel{}, err
		}
	}
	p, ok := t.st.parcels[id]
	if !ok {
		return domain.Parcel{}, fmt.Errorf("%w: parcel %s vanished", apperr.ErrConflict, id)
	}
	return p, nil
}

func (t *txRepo) AssignDriver(_ context.Context, parcelID, driverID uuid.UUID) error {
	p, err := t.guard("assign", parcelID)
	if err != nil {
		return err
	}
	if p.Status != domain.StatusPending || p.AssignedDriverID != nil {
		return fmt.Errorf("%w: parcel %s changed concurrently", apperr.ErrConflict, parcelID)
	}
	if _, ok := t.st.drivers[driverID]; !ok {
		return fmt.Errorf("driver %s does not exist", driverID)
	}
	id := driverID
	p.AssignedDriverID = &id
	p.Status = domain.StatusAssigned
	t.st.parcels[parcelID] = p
	return nil
}

func (t *txRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.ParcelStatus) error {
	p, err := t.guard("status", id)
	if err != nil {
		return err
	}
	if p.Status != from {
		return fmt.Errorf("%w: parcel %s is no longer %s", apperr.ErrConflict, id, from)
	}
	p.Status = to
	t.st.parcels[id] = p
	return nil
}

func (t *txRepo) UpdateLocation(
	_ context.Context, id uuid.UUID, from, to domain.ParcelStatus, loc domain.LocationUpdate,
) error {
	p, err := t.guard("location", id)
	if err != nil {
		return err
	}
	if p.Status != from {
		return fmt.Errorf("%w: parcel %s is no longer %s", apperr.ErrConflict, id, from)
	}
	p.Status = to
	if loc.Latitude != nil {
		v := *loc.Latitude
		p.CurrentLatitude = &v
	}
	if loc.Longitude != nil {
		v := *loc.Longitude
		p.CurrentLongitude = &v
	}
	if loc.CurrentLocation != nil {
		v := *loc.CurrentLocation
		p.CurrentLocation = &v
	}
	t.st.parcels[id] = p
	return nil
}

func (t *txRepo) UpdateDetails(_ context.Context, id uuid.UUID, u domain.PartialParcelUpdate) error {
	p, err := t.guard("details", id)
	if err != nil {
		return err
	}
	if p.Status != domain.StatusPending {
		return fmt.Errorf("%w: parcel %s is no longer pending", apperr.ErrConflict, id)
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.RecipientName, u.RecipientName)
	set(&p.RecipientAddress, u.RecipientAddress)
	set(&p.RecipientPhone, u.RecipientPhone)
	set(&p.Origin, u.Origin)
	set(&p.Destination, u.Destination)
	t.st.parcels[id] = p
	return nil
}

func (t *txRepo) MarkPaid(_ context.Context, id uuid.UUID) error {
	p, err := t.guard("mark_paid", id)
	if err != nil {
		return err
	}
	if p.PaymentStatus != domain.PaymentPending {
		return fmt.Errorf("%w: parcel %s payment changed concurrently", apperr.ErrConflict, id)
	}
	p.PaymentStatus = domain.PaymentPaid
	t.st.parcels[id] = p
	return nil
}

var (
	_ parceltx.Runner     = (*Store)(nil)
	_ parceltx.Repository = (*txRepo)(nil)
)
