package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/ports/parceltx"
)

const parcelColumns = `p.id, p.tracking_code, p.sender_id, p.sender_email, p.sender_phone,
	p.recipient_name, p.recipient_address, p.recipient_phone, p.origin, p.destination,
	p.status, p.assigned_driver_id, p.current_location, p.current_latitude, p.current_longitude,
	p.price_cents, p.payment_status, p.created_at`

func parcelDest(p *domain.Parcel) []any {
	return []any{
		&p.ID, &p.TrackingCode, &p.SenderID, &p.SenderEmail, &p.SenderPhone,
		&p.RecipientName, &p.RecipientAddress, &p.RecipientPhone, &p.Origin, &p.Destination,
		&p.Status, &p.AssignedDriverID, &p.CurrentLocation, &p.CurrentLatitude, &p.CurrentLongitude,
		&p.Price, &p.PaymentStatus, &p.CreatedAt,
	}
}

func scanParcel(row pgx.Row, what string) (*domain.Parcel, error) {
	var p domain.Parcel
	if err := row.Scan(parcelDest(&p)...); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parcel %s: %w", what, err)
	}
	return &p, nil
}

// ParcelRepo represents parcel repository.
type ParcelRepo struct {
	db *pgxpool.Pool
}

// NewParcelRepo creates a new ParcelRepo.
func NewParcelRepo(db *pgxpool.Pool) *ParcelRepo {
	return &ParcelRepo{db: db}
}

// Create inserts a parcel and fills CreatedAt. A duplicate tracking code yields apperr.ErrConflict.
func (r *ParcelRepo) Create(ctx context.Context, p *domain.Parcel) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO parcels (id, tracking_code, sender_id, sender_email, sender_phone,
            recipient_name, recipient_address, recipient_phone, origin, destination,
            status, current_location, current_latitude, current_longitude, price_cents, payment_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING created_at
    `, p.ID, p.TrackingCode, p.SenderID, p.SenderEmail, p.SenderPhone,
		p.RecipientName, p.RecipientAddress, p.RecipientPhone, p.Origin, p.Destination,
		p.Status, p.CurrentLocation, p.CurrentLatitude, p.CurrentLongitude, p.Price, p.PaymentStatus,
	).Scan(&p.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("%w: tracking code %s", apperr.ErrConflict, p.TrackingCode)
		}
		return fmt.Errorf("create parcel: %w", err)
	}
	return nil
}

// GetByID returns parcel by its ID.
func (r *ParcelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error) {
	row := r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels p WHERE p.id = $1`, id)
	return scanParcel(row, id.String())
}

// GetByTrackingCode returns parcel by its tracking code.
func (r *ParcelRepo) GetByTrackingCode(ctx context.Context, code string) (*domain.Parcel, error) {
	row := r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels p WHERE p.tracking_code = $1`, code)
	return scanParcel(row, code)
}

// GetTrackingView returns the public projection with the driver's name resolved.
func (r *ParcelRepo) GetTrackingView(ctx context.Context, code string) (*domain.TrackingView, error) {
	var (
		v    domain.TrackingView
		name *string
	)
	err := r.db.QueryRow(ctx, `
        SELECT p.tracking_code, p.status, d.name
        FROM parcels p
        LEFT JOIN drivers d ON d.id = p.assigned_driver_id
        WHERE p.tracking_code = $1
    `, code).Scan(&v.TrackingCode, &v.Status, &name)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tracking view %s: %w", code, err)
	}
	v.AssignedDriver = domain.NotAssigned
	if name != nil {
		v.AssignedDriver = *name
	}
	return &v, nil
}

// List returns one page of parcels matching f, newest first, with the total count.
func (r *ParcelRepo) List(ctx context.Context, f domain.ListFilter) (domain.ParcelList, error) {
	var (
		where []string
		args  []any
	)
	if f.SenderID != nil {
		args = append(args, *f.SenderID)
		where = append(where, fmt.Sprintf("p.sender_id = $%d", len(args)))
	}
	if f.DriverID != nil {
		args = append(args, *f.DriverID)
		where = append(where, fmt.Sprintf("p.assigned_driver_id = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	out := domain.ParcelList{Page: f.Page}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parcels p`+cond, args...).Scan(&out.Count); err != nil {
		return out, fmt.Errorf("count parcels: %w", err)
	}

	q := `SELECT ` + parcelColumns + `, d.name FROM parcels p
        LEFT JOIN drivers d ON d.id = p.assigned_driver_id` + cond +
		fmt.Sprintf(` ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Page.Size, f.Page.Offset())

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return out, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	out.Rows = make([]domain.DashboardRow, 0, f.Page.Size)
	for rows.Next() {
		var row domain.DashboardRow
		if err := rows.Scan(append(parcelDest(&row.Parcel), &row.DriverName)...); err != nil {
			return out, fmt.Errorf("scan parcel: %w", err)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

// CountByStatus returns the number of parcels per status.
func (r *ParcelRepo) CountByStatus(ctx context.Context) (map[domain.ParcelStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM parcels GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count parcels by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ParcelStatus]int)
	for rows.Next() {
		var (
			s domain.ParcelStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// WithTx opens a transaction and executes fn within it.
func (r *ParcelRepo) WithTx(ctx context.Context, fn func(tx parceltx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// откатываем при панике
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return asConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return asConflict(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetParcelForUpdate locks the parcel row.
func (r *TxRepo) GetParcelForUpdate(ctx context.Context, id uuid.UUID) (*domain.Parcel, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels p WHERE p.id = $1 FOR UPDATE`, id)
	return scanParcel(row, id.String())
}

// GetParcelByTrackingCodeForUpdate locks the parcel row found by tracking code.
func (r *TxRepo) GetParcelByTrackingCodeForUpdate(ctx context.Context, code string) (*domain.Parcel, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels p WHERE p.tracking_code = $1 FOR UPDATE`, code)
	return scanParcel(row, code)
}

// GetDriver reads a driver without locking it.
func (r *TxRepo) GetDriver(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	return scanDriver(r.tx.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id), id)
}

// GetDriverForUpdate locks the driver row. Concurrent assignments to one driver queue here.
func (r *TxRepo) GetDriverForUpdate(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	return scanDriver(r.tx.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1 FOR UPDATE`, id), id)
}

// CountActiveByDriver counts the driver's assigned and in-transit parcels.
func (r *TxRepo) CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM parcels
        WHERE assigned_driver_id = $1 AND status IN ($2, $3)
    `, driverID, domain.StatusAssigned, domain.StatusInTransit).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active parcels of driver %s: %w", driverID, err)
	}
	return n, nil
}

func casResult(rows int64, what string) error {
	if rows == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, what)
	}
	return nil
}

// AssignDriver binds the driver, expecting a pending parcel with no driver.
func (r *TxRepo) AssignDriver(ctx context.Context, parcelID, driverID uuid.UUID) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE parcels
        SET assigned_driver_id = $2, status = $3
        WHERE id = $1 AND status = $4 AND assigned_driver_id IS NULL
    `, parcelID, driverID, domain.StatusAssigned, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("assign driver %s to parcel %s: %w", driverID, parcelID, err)
	}
	return casResult(ct.RowsAffected(), "parcel "+parcelID.String()+" changed concurrently")
}

// UpdateStatus moves the parcel from -> to.
func (r *TxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ParcelStatus) error {
	ct, err := r.tx.Exec(ctx, `UPDATE parcels SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("update parcel %s status: %w", id, err)
	}
	return casResult(ct.RowsAffected(), "parcel "+id.String()+" is no longer "+string(from))
}

// UpdateLocation stores the reported position; nil fields keep their value.
func (r *TxRepo) UpdateLocation(
	ctx context.Context, id uuid.UUID, from, to domain.ParcelStatus, loc domain.LocationUpdate,
) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE parcels
        SET status            = $3,
            current_latitude  = COALESCE($4, current_latitude),
            current_longitude = COALESCE($5, current_longitude),
            current_location  = COALESCE($6, current_location)
        WHERE id = $1 AND status = $2
    `, id, from, to, loc.Latitude, loc.Longitude, loc.CurrentLocation)
	if err != nil {
		return fmt.Errorf("update parcel %s location: %w", id, err)
	}
	return casResult(ct.RowsAffected(), "parcel "+id.String()+" is no longer "+string(from))
}

// UpdateDetails applies sender edits to a pending parcel.
func (r *TxRepo) UpdateDetails(ctx context.Context, id uuid.UUID, u domain.PartialParcelUpdate) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE parcels
        SET recipient_name    = COALESCE($3, recipient_name),
            recipient_address = COALESCE($4, recipient_address),
            recipient_phone   = COALESCE($5, recipient_phone),
            origin            = COALESCE($6, origin),
            destination       = COALESCE($7, destination)
        WHERE id = $1 AND status = $2
    `, id, domain.StatusPending, u.RecipientName, u.RecipientAddress, u.RecipientPhone, u.Origin, u.Destination)
	if err != nil {
		return fmt.Errorf("update parcel %s: %w", id, err)
	}
	return casResult(ct.RowsAffected(), "parcel "+id.String()+" is no longer pending")
}

// MarkPaid sets payment_status to paid, expecting it to be pending.
func (r *TxRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE parcels SET payment_status = $2
        WHERE id = $1 AND payment_status = $3
    `, id, domain.PaymentPaid, domain.PaymentPending)
	if err != nil {
		return fmt.Errorf("mark parcel %s paid: %w", id, err)
	}
	return casResult(ct.RowsAffected(), "parcel "+id.String()+" payment changed concurrently")
}

var (
	_ parceltx.Runner     = (*ParcelRepo)(nil)
	_ parceltx.Repository = (*TxRepo)(nil)
)
