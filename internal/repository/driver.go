package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
)

const driverColumns = `id, name, phone, email, license_number, created_at`

func scanDriver(row pgx.Row, id uuid.UUID) (*domain.Driver, error) {
	var d domain.Driver
	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Email, &d.LicenseNumber, &d.CreatedAt); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver %s: %w", id, err)
	}
	return &d, nil
}

// DriverRepo represents driver repository.
type DriverRepo struct{ db *pgxpool.Pool }

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(db *pgxpool.Pool) *DriverRepo { return &DriverRepo{db: db} }

// Get - returns driver by its ID.
func (r *DriverRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	return scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`, id), id)
}

// List returns drivers ordered by name. If limit/offset are nil, returns the full list.
func (r *DriverRepo) List(ctx context.Context, limit, offset *int) ([]domain.Driver, error) {
	q := `SELECT ` + driverColumns + ` FROM drivers ORDER BY name, id`
	args := make([]any, 0, 2)
	if limit != nil {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}
	if offset != nil {
		q += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, *offset)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	capacity := 0
	if limit != nil && *limit > 0 {
		capacity = *limit
	}
	out := make([]domain.Driver, 0, capacity)
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Email, &d.LicenseNumber, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create - inserts a driver and fills CreatedAt.
func (r *DriverRepo) Create(ctx context.Context, d *domain.Driver) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO drivers(id,name,phone,email,license_number) VALUES($1,$2,$3,$4,$5) RETURNING created_at`,
		d.ID, d.Name, d.Phone, d.Email, d.LicenseNumber).Scan(&d.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create driver: %w", err)
	}
	return nil
}

// UpdatePartial applies a partial update to a driver and returns true if a row was affected.
func (r *DriverRepo) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE drivers
        SET
            name           = COALESCE($2, name),
            phone          = COALESCE($3, phone),
            email          = COALESCE($4, email),
            license_number = COALESCE($5, license_number)
        WHERE id = $1
    `, u.ID, u.Name, u.Phone, u.Email, u.LicenseNumber)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update driver %s: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}
