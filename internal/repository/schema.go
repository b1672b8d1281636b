package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the parcel platform tables.
const Schema = `
CREATE TABLE IF NOT EXISTS drivers (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	phone          TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL UNIQUE,
	license_number TEXT NOT NULL UNIQUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS parcels (
	id                 UUID PRIMARY KEY,
	tracking_code      TEXT NOT NULL UNIQUE,
	sender_id          UUID NOT NULL,
	sender_email       TEXT NOT NULL DEFAULT '',
	sender_phone       TEXT NOT NULL DEFAULT '',
	recipient_name     TEXT NOT NULL,
	recipient_address  TEXT NOT NULL,
	recipient_phone    TEXT NOT NULL,
	origin             TEXT NOT NULL,
	destination        TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'assigned', 'in_transit', 'delivered', 'confirmed', 'cancelled')),
	assigned_driver_id UUID REFERENCES drivers(id),
	current_location   TEXT,
	current_latitude   DOUBLE PRECISION CHECK (current_latitude BETWEEN -90 AND 90),
	current_longitude  DOUBLE PRECISION CHECK (current_longitude BETWEEN -180 AND 180),
	price_cents        BIGINT NOT NULL CHECK (price_cents >= 0),
	payment_status     TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'paid')),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (status = 'cancelled' OR (assigned_driver_id IS NOT NULL) = (status <> 'pending'))
);

CREATE INDEX IF NOT EXISTS parcels_driver_status_idx ON parcels (assigned_driver_id, status);
CREATE INDEX IF NOT EXISTS parcels_sender_idx ON parcels (sender_id, created_at DESC);
`

// EnsureSchema applies Schema. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
