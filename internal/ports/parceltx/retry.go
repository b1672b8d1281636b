package parceltx

import (
	"context"
	"errors"

	"service-parcel-platform/internal/apperr"
)

// WithRetry runs fn in a transaction and, if the store reports apperr.ErrConflict,
// runs it once more in a fresh transaction so every read is repeated.
func WithRetry(ctx context.Context, r Runner, fn func(tx Repository) error) error {
	err := r.WithTx(ctx, fn)
	if !errors.Is(err, apperr.ErrConflict) || ctx.Err() != nil {
		return err
	}
	return r.WithTx(ctx, fn)
}
