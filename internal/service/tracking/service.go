package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// TTL holds cache expiry per status class.
type TTL struct {
	Settled time.Duration
	Active  time.Duration
}

// For returns the expiry for a projection in status s.
func (t TTL) For(s domain.ParcelStatus) time.Duration {
	if s.Settled() {
		return t.Settled
	}
	return t.Active
}

// Service serves tracking projections through a read cache.
type Service struct {
	store            viewStore
	cache            cache.Cache
	ttl              TTL
	counter          cacheCounter
	logger           logx.Logger
	operationTimeout time.Duration
}

// NewService creates a tracking service.
func NewService(store viewStore, c cache.Cache, ttl TTL, counter cacheCounter, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if counter == nil {
		counter = nopCounter{}
	}
	return &Service{
		store:            store,
		cache:            c,
		ttl:              ttl,
		counter:          counter,
		logger:           logger,
		operationTimeout: timeout,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Track returns the projection for code, from cache when fresh.
func (s *Service) Track(ctx context.Context, code string) (domain.TrackingView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.TrackingView{}, apperr.Invalidf("tracking code is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.cache.Get(ctx, code)
	switch {
	case err == nil:
		var v domain.TrackingView
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			s.counter.Hit()
			return v, nil
		}
		s.logger.Warn("tracking cache entry corrupted", logx.String("tracking_code", code))
	case !errors.Is(err, cache.ErrMiss):
		// кэш недоступен: читаем из базы
		s.logger.Warn("tracking cache get failed", logx.String("tracking_code", code), logx.Err(err))
	}
	s.counter.Miss()

	// поколение читаем до базы: инвалидация после этой точки отменит запись в кэш
	gen, genErr := s.cache.Generation(ctx, code)
	if genErr != nil {
		s.logger.Warn("tracking cache generation failed", logx.String("tracking_code", code), logx.Err(genErr))
	}

	v, err := s.store.GetTrackingView(ctx, code)
	if err != nil {
		return domain.TrackingView{}, err
	}
	if v == nil {
		return domain.TrackingView{}, apperr.ErrNotFound
	}

	if genErr == nil {
		s.fill(ctx, code, *v, gen)
	}
	return *v, nil
}

func (s *Service) fill(ctx context.Context, code string, v domain.TrackingView, gen uint64) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	stored, err := s.cache.SetIfGeneration(ctx, code, raw, s.ttl.For(v.Status), gen)
	switch {
	case err != nil:
		s.logger.Warn("tracking cache set failed", logx.String("tracking_code", code), logx.Err(err))
	case !stored:
		s.logger.Debug("tracking cache fill skipped: invalidated meanwhile", logx.String("tracking_code", code))
	}
}

// Invalidate drops the cached projection of code and rejects fills that started before it.
// It runs even when ctx is already cancelled: the write it follows has committed.
func (s *Service) Invalidate(ctx context.Context, code string) error {
	ctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	if err := s.cache.Invalidate(ctx, code); err != nil {
		return fmt.Errorf("invalidate tracking %s: %w", code, err)
	}
	s.logger.Debug("tracking cache invalidated", logx.String("tracking_code", code))
	return nil
}
