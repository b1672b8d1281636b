// Package queue runs notification delivery on in-process workers.
package queue

import (
	"context"
	"errors"
	"sync"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// ErrFull is returned by Enqueue when the buffer is full.
var ErrFull = errors.New("notification queue is full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("notification queue is closed")

type sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Local is a bounded channel drained by a fixed pool of workers.
type Local struct {
	ch      chan domain.Notification
	sender  sender
	workers int
	logger  logx.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewLocal creates a queue with the given buffer and worker count.
func NewLocal(s sender, size, workers int, logger logx.Logger) *Local {
	if size <= 0 {
		size = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &Local{
		ch:      make(chan domain.Notification, size),
		sender:  s,
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. Cancelling ctx does not stop them: they run until Close
// drains the buffer or its deadline passes, so requests finishing during shutdown still
// get their notifications out. ctx only supplies values.
func (q *Local) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
}

func (q *Local) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-q.ch:
			if !ok {
				return
			}
			// ошибки уже залогированы отправителем
			_ = q.sender.Send(ctx, n)
			q.logger.Debug("notification processed",
				logx.Int("worker", id),
				logx.String("tracking_code", n.TrackingCode),
			)
		}
	}
}

// Enqueue buffers n without blocking.
func (q *Local) Enqueue(_ context.Context, n domain.Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- n:
		return nil
	default:
		return ErrFull
	}
}

// Close stops accepting work and waits for the workers to drain the buffer or for ctx.
func (q *Local) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if q.cancel != nil {
			q.cancel()
		}
		return ctx.Err()
	}
}
