//go:generate mockgen -source=contracts.go -destination=notify_mocks_test.go -package=notify_test

package notify

import (
	"context"

	"service-parcel-platform/internal/domain"
)

// Queue hands notifications to background workers.
type Queue interface {
	Enqueue(ctx context.Context, n domain.Notification) error
}

// Sender delivers one notification over its channel.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

type counter interface {
	Inc()
}

type resultCounter interface {
	Inc(labels ...string)
}
