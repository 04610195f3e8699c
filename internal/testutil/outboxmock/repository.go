package outboxmock

import (
	"context"
	"time"

	domain "loanapp-backend/internal/domain/outbox"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	EnqueueFn        func(ctx context.Context, m *domain.Message) error
	FetchPendingFn   func(ctx context.Context, limit int) ([]domain.Message, error)
	MarkDeliveredFn  func(ctx context.Context, id uint64) error
	MarkFailedFn     func(ctx context.Context, id uint64, reason string, maxAttempts int) error
	PurgeDeliveredFn func(ctx context.Context, before time.Time) (int64, error)
}

func (m *Repo) Enqueue(ctx context.Context, msg *domain.Message) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, msg)
	}
	return nil
}

func (m *Repo) FetchPending(ctx context.Context, limit int) ([]domain.Message, error) {
	if m.FetchPendingFn != nil {
		return m.FetchPendingFn(ctx, limit)
	}
	return nil, nil
}

func (m *Repo) MarkDelivered(ctx context.Context, id uint64) error {
	if m.MarkDeliveredFn != nil {
		return m.MarkDeliveredFn(ctx, id)
	}
	return nil
}

func (m *Repo) MarkFailed(ctx context.Context, id uint64, reason string, maxAttempts int) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, reason, maxAttempts)
	}
	return nil
}

func (m *Repo) PurgeDelivered(ctx context.Context, before time.Time) (int64, error) {
	if m.PurgeDeliveredFn != nil {
		return m.PurgeDeliveredFn(ctx, before)
	}
	return 0, nil
}
