package outbox

import (
	"context"
	"time"
)

type Repository interface {
	Enqueue(ctx context.Context, m *Message) error

	// FetchPending returns up to limit pending messages, oldest first.
	FetchPending(ctx context.Context, limit int) ([]Message, error)

	MarkDelivered(ctx context.Context, id uint64) error

	// MarkFailed records a failed attempt; the message turns failed once attempts reach maxAttempts.
	MarkFailed(ctx context.Context, id uint64, reason string, maxAttempts int) error

	// PurgeDelivered deletes delivered messages older than before and returns how many went.
	PurgeDelivered(ctx context.Context, before time.Time) (int64, error)
}
