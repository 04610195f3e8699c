package mysql

import (
	"context"
	"time"

	outboxDomain "loanapp-backend/internal/domain/outbox"

	"gorm.io/gorm"
)

// maxErrorLen bounds last_error so a chatty driver error cannot bloat the row.
const maxErrorLen = 1024

type OutboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) *OutboxRepository { return &OutboxRepository{db: db} }

func (r *OutboxRepository) Enqueue(ctx context.Context, m *outboxDomain.Message) error {
	if m.Status == "" {
		m.Status = outboxDomain.StatusPending
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]outboxDomain.Message, error) {
	var out []outboxDomain.Message
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxDomain.StatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&outboxDomain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       outboxDomain.StatusDelivered,
			"attempts":     gorm.Expr("attempts + 1"),
			"delivered_at": now,
			"updated_at":   now,
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64, reason string, maxAttempts int) error {
	if len(reason) > maxErrorLen {
		reason = reason[:maxErrorLen]
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m outboxDomain.Message
		if err := tx.Select("id", "attempts").First(&m, id).Error; err != nil {
			return err
		}
		attempts := m.Attempts + 1
		status := outboxDomain.StatusPending
		if maxAttempts > 0 && attempts >= maxAttempts {
			status = outboxDomain.StatusFailed
		}
		return tx.Model(&outboxDomain.Message{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     status,
				"attempts":   attempts,
				"last_error": reason,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (r *OutboxRepository) PurgeDelivered(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND delivered_at < ?", outboxDomain.StatusDelivered, before).
		Delete(&outboxDomain.Message{})
	return res.RowsAffected, res.Error
}
