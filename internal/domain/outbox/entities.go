package outbox

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Table: outbox_messages. Rows are written in the same transaction as the change they announce.
type Message struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	MessageID   string     `gorm:"column:message_id;type:char(32);not null;uniqueIndex:ux_outbox_message_id"`
	EventType   string     `gorm:"column:event_type;size:100;not null;index"`
	AggregateID string     `gorm:"column:aggregate_id;size:255;not null"`
	Payload     string     `gorm:"column:payload;type:text;not null"`
	Status      Status     `gorm:"column:status;type:varchar(16);not null;default:'pending';index:idx_outbox_status_id,priority:1"`
	Attempts    int        `gorm:"column:attempts;not null;default:0"`
	LastError   string     `gorm:"column:last_error;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
}

func (Message) TableName() string { return "outbox_messages" }
