package schema

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationLog represents the notification_log table - one row per notification that was
// handed to the dispatcher. DedupeKey is unique so a replayed confirmation never notifies twice.
type NotificationLog struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// DedupeKey is the hex sha256 of the canonical notification identity
	DedupeKey string `gorm:"column:dedupe_key;not null;type:text;uniqueIndex"`
	// Kind is the notification kind (e.g., "purchase.confirmed")
	Kind string `gorm:"column:kind;not null;type:text"`
	// Payload is the notification as sent
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// CreatedAt is the timestamp when the notification was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the NotificationLog model
func (NotificationLog) TableName() string {
	return "notification_log"
}
