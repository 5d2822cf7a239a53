package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-editions/internal/domain"
)

// WebhookReceipt represents the webhook_receipts table - audit log of inbound transaction
// webhooks, unique per (signature, outcome) so replays are detected
type WebhookReceipt struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Signature is the transaction signature the webhook reports on
	Signature string `gorm:"column:signature;not null;type:text;uniqueIndex:uq_webhook_receipts_signature_outcome,priority:1"`
	// Outcome is the reported on-chain status
	Outcome domain.TxStatus `gorm:"column:outcome;not null;type:text;uniqueIndex:uq_webhook_receipts_signature_outcome,priority:2"`
	// Payload is the raw webhook body
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// CreatedAt is the timestamp when the webhook was first received
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WebhookReceipt model
func (WebhookReceipt) TableName() string {
	return "webhook_receipts"
}
