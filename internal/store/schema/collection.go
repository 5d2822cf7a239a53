package schema

import (
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
)

// Collection represents the collections table - one row per (user, collectible) pair
type Collection struct {
	// ID is the collection identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// UserID and PostID are unique together
	UserID string `gorm:"column:user_id;not null;type:uuid;uniqueIndex:uq_collections_user_post,priority:1"`
	PostID string `gorm:"column:post_id;not null;type:uuid;uniqueIndex:uq_collections_user_post,priority:2"`
	// RecipientWallet receives the compressed NFT
	RecipientWallet string `gorm:"column:recipient_wallet;not null;type:text"`
	// AssetID is the compressed asset id once known (lazily back-filled)
	AssetID *string `gorm:"column:asset_id;type:text"`
	// TxSignature is the server-paid mint transaction
	TxSignature *string `gorm:"column:tx_signature;type:text;index"`
	// Status is the collection state machine status
	Status domain.CollectionStatus `gorm:"column:status;not null;type:text"`
	// OriginIP is the network origin of the latest attempt
	OriginIP *string `gorm:"column:origin_ip;type:text"`
	// ConfirmedAt is set exactly once
	ConfirmedAt *time.Time `gorm:"column:confirmed_at;type:timestamptz"`
	// CreatedAt is the timestamp when the latest attempt started. Reset on retry so staleness
	// is measured per attempt.
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
