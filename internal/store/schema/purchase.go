package schema

import (
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
)

// Purchase represents the purchases table - one row per paid acquisition attempt.
// A user may hold several purchases of the same post.
type Purchase struct {
	// ID is the purchase identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// UserID is the acquiring user
	UserID string `gorm:"column:user_id;not null;type:uuid;index:idx_purchases_user_post,priority:1"`
	// PostID is the edition being purchased
	PostID string `gorm:"column:post_id;not null;type:uuid;index:idx_purchases_user_post,priority:2"`
	// BuyerWallet is the wallet that pays and receives the print
	BuyerWallet string `gorm:"column:buyer_wallet;not null;type:text"`
	// AmountPaid is the price at reservation time in the smallest unit of Currency
	AmountPaid int64 `gorm:"column:amount_paid;not null"`
	// Currency is the settlement currency
	Currency domain.Currency `gorm:"column:currency;not null;type:text"`
	// AssetID is the print's on-chain address once known (lazily back-filled)
	AssetID *string `gorm:"column:asset_id;type:text"`
	// PaymentTxSignature is the buyer's payment transaction
	PaymentTxSignature *string `gorm:"column:payment_tx_signature;type:text;uniqueIndex"`
	// MasterCreationTxSignature is set on the purchase that created the post's master edition
	MasterCreationTxSignature *string `gorm:"column:master_creation_tx_signature;type:text"`
	// PrintTxSignature is the per-purchase print transaction
	PrintTxSignature *string `gorm:"column:print_tx_signature;type:text"`
	// Status is the purchase state machine status
	Status domain.PurchaseStatus `gorm:"column:status;not null;type:text;index"`
	// FulfillmentKey identifies the holder of the fulfillment claim (ULID)
	FulfillmentKey *string `gorm:"column:fulfillment_key;type:text"`
	// FulfillmentClaimedAt is when the current claim was taken
	FulfillmentClaimedAt *time.Time `gorm:"column:fulfillment_claimed_at;type:timestamptz"`
	// FailureReason is a short human readable explanation of failed/blocked outcomes
	FailureReason *string `gorm:"column:failure_reason;type:text"`
	// Milestone timestamps
	ReservedAt         time.Time  `gorm:"column:reserved_at;not null;type:timestamptz"`
	SubmittedAt        *time.Time `gorm:"column:submitted_at;type:timestamptz"`
	PaymentConfirmedAt *time.Time `gorm:"column:payment_confirmed_at;type:timestamptz"`
	MintingStartedAt   *time.Time `gorm:"column:minting_started_at;type:timestamptz"`
	MintConfirmedAt    *time.Time `gorm:"column:mint_confirmed_at;type:timestamptz"`
	FailedAt           *time.Time `gorm:"column:failed_at;type:timestamptz"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Purchase model
func (Purchase) TableName() string {
	return "purchases"
}
