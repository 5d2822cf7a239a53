package schema

import (
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
)

// Post represents the posts table - an edition or collectible published by a creator.
// The supply counter lives on this row and is only mutated by conditional updates.
type Post struct {
	// ID is the post identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// CreatorID is the user who published the post
	CreatorID string `gorm:"column:creator_id;not null;type:uuid;index"`
	// CreatorWallet receives the payment for editions
	CreatorWallet string `gorm:"column:creator_wallet;not null;type:text"`
	// Kind is either edition (paid) or collectible (free)
	Kind domain.PostKind `gorm:"column:kind;not null;type:text"`
	// Name and Symbol are passed through to the on-chain metadata
	Name   string `gorm:"column:name;not null;type:text"`
	Symbol string `gorm:"column:symbol;not null;type:text;default:''"`
	// MetadataURI points to the off-chain metadata JSON
	MetadataURI string `gorm:"column:metadata_uri;not null;type:text"`
	// Price is the edition price in the smallest unit of Currency (lamports for SOL)
	Price int64 `gorm:"column:price;not null;default:0"`
	// Currency is the settlement currency for editions
	Currency domain.Currency `gorm:"column:currency;not null;type:text;default:'SOL'"`
	// MaxSupply caps the number of acquisitions; nil means unlimited
	MaxSupply *int `gorm:"column:max_supply"`
	// CurrentSupply counts reservations that have not been released
	CurrentSupply int `gorm:"column:current_supply;not null;default:0"`
	// MasterAssetID is the master edition address shared by every print of this post.
	// Set once by the first purchase that creates it.
	MasterAssetID *string `gorm:"column:master_asset_id;type:text"`
	// MasterCreationTxSignature is the transaction that created the master edition
	MasterCreationTxSignature *string `gorm:"column:master_creation_tx_signature;type:text"`
	// MasterClaimKey is held by the fulfillment currently creating the master edition
	MasterClaimKey *string `gorm:"column:master_claim_key;type:text"`
	// MasterClaimedAt is when MasterClaimKey was taken; stale claims may be taken over
	MasterClaimedAt *time.Time `gorm:"column:master_claimed_at;type:timestamptz"`
	// MintWindowStart and MintWindowEnd optionally time-box new reservations
	MintWindowStart *time.Time `gorm:"column:mint_window_start;type:timestamptz"`
	MintWindowEnd   *time.Time `gorm:"column:mint_window_end;type:timestamptz"`
	// CreatedAt is the timestamp when the post was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when the post was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Post model
func (Post) TableName() string {
	return "posts"
}

// SoldOut reports whether the post has reached its max supply
func (p *Post) SoldOut() bool {
	return p.MaxSupply != nil && p.CurrentSupply >= *p.MaxSupply
}
