package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// =============================================================================
// Posts & supply
// =============================================================================

// CreatePost inserts a post
func (s *pgStore) CreatePost(ctx context.Context, post *schema.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID
func (s *pgStore) GetPost(ctx context.Context, postID string) (*schema.Post, error) {
	var post schema.Post
	err := s.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ReserveSupply increments current_supply in a single conditional update
func (s *pgStore) ReserveSupply(ctx context.Context, postID string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&schema.Post{}).
		Where("id = ? AND (max_supply IS NULL OR current_supply < max_supply)", postID).
		Updates(map[string]interface{}{
			"current_supply": gorm.Expr("current_supply + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to reserve supply: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// ReleaseSupply decrements current_supply, clamped at zero
func (s *pgStore) ReleaseSupply(ctx context.Context, postID string) error {
	return releaseSupply(s.db.WithContext(ctx), postID)
}

func releaseSupply(tx *gorm.DB, postID string) error {
	err := tx.Model(&schema.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"current_supply": gorm.Expr("GREATEST(current_supply - 1, 0)"),
			"updated_at":     time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release supply: %w", err)
	}
	return nil
}

// SetMasterAssetIfNull persists the master edition only if the post has none yet,
// then returns whichever value won
func (s *pgStore) SetMasterAssetIfNull(ctx context.Context, postID, assetID, txSignature string) (string, error) {
	var master *string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&schema.Post{}).
			Where("id = ? AND master_asset_id IS NULL", postID).
			Updates(map[string]interface{}{
				"master_asset_id":              assetID,
				"master_creation_tx_signature": txSignature,
				"master_claim_key":             nil,
				"master_claimed_at":            nil,
				"updated_at":                   time.Now().UTC(),
			}).Error; err != nil {
			return fmt.Errorf("failed to set master asset: %w", err)
		}

		var post schema.Post
		if err := tx.Select("master_asset_id").Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPostNotFound
			}
			return fmt.Errorf("failed to read master asset: %w", err)
		}
		master = post.MasterAssetID
		return nil
	})
	if err != nil {
		return "", err
	}
	if master == nil {
		return "", fmt.Errorf("master asset still unset for post %s", postID)
	}
	return *master, nil
}

// ClaimMasterCreation writes the master claim while no master exists and no fresh claim is held
func (s *pgStore) ClaimMasterCreation(ctx context.Context, input ClaimMasterInput) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&schema.Post{}).
		Where("id = ? AND master_asset_id IS NULL", input.PostID).
		Where("(master_claim_key IS NULL OR master_claimed_at < ?)", input.StaleBefore).
		Updates(map[string]interface{}{
			"master_claim_key":  input.Key,
			"master_claimed_at": input.Now,
			"updated_at":        time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to claim master creation: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// ReleaseMasterClaim clears the master claim held by key
func (s *pgStore) ReleaseMasterClaim(ctx context.Context, postID, key string) error {
	err := s.db.WithContext(ctx).Model(&schema.Post{}).
		Where("id = ? AND master_claim_key = ?", postID, key).
		Updates(map[string]interface{}{
			"master_claim_key":  nil,
			"master_claimed_at": nil,
			"updated_at":        time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release master claim: %w", err)
	}
	return nil
}

// =============================================================================
// Purchases
// =============================================================================

// CreatePurchase inserts a purchase
func (s *pgStore) CreatePurchase(ctx context.Context, purchase *schema.Purchase) error {
	if err := s.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// GetPurchase retrieves a purchase by ID
func (s *pgStore) GetPurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	var purchase schema.Purchase
	err := s.db.WithContext(ctx).Where("id = ?", purchaseID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return &purchase, nil
}

// GetPurchaseByTxSignature finds the purchase referencing the signature
func (s *pgStore) GetPurchaseByTxSignature(ctx context.Context, signature string) (*schema.Purchase, error) {
	var purchase schema.Purchase
	err := s.db.WithContext(ctx).
		Where("payment_tx_signature = ? OR print_tx_signature = ? OR master_creation_tx_signature = ?",
			signature, signature, signature).
		Order("created_at ASC").
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase by signature: %w", err)
	}
	return &purchase, nil
}

// TransitionPurchase applies a conditional status update and, when requested, releases the
// supply reservation in the same short transaction
func (s *pgStore) TransitionPurchase(ctx context.Context, transition PurchaseTransition) (bool, error) {
	if len(transition.From) == 0 {
		return false, fmt.Errorf("transition to %s without expected status", transition.To)
	}
	for _, from := range transition.From {
		if !from.CanTransitionTo(transition.To) {
			return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, from, transition.To)
		}
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&schema.Purchase{}).
			Where("id = ? AND status IN ?", transition.PurchaseID, transition.From)
		if transition.ClaimKey != nil {
			q = q.Where("fulfillment_key = ?", *transition.ClaimKey)
		}
		if transition.RequireNoPaymentSignature {
			q = q.Where("payment_tx_signature IS NULL")
		}

		res := q.Updates(purchaseUpdateColumns(transition.To, transition.Update))
		if res.Error != nil {
			if transition.Update.PaymentTxSignature != nil && isUniqueViolation(res.Error, "payment_tx_signature") {
				return domain.ErrSignatureConflict
			}
			return fmt.Errorf("failed to transition purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if transition.ReleaseSupply {
			var purchase schema.Purchase
			if err := tx.Select("post_id").Where("id = ?", transition.PurchaseID).First(&purchase).Error; err != nil {
				return fmt.Errorf("failed to read purchase post: %w", err)
			}
			if err := releaseSupply(tx, purchase.PostID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// isUniqueViolation reports whether err violates a unique index on column
func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, column)
}

func purchaseUpdateColumns(to domain.PurchaseStatus, u PurchaseUpdate) map[string]interface{} {
	cols := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	setIfPresent := func(column string, v interface{}, present bool) {
		if present {
			cols[column] = v
		}
	}
	setIfPresent("payment_tx_signature", u.PaymentTxSignature, u.PaymentTxSignature != nil)
	setIfPresent("master_creation_tx_signature", u.MasterCreationTxSignature, u.MasterCreationTxSignature != nil)
	setIfPresent("print_tx_signature", u.PrintTxSignature, u.PrintTxSignature != nil)
	setIfPresent("asset_id", u.AssetID, u.AssetID != nil)
	setIfPresent("failure_reason", u.FailureReason, u.FailureReason != nil)
	setIfPresent("submitted_at", u.SubmittedAt, u.SubmittedAt != nil)
	setIfPresent("payment_confirmed_at", u.PaymentConfirmedAt, u.PaymentConfirmedAt != nil)
	setIfPresent("minting_started_at", u.MintingStartedAt, u.MintingStartedAt != nil)
	setIfPresent("mint_confirmed_at", u.MintConfirmedAt, u.MintConfirmedAt != nil)
	setIfPresent("failed_at", u.FailedAt, u.FailedAt != nil)
	if u.ClearClaim {
		cols["fulfillment_key"] = nil
		cols["fulfillment_claimed_at"] = nil
	}
	return cols
}

// ClaimFulfillment writes the claim key conditioned on a fulfillable status and no fresh claim
func (s *pgStore) ClaimFulfillment(ctx context.Context, input ClaimFulfillmentInput) (bool, error) {
	if !input.From.IsFulfillable() {
		return false, fmt.Errorf("%w: claim from %s", domain.ErrInvalidStatusTransition, input.From)
	}

	tx := s.db.WithContext(ctx).Model(&schema.Purchase{}).
		Where("id = ? AND status = ?", input.PurchaseID, input.From).
		Where("(fulfillment_key IS NULL OR fulfillment_claimed_at < ?)", input.StaleBefore).
		Updates(map[string]interface{}{
			"status":                 domain.PurchaseStatusMinting,
			"fulfillment_key":        input.Key,
			"fulfillment_claimed_at": input.Now,
			"minting_started_at":     input.Now,
			"updated_at":             time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to claim fulfillment: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// SetPurchaseAssetID back-fills the asset ID if still null
func (s *pgStore) SetPurchaseAssetID(ctx context.Context, purchaseID, assetID string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&schema.Purchase{}).
		Where("id = ? AND asset_id IS NULL", purchaseID).
		Updates(map[string]interface{}{
			"asset_id":   assetID,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to set purchase asset id: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// ListPurchases returns purchases matching the filter, oldest update first
func (s *pgStore) ListPurchases(ctx context.Context, filter ListPurchasesFilter) ([]schema.Purchase, error) {
	q := s.db.WithContext(ctx).Where("status IN ?", filter.Statuses)
	if filter.UpdatedBefore != nil {
		q = q.Where("updated_at < ?", *filter.UpdatedBefore)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var purchases []schema.Purchase
	if err := q.Order("updated_at ASC").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// =============================================================================
// Collections
// =============================================================================

// CreateCollection inserts a collection, doing nothing if (user_id, post_id) already exists
func (s *pgStore) CreateCollection(ctx context.Context, collection *schema.Collection) (bool, error) {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(collection)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to create collection: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// GetCollection retrieves the collection of a user for a post
func (s *pgStore) GetCollection(ctx context.Context, userID, postID string) (*schema.Collection, error) {
	return s.firstCollection(ctx, "user_id = ? AND post_id = ?", userID, postID)
}

// GetCollectionByID retrieves a collection by ID
func (s *pgStore) GetCollectionByID(ctx context.Context, collectionID string) (*schema.Collection, error) {
	return s.firstCollection(ctx, "id = ?", collectionID)
}

// GetCollectionByTxSignature retrieves a collection by its mint signature
func (s *pgStore) GetCollectionByTxSignature(ctx context.Context, signature string) (*schema.Collection, error) {
	return s.firstCollection(ctx, "tx_signature = ?", signature)
}

func (s *pgStore) firstCollection(ctx context.Context, query string, args ...interface{}) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where(query, args...).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// TransitionCollection applies a conditional status update
func (s *pgStore) TransitionCollection(ctx context.Context, transition CollectionTransition) (bool, error) {
	if !transition.From.CanTransitionTo(transition.To) {
		return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, transition.From, transition.To)
	}

	cols := map[string]interface{}{
		"status":     transition.To,
		"updated_at": time.Now().UTC(),
	}
	u := transition.Update
	if u.TxSignature != nil {
		cols["tx_signature"] = u.TxSignature
	}
	if u.ClearTxSignature {
		cols["tx_signature"] = nil
	}
	if u.AssetID != nil {
		cols["asset_id"] = u.AssetID
	}
	if u.RecipientWallet != nil {
		cols["recipient_wallet"] = *u.RecipientWallet
	}
	if u.OriginIP != nil {
		cols["origin_ip"] = u.OriginIP
	}
	if u.ConfirmedAt != nil {
		cols["confirmed_at"] = u.ConfirmedAt
	}
	if u.RestartedAt != nil {
		cols["created_at"] = *u.RestartedAt
	}

	q := s.db.WithContext(ctx).Model(&schema.Collection{}).
		Where("id = ? AND status = ?", transition.CollectionID, transition.From)
	if transition.CreatedBefore != nil {
		q = q.Where("created_at < ?", *transition.CreatedBefore)
	}

	tx := q.Updates(cols)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to transition collection: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// SetCollectionTxSignature records the mint signature on a pending collection
func (s *pgStore) SetCollectionTxSignature(ctx context.Context, collectionID, signature string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&schema.Collection{}).
		Where("id = ? AND status = ? AND tx_signature IS NULL", collectionID, domain.CollectionStatusPending).
		Updates(map[string]interface{}{
			"tx_signature": signature,
			"updated_at":   time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to set collection signature: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// SetCollectionAssetID back-fills the asset ID if still null
func (s *pgStore) SetCollectionAssetID(ctx context.Context, collectionID, assetID string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&schema.Collection{}).
		Where("id = ? AND asset_id IS NULL", collectionID).
		Updates(map[string]interface{}{
			"asset_id":   assetID,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to set collection asset id: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// ListPendingCollections returns pending collections created before the cutoff
func (s *pgStore) ListPendingCollections(ctx context.Context, createdBefore time.Time, limit int) ([]schema.Collection, error) {
	q := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.CollectionStatusPending, createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var collections []schema.Collection
	if err := q.Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending collections: %w", err)
	}
	return collections, nil
}

// =============================================================================
// Audit logs
// =============================================================================

// RecordWebhookReceipt logs an inbound webhook, doing nothing on replay
func (s *pgStore) RecordWebhookReceipt(ctx context.Context, signature string, outcome domain.TxStatus, payload []byte) (bool, error) {
	receipt := schema.WebhookReceipt{
		Signature: signature,
		Outcome:   outcome,
		Payload:   datatypes.JSON(payload),
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}, {Name: "outcome"}},
		DoNothing: true,
	}).Create(&receipt)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to record webhook receipt: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// RecordNotification logs a notification under its dedupe key, doing nothing on replay
func (s *pgStore) RecordNotification(ctx context.Context, dedupeKey, kind string, payload []byte) (bool, error) {
	entry := schema.NotificationLog{
		DedupeKey: dedupeKey,
		Kind:      kind,
		Payload:   datatypes.JSON(payload),
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedupe_key"}},
		DoNothing: true,
	}).Create(&entry)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to record notification: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// DeleteNotification removes a notification record
func (s *pgStore) DeleteNotification(ctx context.Context, dedupeKey string) error {
	err := s.db.WithContext(ctx).Where("dedupe_key = ?", dedupeKey).Delete(&schema.NotificationLog{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
