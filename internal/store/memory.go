package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// MemoryStore is an in-process Store for tests and local development without Postgres.
// A single mutex stands in for the row-level atomicity of the conditional updates in pgStore;
// it is not a coordination mechanism across instances.
type MemoryStore struct {
	mu            sync.Mutex
	posts         map[string]schema.Post
	purchases     map[string]schema.Purchase
	collections   map[string]schema.Collection
	receipts      map[string]struct{}
	notifications map[string]schema.NotificationLog
}

// NewMemoryStore constructs an empty in-memory Store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:         make(map[string]schema.Post),
		purchases:     make(map[string]schema.Purchase),
		collections:   make(map[string]schema.Collection),
		receipts:      make(map[string]struct{}),
		notifications: make(map[string]schema.NotificationLog),
	}
}

// CreatePost inserts a post
func (s *MemoryStore) CreatePost(ctx context.Context, post *schema.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; ok {
		return fmt.Errorf("failed to create post: duplicate id %s", post.ID)
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	s.posts[post.ID] = *post
	return nil
}

// GetPost retrieves a post by ID
func (s *MemoryStore) GetPost(ctx context.Context, postID string) (*schema.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, nil
	}
	return &post, nil
}

// ReserveSupply increments current_supply if max_supply allows it
func (s *MemoryStore) ReserveSupply(ctx context.Context, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok || post.SoldOut() {
		return false, nil
	}
	post.CurrentSupply++
	post.UpdatedAt = time.Now().UTC()
	s.posts[postID] = post
	return true, nil
}

// ReleaseSupply decrements current_supply, clamped at zero
func (s *MemoryStore) ReleaseSupply(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseSupplyLocked(postID)
	return nil
}

func (s *MemoryStore) releaseSupplyLocked(postID string) {
	post, ok := s.posts[postID]
	if !ok {
		return
	}
	if post.CurrentSupply > 0 {
		post.CurrentSupply--
	}
	post.UpdatedAt = time.Now().UTC()
	s.posts[postID] = post
}

// SetMasterAssetIfNull stores the master edition unless one is already set
func (s *MemoryStore) SetMasterAssetIfNull(ctx context.Context, postID, assetID, txSignature string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return "", domain.ErrPostNotFound
	}
	if post.MasterAssetID == nil {
		post.MasterAssetID = &assetID
		post.MasterCreationTxSignature = &txSignature
		post.MasterClaimKey = nil
		post.MasterClaimedAt = nil
		post.UpdatedAt = time.Now().UTC()
		s.posts[postID] = post
	}
	return *post.MasterAssetID, nil
}

// ClaimMasterCreation takes the master creation claim
func (s *MemoryStore) ClaimMasterCreation(ctx context.Context, input ClaimMasterInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[input.PostID]
	if !ok || post.MasterAssetID != nil {
		return false, nil
	}
	if post.MasterClaimKey != nil && (post.MasterClaimedAt == nil || !post.MasterClaimedAt.Before(input.StaleBefore)) {
		return false, nil
	}
	key := input.Key
	claimedAt := input.Now
	post.MasterClaimKey = &key
	post.MasterClaimedAt = &claimedAt
	post.UpdatedAt = time.Now().UTC()
	s.posts[input.PostID] = post
	return true, nil
}

// ReleaseMasterClaim clears the master claim held by key
func (s *MemoryStore) ReleaseMasterClaim(ctx context.Context, postID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok || !matches(post.MasterClaimKey, key) {
		return nil
	}
	post.MasterClaimKey = nil
	post.MasterClaimedAt = nil
	post.UpdatedAt = time.Now().UTC()
	s.posts[postID] = post
	return nil
}

// CreatePurchase inserts a purchase
func (s *MemoryStore) CreatePurchase(ctx context.Context, purchase *schema.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[purchase.ID]; ok {
		return fmt.Errorf("failed to create purchase: duplicate id %s", purchase.ID)
	}
	now := time.Now().UTC()
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = now
	}
	purchase.UpdatedAt = now
	s.purchases[purchase.ID] = *purchase
	return nil
}

// GetPurchase retrieves a purchase by ID
func (s *MemoryStore) GetPurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.purchases[purchaseID]
	if !ok {
		return nil, nil
	}
	return &purchase, nil
}

// GetPurchaseByTxSignature finds the purchase referencing the signature
func (s *MemoryStore) GetPurchaseByTxSignature(ctx context.Context, signature string) (*schema.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *schema.Purchase
	for _, p := range s.purchases {
		if !matches(p.PaymentTxSignature, signature) && !matches(p.PrintTxSignature, signature) &&
			!matches(p.MasterCreationTxSignature, signature) {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			found = &p
		}
	}
	return found, nil
}

func matches(value *string, want string) bool {
	return value != nil && *value == want
}

// TransitionPurchase applies the transition if the record is still in one of the expected statuses
func (s *MemoryStore) TransitionPurchase(ctx context.Context, transition PurchaseTransition) (bool, error) {
	if len(transition.From) == 0 {
		return false, fmt.Errorf("transition to %s without expected status", transition.To)
	}
	for _, from := range transition.From {
		if !from.CanTransitionTo(transition.To) {
			return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, from, transition.To)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[transition.PurchaseID]
	if !ok || !slices.Contains(transition.From, p.Status) {
		return false, nil
	}
	if transition.ClaimKey != nil && !matches(p.FulfillmentKey, *transition.ClaimKey) {
		return false, nil
	}
	if transition.RequireNoPaymentSignature && p.PaymentTxSignature != nil {
		return false, nil
	}
	if sig := transition.Update.PaymentTxSignature; sig != nil {
		for id, other := range s.purchases {
			if id != p.ID && matches(other.PaymentTxSignature, *sig) {
				return false, domain.ErrSignatureConflict
			}
		}
	}

	p.Status = transition.To
	applyPurchaseUpdate(&p, transition.Update)
	p.UpdatedAt = time.Now().UTC()
	s.purchases[p.ID] = p

	if transition.ReleaseSupply {
		s.releaseSupplyLocked(p.PostID)
	}
	return true, nil
}

func applyPurchaseUpdate(p *schema.Purchase, u PurchaseUpdate) {
	if u.PaymentTxSignature != nil {
		p.PaymentTxSignature = u.PaymentTxSignature
	}
	if u.MasterCreationTxSignature != nil {
		p.MasterCreationTxSignature = u.MasterCreationTxSignature
	}
	if u.PrintTxSignature != nil {
		p.PrintTxSignature = u.PrintTxSignature
	}
	if u.AssetID != nil {
		p.AssetID = u.AssetID
	}
	if u.FailureReason != nil {
		p.FailureReason = u.FailureReason
	}
	if u.SubmittedAt != nil {
		p.SubmittedAt = u.SubmittedAt
	}
	if u.PaymentConfirmedAt != nil {
		p.PaymentConfirmedAt = u.PaymentConfirmedAt
	}
	if u.MintingStartedAt != nil {
		p.MintingStartedAt = u.MintingStartedAt
	}
	if u.MintConfirmedAt != nil {
		p.MintConfirmedAt = u.MintConfirmedAt
	}
	if u.FailedAt != nil {
		p.FailedAt = u.FailedAt
	}
	if u.ClearClaim {
		p.FulfillmentKey = nil
		p.FulfillmentClaimedAt = nil
	}
}

// ClaimFulfillment takes the fulfillment claim and moves the purchase to minting
func (s *MemoryStore) ClaimFulfillment(ctx context.Context, input ClaimFulfillmentInput) (bool, error) {
	if !input.From.IsFulfillable() {
		return false, fmt.Errorf("%w: claim from %s", domain.ErrInvalidStatusTransition, input.From)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[input.PurchaseID]
	if !ok || p.Status != input.From {
		return false, nil
	}
	if p.FulfillmentKey != nil && (p.FulfillmentClaimedAt == nil || !p.FulfillmentClaimedAt.Before(input.StaleBefore)) {
		return false, nil
	}

	key := input.Key
	now := input.Now
	p.Status = domain.PurchaseStatusMinting
	p.FulfillmentKey = &key
	p.FulfillmentClaimedAt = &now
	p.MintingStartedAt = &now
	p.UpdatedAt = time.Now().UTC()
	s.purchases[p.ID] = p
	return true, nil
}

// SetPurchaseAssetID back-fills the asset ID if still null
func (s *MemoryStore) SetPurchaseAssetID(ctx context.Context, purchaseID, assetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[purchaseID]
	if !ok || p.AssetID != nil {
		return false, nil
	}
	p.AssetID = &assetID
	p.UpdatedAt = time.Now().UTC()
	s.purchases[purchaseID] = p
	return true, nil
}

// ListPurchases returns purchases matching the filter, oldest update first
func (s *MemoryStore) ListPurchases(ctx context.Context, filter ListPurchasesFilter) ([]schema.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schema.Purchase
	for _, p := range s.purchases {
		if !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		if filter.UpdatedBefore != nil && !p.UpdatedAt.Before(*filter.UpdatedBefore) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CreateCollection inserts a collection unless one already exists for (user, post)
func (s *MemoryStore) CreateCollection(ctx context.Context, collection *schema.Collection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.collections {
		if c.UserID == collection.UserID && c.PostID == collection.PostID {
			return false, nil
		}
	}
	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	collection.UpdatedAt = now
	s.collections[collection.ID] = *collection
	return true, nil
}

// GetCollection retrieves the collection of a user for a post
func (s *MemoryStore) GetCollection(ctx context.Context, userID, postID string) (*schema.Collection, error) {
	return s.findCollection(func(c schema.Collection) bool {
		return c.UserID == userID && c.PostID == postID
	}), nil
}

// GetCollectionByID retrieves a collection by ID
func (s *MemoryStore) GetCollectionByID(ctx context.Context, collectionID string) (*schema.Collection, error) {
	return s.findCollection(func(c schema.Collection) bool {
		return c.ID == collectionID
	}), nil
}

// GetCollectionByTxSignature retrieves a collection by its mint signature
func (s *MemoryStore) GetCollectionByTxSignature(ctx context.Context, signature string) (*schema.Collection, error) {
	return s.findCollection(func(c schema.Collection) bool {
		return matches(c.TxSignature, signature)
	}), nil
}

func (s *MemoryStore) findCollection(match func(schema.Collection) bool) *schema.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.collections {
		if match(c) {
			return &c
		}
	}
	return nil
}

// TransitionCollection applies the transition if the record is still in the expected status
func (s *MemoryStore) TransitionCollection(ctx context.Context, transition CollectionTransition) (bool, error) {
	if !transition.From.CanTransitionTo(transition.To) {
		return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, transition.From, transition.To)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[transition.CollectionID]
	if !ok || c.Status != transition.From {
		return false, nil
	}
	if transition.CreatedBefore != nil && !c.CreatedAt.Before(*transition.CreatedBefore) {
		return false, nil
	}

	u := transition.Update
	c.Status = transition.To
	if u.TxSignature != nil {
		c.TxSignature = u.TxSignature
	}
	if u.ClearTxSignature {
		c.TxSignature = nil
	}
	if u.AssetID != nil {
		c.AssetID = u.AssetID
	}
	if u.RecipientWallet != nil {
		c.RecipientWallet = *u.RecipientWallet
	}
	if u.OriginIP != nil {
		c.OriginIP = u.OriginIP
	}
	if u.ConfirmedAt != nil {
		c.ConfirmedAt = u.ConfirmedAt
	}
	if u.RestartedAt != nil {
		c.CreatedAt = *u.RestartedAt
	}
	c.UpdatedAt = time.Now().UTC()
	s.collections[c.ID] = c
	return true, nil
}

// SetCollectionTxSignature records the mint signature on a pending collection
func (s *MemoryStore) SetCollectionTxSignature(ctx context.Context, collectionID, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok || c.Status != domain.CollectionStatusPending || c.TxSignature != nil {
		return false, nil
	}
	c.TxSignature = &signature
	c.UpdatedAt = time.Now().UTC()
	s.collections[collectionID] = c
	return true, nil
}

// SetCollectionAssetID back-fills the asset ID if still null
func (s *MemoryStore) SetCollectionAssetID(ctx context.Context, collectionID, assetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok || c.AssetID != nil {
		return false, nil
	}
	c.AssetID = &assetID
	c.UpdatedAt = time.Now().UTC()
	s.collections[collectionID] = c
	return true, nil
}

// ListPendingCollections returns pending collections created before the cutoff
func (s *MemoryStore) ListPendingCollections(ctx context.Context, createdBefore time.Time, limit int) ([]schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schema.Collection
	for _, c := range s.collections {
		if c.Status == domain.CollectionStatusPending && c.CreatedAt.Before(createdBefore) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordWebhookReceipt logs an inbound webhook
func (s *MemoryStore) RecordWebhookReceipt(ctx context.Context, signature string, outcome domain.TxStatus, payload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := signature + "|" + string(outcome)
	if _, ok := s.receipts[key]; ok {
		return false, nil
	}
	s.receipts[key] = struct{}{}
	return true, nil
}

// RecordNotification logs a notification under its dedupe key
func (s *MemoryStore) RecordNotification(ctx context.Context, dedupeKey, kind string, payload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[dedupeKey]; ok {
		return false, nil
	}
	s.notifications[dedupeKey] = schema.NotificationLog{
		DedupeKey: dedupeKey,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	return true, nil
}

// DeleteNotification removes a notification record
func (s *MemoryStore) DeleteNotification(ctx context.Context, dedupeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notifications, dedupeKey)
	return nil
}

// NotificationCount returns the number of recorded notifications
func (s *MemoryStore) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notifications)
}

var _ Store = (*MemoryStore)(nil)
