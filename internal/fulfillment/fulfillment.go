package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/metrics"
	"github.com/feral-file/ff-editions/internal/notification"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// maxRounds bounds claim-and-run cycles in one Fulfill call: one round may create the
// master edition and the next mints the print
const maxRounds = 2

// Outcome is the result of a claim attempt
type Outcome string

const (
	// OutcomeGranted means the caller holds the claim and must run the fulfillment
	OutcomeGranted Outcome = "granted"
	// OutcomeAlreadyClaimed means another caller holds a fresh claim
	OutcomeAlreadyClaimed Outcome = "already_claimed"
	// OutcomeAlreadyTerminal means the purchase reached a terminal status
	OutcomeAlreadyTerminal Outcome = "already_terminal"
	// OutcomeNotReady means payment has not been confirmed yet
	OutcomeNotReady Outcome = "not_ready"
)

// Claim is the result of Orchestrator.Claim
type Claim struct {
	Outcome Outcome
	// Key is the fulfillment key held when Outcome is OutcomeGranted
	Key string
	// From is the status the claim was taken from
	From domain.PurchaseStatus
	// Purchase is the record as last read
	Purchase *schema.Purchase
}

// Config holds orchestrator configuration
type Config struct {
	// StaleThreshold after which a minting claim or master creation claim may be taken over
	StaleThreshold time.Duration
}

// Orchestrator guarantees at most one print mint per purchase and at most one master
// edition per post
//
//go:generate mockgen -source=fulfillment.go -destination=../mocks/fulfillment.go -package=mocks -mock_names=Orchestrator=MockOrchestrator
type Orchestrator interface {
	// Claim takes the fulfillment claim of a purchase whose payment is confirmed
	Claim(ctx context.Context, purchaseID string) (*Claim, error)

	// Fulfill claims the purchase and runs master creation and print minting. Returns the
	// purchase as last read. Only transient chain failures are returned as errors.
	Fulfill(ctx context.Context, purchaseID string) (*schema.Purchase, error)

	// RecoverStale hands a minting purchase with an expired claim back to a fulfillable
	// status. Returns false when the claim is still fresh or someone else moved it.
	RecoverStale(ctx context.Context, purchase *schema.Purchase) (bool, error)
}

type orchestrator struct {
	config   Config
	store    store.Store
	builder  chain.TransactionBuilder
	notifier notification.Dispatcher
	clock    adapter.Clock
}

// NewOrchestrator creates a fulfillment orchestrator
func NewOrchestrator(cfg Config, st store.Store, builder chain.TransactionBuilder, notifier notification.Dispatcher, clock adapter.Clock) Orchestrator {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = domain.DEFAULT_STALE_THRESHOLD
	}
	return &orchestrator{
		config:   cfg,
		store:    st,
		builder:  builder,
		notifier: notifier,
		clock:    clock,
	}
}

func (o *orchestrator) newKey(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// Claim takes the fulfillment claim
func (o *orchestrator) Claim(ctx context.Context, purchaseID string) (*Claim, error) {
	purchase, err := o.getPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if purchase.Status == domain.PurchaseStatusMinting {
		recovered, err := o.RecoverStale(ctx, purchase)
		if err != nil {
			return nil, err
		}
		if !recovered {
			return &Claim{Outcome: OutcomeAlreadyClaimed, Purchase: purchase}, nil
		}
		if purchase, err = o.getPurchase(ctx, purchaseID); err != nil {
			return nil, err
		}
	}

	if outcome, ok := unclaimable(purchase.Status); ok {
		return &Claim{Outcome: outcome, Purchase: purchase}, nil
	}

	now := o.clock.Now()
	key := o.newKey(now)
	granted, err := o.store.ClaimFulfillment(ctx, store.ClaimFulfillmentInput{
		PurchaseID:  purchaseID,
		From:        purchase.Status,
		Key:         key,
		Now:         now,
		StaleBefore: now.Add(-o.config.StaleThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim fulfillment: %w", err)
	}

	if !granted {
		// Lost the race; report what the winner left behind
		current, err := o.getPurchase(ctx, purchaseID)
		if err != nil {
			return nil, err
		}
		outcome, ok := unclaimable(current.Status)
		if !ok {
			outcome = OutcomeAlreadyClaimed
		}
		return &Claim{Outcome: outcome, Purchase: current}, nil
	}

	logger.InfoCtx(ctx, "Fulfillment claimed",
		zap.String("purchase_id", purchaseID),
		zap.String("post_id", purchase.PostID),
		zap.String("from", string(purchase.Status)),
		zap.String("fulfillment_key", key),
	)

	return &Claim{
		Outcome:  OutcomeGranted,
		Key:      key,
		From:     purchase.Status,
		Purchase: purchase,
	}, nil
}

// unclaimable maps statuses that can not be claimed to their outcome
func unclaimable(status domain.PurchaseStatus) (Outcome, bool) {
	switch {
	case status.IsTerminal():
		return OutcomeAlreadyTerminal, true
	case status == domain.PurchaseStatusMinting:
		return OutcomeAlreadyClaimed, true
	case !status.IsFulfillable():
		return OutcomeNotReady, true
	}
	return "", false
}

// Fulfill claims the purchase and runs the fulfillment
func (o *orchestrator) Fulfill(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	for round := 0; round < maxRounds; round++ {
		claim, err := o.Claim(ctx, purchaseID)
		if err != nil {
			return nil, err
		}
		if claim.Outcome != OutcomeGranted {
			return claim.Purchase, nil
		}

		again, err := o.run(ctx, claim)
		if err != nil {
			if !errors.Is(err, domain.ErrTransientChain) {
				// The record was handed back in a fulfillable state; the next poll retries
				logger.ErrorCtx(ctx, err, zap.String("purchase_id", purchaseID))
				break
			}
			return nil, err
		}
		if !again {
			break
		}
	}
	return o.getPurchase(ctx, purchaseID)
}

// run performs one claimed round. Returns true when the master edition became available
// and the print can be minted in a following round.
func (o *orchestrator) run(ctx context.Context, claim *Claim) (bool, error) {
	purchase := claim.Purchase
	post, err := o.store.GetPost(ctx, purchase.PostID)
	if err != nil {
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		return false, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		return false, fmt.Errorf("%w: %s", domain.ErrPostNotFound, purchase.PostID)
	}

	if post.MasterAssetID == nil {
		if claim.From == domain.PurchaseStatusMasterCreated {
			o.block(ctx, claim, "purchase is past master creation but the post has no master edition")
			return false, nil
		}
		return o.createMaster(ctx, claim, post)
	}

	return false, o.mintPrint(ctx, claim, post)
}

// createMaster creates the post's master edition under the post level claim
func (o *orchestrator) createMaster(ctx context.Context, claim *Claim, post *schema.Post) (bool, error) {
	now := o.clock.Now()
	claimed, err := o.store.ClaimMasterCreation(ctx, store.ClaimMasterInput{
		PostID:      post.ID,
		Key:         claim.Key,
		Now:         now,
		StaleBefore: now.Add(-o.config.StaleThreshold),
	})
	if err != nil {
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		return false, fmt.Errorf("failed to claim master creation: %w", err)
	}

	if !claimed {
		// Another purchase of the same post is creating the master edition
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		metrics.Fulfillments.WithLabelValues("deferred").Inc()

		current, err := o.store.GetPost(ctx, post.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get post: %w", err)
		}
		logger.InfoCtx(ctx, "Master edition creation in progress elsewhere, deferring",
			zap.String("purchase_id", claim.Purchase.ID),
			zap.String("post_id", post.ID),
		)
		return current != nil && current.MasterAssetID != nil, nil
	}

	submission, err := o.builder.CreateMasterEdition(ctx, chain.MasterEditionRequest{
		PostID:        post.ID,
		CreatorWallet: post.CreatorWallet,
		Name:          post.Name,
		Symbol:        post.Symbol,
		MetadataURI:   post.MetadataURI,
		MaxSupply:     post.MaxSupply,
	})
	if err == nil && submission.AssetID == "" {
		err = errors.New("builder did not report the master edition address")
	}
	if err != nil {
		if releaseErr := o.store.ReleaseMasterClaim(ctx, post.ID, claim.Key); releaseErr != nil {
			logger.WarnCtx(ctx, "Failed to release master creation claim",
				zap.String("post_id", post.ID),
				zap.Error(releaseErr),
			)
		}
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		metrics.Fulfillments.WithLabelValues("retry").Inc()
		return false, fmt.Errorf("failed to create master edition: %w", err)
	}

	masterID, err := o.store.SetMasterAssetIfNull(ctx, post.ID, submission.AssetID, submission.Signature)
	if err != nil {
		o.handBack(ctx, claim, domain.PurchaseStatusAwaitingFulfillment)
		return false, fmt.Errorf("failed to record master edition: %w", err)
	}

	update := store.PurchaseUpdate{ClearClaim: true}
	if masterID == submission.AssetID {
		update.MasterCreationTxSignature = &submission.Signature
	} else {
		logger.WarnCtx(ctx, "Master edition already recorded, adopting it",
			zap.String("post_id", post.ID),
			zap.String("master_asset_id", masterID),
			zap.String("signature", submission.Signature),
		)
	}

	moved, err := o.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: claim.Purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         domain.PurchaseStatusMasterCreated,
		ClaimKey:   &claim.Key,
		Update:     update,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record master creation on purchase: %w", err)
	}
	if !moved {
		o.lostClaim(ctx, claim)
		return false, nil
	}

	logger.InfoCtx(ctx, "Master edition created",
		zap.String("purchase_id", claim.Purchase.ID),
		zap.String("post_id", post.ID),
		zap.String("master_asset_id", masterID),
		zap.String("signature", submission.Signature),
	)
	metrics.Fulfillments.WithLabelValues("master_created").Inc()
	return true, nil
}

// mintPrint mints the purchase's print of the master edition
func (o *orchestrator) mintPrint(ctx context.Context, claim *Claim, post *schema.Post) error {
	purchase := claim.Purchase
	submission, err := o.builder.MintPrint(ctx, chain.PrintRequest{
		PurchaseID:      purchase.ID,
		PostID:          post.ID,
		MasterAssetID:   *post.MasterAssetID,
		RecipientWallet: purchase.BuyerWallet,
	})
	if err != nil {
		o.handBack(ctx, claim, domain.PurchaseStatusMasterCreated)
		metrics.Fulfillments.WithLabelValues("retry").Inc()
		return fmt.Errorf("failed to mint print: %w", err)
	}

	now := o.clock.Now()
	update := store.PurchaseUpdate{
		PrintTxSignature: &submission.Signature,
		MintConfirmedAt:  &now,
		ClearClaim:       true,
	}
	if submission.AssetID != "" {
		update.AssetID = &submission.AssetID
	}

	moved, err := o.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         domain.PurchaseStatusConfirmed,
		ClaimKey:   &claim.Key,
		Update:     update,
	})
	if err != nil {
		return fmt.Errorf("failed to confirm purchase: %w", err)
	}
	if !moved {
		o.lostClaim(ctx, claim)
		return nil
	}

	logger.InfoCtx(ctx, "Print minted",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", post.ID),
		zap.String("signature", submission.Signature),
		zap.String("asset_id", submission.AssetID),
	)
	metrics.Fulfillments.WithLabelValues("confirmed").Inc()

	notice := domain.Notification{
		Kind:      domain.NotificationPurchaseConfirmed,
		UserID:    purchase.UserID,
		PostID:    purchase.PostID,
		SubjectID: purchase.ID,
		Signature: &submission.Signature,
	}
	if submission.AssetID != "" {
		notice.AssetID = &submission.AssetID
	}
	o.notifier.Notify(ctx, notice)
	return nil
}

// block parks the purchase for operator action
func (o *orchestrator) block(ctx context.Context, claim *Claim, reason string) {
	purchase := claim.Purchase
	now := o.clock.Now()
	moved, err := o.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         domain.PurchaseStatusBlockedMissingMaster,
		ClaimKey:   &claim.Key,
		Update: store.PurchaseUpdate{
			FailureReason: &reason,
			FailedAt:      &now,
			ClearClaim:    true,
		},
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to block purchase: %w", err), zap.String("purchase_id", purchase.ID))
		return
	}
	if !moved {
		o.lostClaim(ctx, claim)
		return
	}

	logger.ErrorCtx(ctx, fmt.Errorf("%w: %s", domain.ErrMasterEditionMissing, reason),
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", purchase.PostID),
	)
	metrics.Fulfillments.WithLabelValues("blocked").Inc()
	o.notifier.Notify(ctx, domain.Notification{
		Kind:      domain.NotificationPurchaseBlocked,
		UserID:    purchase.UserID,
		PostID:    purchase.PostID,
		SubjectID: purchase.ID,
	})
}

// handBack clears the claim and returns the purchase to a fulfillable status
func (o *orchestrator) handBack(ctx context.Context, claim *Claim, to domain.PurchaseStatus) {
	moved, err := o.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: claim.Purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         to,
		ClaimKey:   &claim.Key,
		Update:     store.PurchaseUpdate{ClearClaim: true},
	})
	if err != nil {
		// The claim goes stale and is recovered later
		logger.WarnCtx(ctx, "Failed to release fulfillment claim",
			zap.String("purchase_id", claim.Purchase.ID),
			zap.Error(err),
		)
		return
	}
	if !moved {
		o.lostClaim(ctx, claim)
	}
}

func (o *orchestrator) lostClaim(ctx context.Context, claim *Claim) {
	logger.WarnCtx(ctx, "Fulfillment claim was taken over",
		zap.String("purchase_id", claim.Purchase.ID),
		zap.String("fulfillment_key", claim.Key),
	)
}

// RecoverStale hands an abandoned minting purchase back to a fulfillable status
func (o *orchestrator) RecoverStale(ctx context.Context, purchase *schema.Purchase) (bool, error) {
	if purchase.Status != domain.PurchaseStatusMinting {
		return false, nil
	}

	claimedAt := purchase.UpdatedAt
	if purchase.FulfillmentClaimedAt != nil {
		claimedAt = *purchase.FulfillmentClaimedAt
	}
	age := o.clock.Now().Sub(claimedAt)
	if age < o.config.StaleThreshold {
		return false, nil
	}

	post, err := o.store.GetPost(ctx, purchase.PostID)
	if err != nil {
		return false, fmt.Errorf("failed to get post: %w", err)
	}
	to := domain.PurchaseStatusAwaitingFulfillment
	if post != nil && post.MasterAssetID != nil {
		to = domain.PurchaseStatusMasterCreated
	}

	moved, err := o.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         to,
		ClaimKey:   purchase.FulfillmentKey,
		Update:     store.PurchaseUpdate{ClearClaim: true},
	})
	if err != nil {
		return false, fmt.Errorf("failed to recover stale fulfillment: %w", err)
	}
	if !moved {
		return false, nil
	}

	logger.WarnCtx(ctx, "Recovered stale fulfillment claim",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", purchase.PostID),
		zap.String("to", string(to)),
		zap.Duration("age", age),
	)
	metrics.StaleRecoveries.WithLabelValues("purchase", string(domain.PurchaseStatusMinting)).Inc()
	return true, nil
}

func (o *orchestrator) getPurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	purchase, err := o.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return nil, domain.ErrPurchaseNotFound
	}
	return purchase, nil
}
