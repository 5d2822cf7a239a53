package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/fulfillment"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/metrics"
	"github.com/feral-file/ff-editions/internal/notification"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// WebhookResult is the outcome of an inbound transaction webhook
type WebhookResult string

const (
	WebhookProcessed WebhookResult = "processed"
	WebhookDuplicate WebhookResult = "duplicate"
	// WebhookUnmatched means no record carries the signature
	WebhookUnmatched WebhookResult = "unmatched"
)

const (
	paymentFailedReason   = "payment transaction failed on-chain"
	paymentMismatchReason = "payment mismatch"
	paymentExpiredReason  = "payment transaction never landed"
	recordPurchase        = "purchase"
	recordCollection      = "collection"
)

// Config holds reconciler configuration
type Config struct {
	// StaleThreshold after which an unsigned reservation is abandoned and a pending
	// collection whose transaction is unknown is failed
	StaleThreshold time.Duration
	// PaymentExpiry after which a submitted payment the chain has never seen is failed
	PaymentExpiry time.Duration
}

// Reconciler advances acquisition records from on-chain observations. Every write is a
// conditional transition so concurrent polls, sweeps and webhooks converge.
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Reconciler=MockReconciler
type Reconciler interface {
	// ReconcilePurchase queries the chain for a purchase and applies what it finds,
	// fulfilling it once the payment settled. Returns the purchase as last read.
	ReconcilePurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error)

	// ReconcileCollection queries the chain for a collection and applies what it finds.
	// Returns the collection as last read.
	ReconcileCollection(ctx context.Context, collectionID string) (*schema.Collection, error)

	// HandleWebhook applies a pushed transaction outcome
	HandleWebhook(ctx context.Context, signature string, outcome domain.TxStatus, payload []byte) (WebhookResult, error)
}

type reconciler struct {
	config       Config
	store        store.Store
	ledger       chain.LedgerReader
	orchestrator fulfillment.Orchestrator
	notifier     notification.Dispatcher
	clock        adapter.Clock
}

// NewReconciler creates a reconciler
func NewReconciler(
	cfg Config,
	st store.Store,
	ledger chain.LedgerReader,
	orchestrator fulfillment.Orchestrator,
	notifier notification.Dispatcher,
	clock adapter.Clock,
) Reconciler {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = domain.DEFAULT_STALE_THRESHOLD
	}
	if cfg.PaymentExpiry <= 0 {
		cfg.PaymentExpiry = domain.DEFAULT_PAYMENT_EXPIRY
	}
	return &reconciler{
		config:       cfg,
		store:        st,
		ledger:       ledger,
		orchestrator: orchestrator,
		notifier:     notifier,
		clock:        clock,
	}
}

// ReconcilePurchase reconciles a purchase
func (r *reconciler) ReconcilePurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	purchase, err := r.getPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if purchase.Status.HoldsReservation() {
		if purchase.PaymentTxSignature == nil {
			if err := r.abandonIfStale(ctx, purchase); err != nil {
				return nil, err
			}
			return r.getPurchase(ctx, purchaseID)
		}

		status, err := r.ledger.GetSignatureStatus(ctx, *purchase.PaymentTxSignature)
		if err != nil {
			return nil, fmt.Errorf("failed to get payment status: %w", err)
		}
		if err := r.applyPaymentOutcome(ctx, purchase, status); err != nil {
			return nil, err
		}
		if purchase, err = r.getPurchase(ctx, purchaseID); err != nil {
			return nil, err
		}
	}

	return r.advance(ctx, purchase)
}

// advance runs the fulfillment of a paid purchase and back-fills a missing asset id
func (r *reconciler) advance(ctx context.Context, purchase *schema.Purchase) (*schema.Purchase, error) {
	switch {
	case purchase.Status.IsFulfillable(), purchase.Status == domain.PurchaseStatusMinting:
		fulfilled, err := r.orchestrator.Fulfill(ctx, purchase.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fulfill purchase: %w", err)
		}
		return fulfilled, nil

	case purchase.Status == domain.PurchaseStatusConfirmed && purchase.AssetID == nil && purchase.PrintTxSignature != nil:
		assetID := r.extractAssetID(ctx, *purchase.PrintTxSignature)
		if assetID == "" {
			return purchase, nil
		}
		if _, err := r.store.SetPurchaseAssetID(ctx, purchase.ID, assetID); err != nil {
			logger.WarnCtx(ctx, "Failed to back-fill purchase asset id",
				zap.String("purchase_id", purchase.ID),
				zap.Error(err),
			)
			return purchase, nil
		}
		return r.getPurchase(ctx, purchase.ID)
	}

	return purchase, nil
}

// abandonIfStale releases a reservation that never received a signature
func (r *reconciler) abandonIfStale(ctx context.Context, purchase *schema.Purchase) error {
	if purchase.Status != domain.PurchaseStatusReserved {
		return nil
	}
	age := r.clock.Now().Sub(purchase.ReservedAt)
	if age < r.config.StaleThreshold {
		return nil
	}

	now := r.clock.Now()
	moved, err := r.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:                purchase.ID,
		From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
		To:                        domain.PurchaseStatusAbandoned,
		RequireNoPaymentSignature: true,
		ReleaseSupply:             true,
		Update:                    store.PurchaseUpdate{FailedAt: &now},
	})
	if err != nil {
		return fmt.Errorf("failed to abandon stale reservation: %w", err)
	}
	if !moved {
		return nil
	}

	logger.InfoCtx(ctx, "Abandoned stale reservation",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", purchase.PostID),
		zap.Duration("age", age),
	)
	metrics.StaleRecoveries.WithLabelValues(recordPurchase, string(domain.PurchaseStatusReserved)).Inc()
	metrics.ReconcilerTransitions.WithLabelValues(recordPurchase, string(domain.PurchaseStatusAbandoned)).Inc()
	return nil
}

// applyPaymentOutcome moves a purchase whose payment landed, failed or never showed up
func (r *reconciler) applyPaymentOutcome(ctx context.Context, purchase *schema.Purchase, outcome domain.TxStatus) error {
	switch {
	case outcome.Settled():
		return r.confirmPayment(ctx, purchase, outcome)
	case outcome == domain.TxStatusFailed:
		return r.failPayment(ctx, purchase, paymentFailedReason)
	case outcome == domain.TxStatusNotFound:
		return r.expireUnseenPayment(ctx, purchase)
	}
	return nil
}

// confirmPayment checks the settled transaction against the purchase before it is fulfilled
func (r *reconciler) confirmPayment(ctx context.Context, purchase *schema.Purchase, outcome domain.TxStatus) error {
	post, err := r.store.GetPost(ctx, purchase.PostID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, purchase.PostID)
	}

	err = r.ledger.VerifyPayment(ctx, *purchase.PaymentTxSignature, chain.PaymentExpectation{
		Payer:    purchase.BuyerWallet,
		Payee:    post.CreatorWallet,
		Amount:   purchase.AmountPaid,
		Currency: purchase.Currency,
	})
	if errors.Is(err, domain.ErrPaymentMismatch) {
		logger.WarnCtx(ctx, "Payment does not match purchase",
			zap.String("purchase_id", purchase.ID),
			zap.String("signature", *purchase.PaymentTxSignature),
			zap.Error(err),
		)
		return r.failPayment(ctx, purchase, paymentMismatchReason)
	}
	if err != nil {
		return fmt.Errorf("failed to verify payment: %w", err)
	}

	now := r.clock.Now()
	moved, err := r.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusReserved, domain.PurchaseStatusSubmitted},
		To:         domain.PurchaseStatusAwaitingFulfillment,
		Update:     store.PurchaseUpdate{PaymentConfirmedAt: &now},
	})
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if moved {
		logger.InfoCtx(ctx, "Payment confirmed",
			zap.String("purchase_id", purchase.ID),
			zap.String("post_id", purchase.PostID),
			zap.String("signature", *purchase.PaymentTxSignature),
			zap.String("commitment", string(outcome)),
		)
		metrics.ReconcilerTransitions.WithLabelValues(recordPurchase, string(domain.PurchaseStatusAwaitingFulfillment)).Inc()
	}
	return nil
}

// failPayment fails a purchase still holding its reservation and releases the supply
func (r *reconciler) failPayment(ctx context.Context, purchase *schema.Purchase, reason string) error {
	now := r.clock.Now()
	moved, err := r.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:    purchase.ID,
		From:          []domain.PurchaseStatus{domain.PurchaseStatusReserved, domain.PurchaseStatusSubmitted},
		To:            domain.PurchaseStatusFailed,
		ReleaseSupply: true,
		Update: store.PurchaseUpdate{
			FailureReason: &reason,
			FailedAt:      &now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to fail purchase: %w", err)
	}
	if !moved {
		return nil
	}

	logger.InfoCtx(ctx, "Payment failed",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", purchase.PostID),
		zap.String("signature", *purchase.PaymentTxSignature),
		zap.String("reason", reason),
	)
	metrics.ReconcilerTransitions.WithLabelValues(recordPurchase, string(domain.PurchaseStatusFailed)).Inc()
	r.notifier.Notify(ctx, domain.Notification{
		Kind:      domain.NotificationPurchaseFailed,
		UserID:    purchase.UserID,
		PostID:    purchase.PostID,
		SubjectID: purchase.ID,
		Signature: purchase.PaymentTxSignature,
	})
	return nil
}

// expireUnseenPayment fails a submitted purchase whose payment the chain never saw.
// Its blockhash has long expired by then so the transaction can no longer land.
func (r *reconciler) expireUnseenPayment(ctx context.Context, purchase *schema.Purchase) error {
	if purchase.Status != domain.PurchaseStatusSubmitted || purchase.SubmittedAt == nil {
		return nil
	}
	now := r.clock.Now()
	age := now.Sub(*purchase.SubmittedAt)
	if age < r.config.PaymentExpiry {
		return nil
	}

	reason := paymentExpiredReason
	moved, err := r.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:    purchase.ID,
		From:          []domain.PurchaseStatus{domain.PurchaseStatusSubmitted},
		To:            domain.PurchaseStatusFailed,
		ReleaseSupply: true,
		Update: store.PurchaseUpdate{
			FailureReason: &reason,
			FailedAt:      &now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to expire submitted payment: %w", err)
	}
	if !moved {
		return nil
	}

	logger.InfoCtx(ctx, "Expired unseen payment",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", purchase.PostID),
		zap.String("signature", *purchase.PaymentTxSignature),
		zap.Duration("age", age),
	)
	metrics.StaleRecoveries.WithLabelValues(recordPurchase, string(domain.PurchaseStatusSubmitted)).Inc()
	metrics.ReconcilerTransitions.WithLabelValues(recordPurchase, string(domain.PurchaseStatusFailed)).Inc()
	r.notifier.Notify(ctx, domain.Notification{
		Kind:      domain.NotificationPurchaseFailed,
		UserID:    purchase.UserID,
		PostID:    purchase.PostID,
		SubjectID: purchase.ID,
		Signature: purchase.PaymentTxSignature,
	})
	return nil
}

// ReconcileCollection reconciles a collection
func (r *reconciler) ReconcileCollection(ctx context.Context, collectionID string) (*schema.Collection, error) {
	collection, err := r.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	switch collection.Status {
	case domain.CollectionStatusPending:
		outcome := domain.TxStatusNotFound
		if collection.TxSignature != nil {
			outcome, err = r.ledger.GetSignatureStatus(ctx, *collection.TxSignature)
			if err != nil {
				return nil, fmt.Errorf("failed to get collection transaction status: %w", err)
			}
		}
		if err := r.applyCollectionOutcome(ctx, collection, outcome); err != nil {
			return nil, err
		}

	case domain.CollectionStatusConfirmed:
		if collection.AssetID != nil || collection.TxSignature == nil {
			return collection, nil
		}
		assetID := r.extractAssetID(ctx, *collection.TxSignature)
		if assetID == "" {
			return collection, nil
		}
		if _, err := r.store.SetCollectionAssetID(ctx, collection.ID, assetID); err != nil {
			logger.WarnCtx(ctx, "Failed to back-fill collection asset id",
				zap.String("collection_id", collection.ID),
				zap.Error(err),
			)
			return collection, nil
		}

	default:
		return collection, nil
	}

	return r.getCollection(ctx, collectionID)
}

// applyCollectionOutcome moves a pending collection according to its mint transaction
func (r *reconciler) applyCollectionOutcome(ctx context.Context, collection *schema.Collection, outcome domain.TxStatus) error {
	now := r.clock.Now()

	switch {
	case outcome.Settled():
		update := store.CollectionUpdate{ConfirmedAt: &now}
		if assetID := r.extractAssetID(ctx, *collection.TxSignature); assetID != "" {
			update.AssetID = &assetID
		}
		moved, err := r.store.TransitionCollection(ctx, store.CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusPending,
			To:           domain.CollectionStatusConfirmed,
			Update:       update,
		})
		if err != nil {
			return fmt.Errorf("failed to confirm collection: %w", err)
		}
		if !moved {
			return nil
		}
		logger.InfoCtx(ctx, "Collection confirmed",
			zap.String("collection_id", collection.ID),
			zap.String("post_id", collection.PostID),
			zap.String("signature", *collection.TxSignature),
		)
		metrics.ReconcilerTransitions.WithLabelValues(recordCollection, string(domain.CollectionStatusConfirmed)).Inc()
		r.notifier.Notify(ctx, domain.Notification{
			Kind:      domain.NotificationCollectionConfirmed,
			UserID:    collection.UserID,
			PostID:    collection.PostID,
			SubjectID: collection.ID,
			AssetID:   update.AssetID,
			Signature: collection.TxSignature,
		})

	case outcome == domain.TxStatusFailed:
		moved, err := r.store.TransitionCollection(ctx, store.CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusPending,
			To:           domain.CollectionStatusFailed,
		})
		if err != nil {
			return fmt.Errorf("failed to fail collection: %w", err)
		}
		if moved {
			logger.InfoCtx(ctx, "Collection mint failed on-chain",
				zap.String("collection_id", collection.ID),
				zap.String("post_id", collection.PostID),
			)
			metrics.ReconcilerTransitions.WithLabelValues(recordCollection, string(domain.CollectionStatusFailed)).Inc()
		}

	case outcome == domain.TxStatusNotFound:
		// A landed but unconfirmed transaction may still settle, so only unknown ones expire
		return r.failIfStale(ctx, collection)
	}

	return nil
}

// failIfStale fails a pending collection whose transaction never showed up
func (r *reconciler) failIfStale(ctx context.Context, collection *schema.Collection) error {
	now := r.clock.Now()
	age := now.Sub(collection.CreatedAt)
	if age < r.config.StaleThreshold {
		return nil
	}

	cutoff := now.Add(-r.config.StaleThreshold)
	moved, err := r.store.TransitionCollection(ctx, store.CollectionTransition{
		CollectionID:  collection.ID,
		From:          domain.CollectionStatusPending,
		To:            domain.CollectionStatusFailed,
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return fmt.Errorf("failed to expire pending collection: %w", err)
	}
	if !moved {
		return nil
	}

	logger.InfoCtx(ctx, "Expired stale pending collection",
		zap.String("collection_id", collection.ID),
		zap.String("post_id", collection.PostID),
		zap.Duration("age", age),
	)
	metrics.StaleRecoveries.WithLabelValues(recordCollection, string(domain.CollectionStatusPending)).Inc()
	metrics.ReconcilerTransitions.WithLabelValues(recordCollection, string(domain.CollectionStatusFailed)).Inc()
	return nil
}

// HandleWebhook applies a pushed transaction outcome
func (r *reconciler) HandleWebhook(ctx context.Context, signature string, outcome domain.TxStatus, payload []byte) (WebhookResult, error) {
	if err := domain.ValidateSignature(signature); err != nil {
		return "", err
	}
	if !outcome.Valid() {
		return "", fmt.Errorf("unknown transaction outcome %q", outcome)
	}

	fresh, err := r.store.RecordWebhookReceipt(ctx, signature, outcome, payload)
	if err != nil {
		return "", fmt.Errorf("failed to record webhook receipt: %w", err)
	}
	if !fresh {
		logger.DebugCtx(ctx, "Duplicate webhook", zap.String("signature", signature), zap.String("outcome", string(outcome)))
		metrics.Webhooks.WithLabelValues(string(WebhookDuplicate)).Inc()
		return WebhookDuplicate, nil
	}

	result, err := r.applyWebhook(ctx, signature, outcome)
	if err != nil {
		// The receipt stays; polling and the sweeper finish the record
		metrics.Webhooks.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.Webhooks.WithLabelValues(string(result)).Inc()
	return result, nil
}

func (r *reconciler) applyWebhook(ctx context.Context, signature string, outcome domain.TxStatus) (WebhookResult, error) {
	purchase, err := r.store.GetPurchaseByTxSignature(ctx, signature)
	if err != nil {
		return "", fmt.Errorf("failed to get purchase by signature: %w", err)
	}
	if purchase != nil {
		isPayment := purchase.PaymentTxSignature != nil && *purchase.PaymentTxSignature == signature
		if isPayment && purchase.Status.HoldsReservation() {
			if err := r.applyPaymentOutcome(ctx, purchase, outcome); err != nil {
				return "", err
			}
			if purchase, err = r.getPurchase(ctx, purchase.ID); err != nil {
				return "", err
			}
		}
		if _, err := r.advance(ctx, purchase); err != nil {
			return "", err
		}
		return WebhookProcessed, nil
	}

	collection, err := r.store.GetCollectionByTxSignature(ctx, signature)
	if err != nil {
		return "", fmt.Errorf("failed to get collection by signature: %w", err)
	}
	if collection != nil {
		if collection.Status == domain.CollectionStatusPending {
			if err := r.applyCollectionOutcome(ctx, collection, outcome); err != nil {
				return "", err
			}
		}
		return WebhookProcessed, nil
	}

	logger.WarnCtx(ctx, "Webhook for unknown signature", zap.String("signature", signature))
	return WebhookUnmatched, nil
}

// extractAssetID derives the minted asset, empty when it is not available yet
func (r *reconciler) extractAssetID(ctx context.Context, signature string) string {
	assetID, err := r.ledger.ExtractAssetID(ctx, signature)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to extract asset id",
			zap.String("signature", signature),
			zap.Error(err),
		)
		return ""
	}
	return assetID
}

func (r *reconciler) getPurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error) {
	purchase, err := r.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return nil, domain.ErrPurchaseNotFound
	}
	return purchase, nil
}

func (r *reconciler) getCollection(ctx context.Context, collectionID string) (*schema.Collection, error) {
	collection, err := r.store.GetCollectionByID(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if collection == nil {
		return nil, domain.ErrCollectionNotFound
	}
	return collection, nil
}
