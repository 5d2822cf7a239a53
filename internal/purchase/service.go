package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/metrics"
	"github.com/feral-file/ff-editions/internal/mintwindow"
	"github.com/feral-file/ff-editions/internal/ratelimit"
	"github.com/feral-file/ff-editions/internal/reconciler"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/store/schema"
	"github.com/feral-file/ff-editions/internal/supply"
)

// ReservationStatus is the outcome of a reservation request
type ReservationStatus string

const (
	ReservationReserved          ReservationStatus = "reserved"
	ReservationSoldOut           ReservationStatus = "sold_out"
	ReservationInsufficientFunds ReservationStatus = "insufficient_funds"
	ReservationNotStarted        ReservationStatus = "not_started"
	ReservationEnded             ReservationStatus = "ended"
	ReservationRateLimited       ReservationStatus = "rate_limited"
)

const (
	buildFailedReason = "failed to build payment transaction"
	cancelledReason   = "cancelled by owner"
)

// ReserveInput is the input of a reservation request
type ReserveInput struct {
	UserID      string
	PostID      string
	BuyerWallet string
	// IP is the network origin of the request
	IP string
}

// Reservation is the result of a reservation request. Only a reserved result carries a
// purchase.
type Reservation struct {
	Status              ReservationStatus
	PurchaseID          string
	UnsignedTransaction string
	StartsAt            *time.Time
	EndedAt             *time.Time
	RateLimit           *ratelimit.Decision
}

// Service runs the purchase side of the acquisition pipeline
//
//go:generate mockgen -source=service.go -destination=../mocks/purchase.go -package=mocks -mock_names=Service=MockPurchaseService
type Service interface {
	// Reserve takes a unit of supply and returns the payment transaction for the buyer to sign
	Reserve(ctx context.Context, input ReserveInput) (*Reservation, error)

	// SubmitSignature records the buyer's payment signature. Resubmitting the same signature
	// is a no-op.
	SubmitSignature(ctx context.Context, userID, purchaseID, signature string) (*schema.Purchase, error)

	// GetStatus reconciles the purchase against the chain and returns it
	GetStatus(ctx context.Context, userID, purchaseID string) (*schema.Purchase, error)

	// Cancel abandons a reservation that has no signature and releases its supply
	Cancel(ctx context.Context, userID, purchaseID string) (*schema.Purchase, error)
}

type service struct {
	store      store.Store
	supply     supply.Ledger
	limiter    ratelimit.Limiter
	ledger     chain.LedgerReader
	builder    chain.TransactionBuilder
	reconciler reconciler.Reconciler
	clock      adapter.Clock
}

// NewService creates a purchase service
func NewService(
	st store.Store,
	supplyLedger supply.Ledger,
	limiter ratelimit.Limiter,
	ledger chain.LedgerReader,
	builder chain.TransactionBuilder,
	rec reconciler.Reconciler,
	clock adapter.Clock,
) Service {
	return &service{
		store:      st,
		supply:     supplyLedger,
		limiter:    limiter,
		ledger:     ledger,
		builder:    builder,
		reconciler: rec,
		clock:      clock,
	}
}

// Reserve takes a unit of supply for the buyer
func (s *service) Reserve(ctx context.Context, input ReserveInput) (*Reservation, error) {
	post, err := s.store.GetPost(ctx, input.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, domain.ErrPostNotFound
	}
	if post.Kind != domain.PostKindEdition {
		return nil, domain.ErrWrongPostKind
	}

	wallet := strings.TrimSpace(input.BuyerWallet)
	if wallet == "" {
		return nil, domain.ErrMissingWallet
	}
	if err := domain.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	window := mintwindow.Evaluate(now, post.MintWindowStart, post.MintWindowEnd)
	if !window.Permits() {
		metrics.Reservations.WithLabelValues(string(window.State)).Inc()
		return &Reservation{
			Status:   ReservationStatus(window.State),
			StartsAt: window.StartsAt,
			EndedAt:  window.EndedAt,
		}, nil
	}

	decision, err := s.limiter.Allow(ctx, ratelimit.Subject{UserID: input.UserID, IP: input.IP})
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !decision.Allowed {
		logger.InfoCtx(ctx, "Reservation rate limited",
			zap.String("user_id", input.UserID),
			zap.String("post_id", post.ID),
			zap.String("reason", string(decision.Reason)),
		)
		metrics.RateLimitRejections.WithLabelValues(string(decision.Reason)).Inc()
		metrics.Reservations.WithLabelValues(string(ReservationRateLimited)).Inc()
		return &Reservation{Status: ReservationRateLimited, RateLimit: decision}, nil
	}

	if post.Currency == domain.CurrencySOL && post.Price > 0 {
		balance, err := s.ledger.GetBalance(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("failed to get buyer balance: %w", err)
		}
		if balance < uint64(post.Price) {
			logger.InfoCtx(ctx, "Insufficient funds for reservation",
				zap.String("post_id", post.ID),
				zap.String("wallet", wallet),
				zap.Uint64("balance", balance),
				zap.Int64("price", post.Price),
			)
			metrics.Reservations.WithLabelValues(string(ReservationInsufficientFunds)).Inc()
			return &Reservation{Status: ReservationInsufficientFunds}, nil
		}
	}

	if err := s.supply.Reserve(ctx, post.ID); err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			metrics.Reservations.WithLabelValues(string(ReservationSoldOut)).Inc()
			return &Reservation{Status: ReservationSoldOut}, nil
		}
		return nil, err
	}

	purchase := &schema.Purchase{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		PostID:      post.ID,
		BuyerWallet: wallet,
		AmountPaid:  post.Price,
		Currency:    post.Currency,
		Status:      domain.PurchaseStatusReserved,
		ReservedAt:  now,
	}
	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		s.release(ctx, post.ID)
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	unsigned, err := s.builder.BuildPaymentTransaction(ctx, chain.PaymentRequest{
		PurchaseID:  purchase.ID,
		PostID:      post.ID,
		BuyerWallet: wallet,
		PayeeWallet: post.CreatorWallet,
		Amount:      post.Price,
		Currency:    post.Currency,
	})
	if err != nil {
		s.failReservation(ctx, purchase)
		return nil, fmt.Errorf("failed to build payment transaction: %w", err)
	}

	logger.InfoCtx(ctx, "Supply reserved",
		zap.String("purchase_id", purchase.ID),
		zap.String("post_id", post.ID),
		zap.String("user_id", input.UserID),
	)
	metrics.Reservations.WithLabelValues(string(ReservationReserved)).Inc()

	return &Reservation{
		Status:              ReservationReserved,
		PurchaseID:          purchase.ID,
		UnsignedTransaction: unsigned,
	}, nil
}

// failReservation fails a reservation whose payment could not be prepared
func (s *service) failReservation(ctx context.Context, purchase *schema.Purchase) {
	reason := buildFailedReason
	now := s.clock.Now()
	_, err := s.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:                purchase.ID,
		From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
		To:                        domain.PurchaseStatusFailed,
		RequireNoPaymentSignature: true,
		ReleaseSupply:             true,
		Update: store.PurchaseUpdate{
			FailureReason: &reason,
			FailedAt:      &now,
		},
	})
	if err != nil {
		// The stale reservation sweep releases it later
		logger.WarnCtx(ctx, "Failed to fail reservation",
			zap.String("purchase_id", purchase.ID),
			zap.Error(err),
		)
	}
}

func (s *service) release(ctx context.Context, postID string) {
	if err := s.supply.Release(ctx, postID); err != nil {
		logger.WarnCtx(ctx, "Failed to release supply",
			zap.String("post_id", postID),
			zap.Error(err),
		)
	}
}

// SubmitSignature records the payment signature
func (s *service) SubmitSignature(ctx context.Context, userID, purchaseID, signature string) (*schema.Purchase, error) {
	signature = strings.TrimSpace(signature)
	if err := domain.ValidateSignature(signature); err != nil {
		return nil, err
	}

	purchase, err := s.getOwned(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}

	if purchase.PaymentTxSignature != nil {
		if *purchase.PaymentTxSignature != signature {
			return nil, domain.ErrSignatureConflict
		}
		return s.reconcileQuietly(ctx, purchase), nil
	}
	if purchase.Status != domain.PurchaseStatusReserved {
		return nil, fmt.Errorf("%w: purchase is %s", domain.ErrInvalidStatusTransition, purchase.Status)
	}

	other, err := s.store.GetPurchaseByTxSignature(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to look up signature: %w", err)
	}
	if other != nil && other.ID != purchase.ID {
		return nil, domain.ErrSignatureConflict
	}

	now := s.clock.Now()
	moved, err := s.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:                purchase.ID,
		From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
		To:                        domain.PurchaseStatusSubmitted,
		RequireNoPaymentSignature: true,
		Update: store.PurchaseUpdate{
			PaymentTxSignature: &signature,
			SubmittedAt:        &now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record signature: %w", err)
	}

	if !moved {
		current, err := s.getOwned(ctx, userID, purchaseID)
		if err != nil {
			return nil, err
		}
		switch {
		case current.PaymentTxSignature != nil && *current.PaymentTxSignature == signature:
		case current.PaymentTxSignature != nil:
			return nil, domain.ErrSignatureConflict
		default:
			return nil, fmt.Errorf("%w: purchase is %s", domain.ErrInvalidStatusTransition, current.Status)
		}
		purchase = current
	} else {
		logger.InfoCtx(ctx, "Payment signature recorded",
			zap.String("purchase_id", purchase.ID),
			zap.String("post_id", purchase.PostID),
			zap.String("signature", signature),
		)
	}

	return s.reconcileQuietly(ctx, purchase), nil
}

// reconcileQuietly advances the purchase if the chain already knows the payment. The signature
// is recorded either way, so chain errors are only logged.
func (s *service) reconcileQuietly(ctx context.Context, purchase *schema.Purchase) *schema.Purchase {
	reconciled, err := s.reconciler.ReconcilePurchase(ctx, purchase.ID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to reconcile purchase after signature submission",
			zap.String("purchase_id", purchase.ID),
			zap.Error(err),
		)
		current, getErr := s.store.GetPurchase(ctx, purchase.ID)
		if getErr != nil || current == nil {
			return purchase
		}
		return current
	}
	return reconciled
}

// GetStatus reconciles the purchase and returns it
func (s *service) GetStatus(ctx context.Context, userID, purchaseID string) (*schema.Purchase, error) {
	if _, err := s.getOwned(ctx, userID, purchaseID); err != nil {
		return nil, err
	}
	return s.reconciler.ReconcilePurchase(ctx, purchaseID)
}

// Cancel abandons an unsigned reservation
func (s *service) Cancel(ctx context.Context, userID, purchaseID string) (*schema.Purchase, error) {
	purchase, err := s.getOwned(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status == domain.PurchaseStatusAbandoned {
		return purchase, nil
	}
	if purchase.Status != domain.PurchaseStatusReserved || purchase.PaymentTxSignature != nil {
		return nil, domain.ErrCancelNotAllowed
	}

	reason := cancelledReason
	now := s.clock.Now()
	moved, err := s.store.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID:                purchase.ID,
		From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
		To:                        domain.PurchaseStatusAbandoned,
		RequireNoPaymentSignature: true,
		ReleaseSupply:             true,
		Update: store.PurchaseUpdate{
			FailureReason: &reason,
			FailedAt:      &now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel purchase: %w", err)
	}

	current, err := s.getOwned(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if !moved && current.Status != domain.PurchaseStatusAbandoned {
		return nil, domain.ErrCancelNotAllowed
	}

	if moved {
		logger.InfoCtx(ctx, "Reservation cancelled",
			zap.String("purchase_id", purchase.ID),
			zap.String("post_id", purchase.PostID),
		)
		metrics.ReconcilerTransitions.WithLabelValues("purchase", string(domain.PurchaseStatusAbandoned)).Inc()
	}
	return current, nil
}

func (s *service) getOwned(ctx context.Context, userID, purchaseID string) (*schema.Purchase, error) {
	purchase, err := s.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return nil, domain.ErrPurchaseNotFound
	}
	if purchase.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return purchase, nil
}
