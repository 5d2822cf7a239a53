package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
)

// Status is the outcome of a collect request
type Status string

const (
	StatusPending          Status = "pending"
	StatusAlreadyCollected Status = "already_collected"
	StatusNotStarted       Status = "not_started"
	StatusEnded            Status = "ended"
	StatusRateLimited      Status = "rate_limited"
)

// CollectInput is the input of a collect request
type CollectInput struct {
	UserID          string
	PostID          string
	RecipientWallet string
	// IP is the network origin of the request
	IP string
}

// Result is the outcome of a collect request
type Result struct {
	Status     Status
	Collection *schema.Collection
	StartsAt   *time.Time
	EndedAt    *time.Time
	RateLimit  *ratelimit.Decision
}

// Service runs the free collectible side of the acquisition pipeline
//
//go:generate mockgen -source=service.go -destination=../mocks/collection.go -package=mocks -mock_names=Service=MockCollectionService
type Service interface {
	// Collect mints the collectible to the user, paid by the server. At most one collection
	// exists per user and post; a failed one is retried in place.
	Collect(ctx context.Context, input CollectInput) (*Result, error)

	// GetStatus reconciles the collection against the chain and returns it
	GetStatus(ctx context.Context, userID, collectionID string) (*schema.Collection, error)
}

type service struct {
	config     Config
	store      store.Store
	limiter    ratelimit.Limiter
	builder    chain.TransactionBuilder
	reconciler reconciler.Reconciler
	clock      adapter.Clock
}

// Config holds collection configuration
type Config struct {
	// StaleThreshold after which a pending collection without a signature is no longer resubmitted
	StaleThreshold time.Duration
}

// NewService creates a collection service
func NewService(
	cfg Config,
	st store.Store,
	limiter ratelimit.Limiter,
	builder chain.TransactionBuilder,
	rec reconciler.Reconciler,
	clock adapter.Clock,
) Service {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = domain.DEFAULT_STALE_THRESHOLD
	}
	return &service{
		config:     cfg,
		store:      st,
		limiter:    limiter,
		builder:    builder,
		reconciler: rec,
		clock:      clock,
	}
}

// Collect mints the collectible to the user
func (s *service) Collect(ctx context.Context, input CollectInput) (*Result, error) {
	post, err := s.store.GetPost(ctx, input.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, domain.ErrPostNotFound
	}
	if post.Kind != domain.PostKindCollectible {
		return nil, domain.ErrWrongPostKind
	}

	wallet := strings.TrimSpace(input.RecipientWallet)
	if wallet == "" {
		return nil, domain.ErrMissingWallet
	}
	if err := domain.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	existing, err := s.store.GetCollection(ctx, input.UserID, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if existing != nil {
		if result, done, err := s.resume(ctx, post, existing); done || err != nil {
			return result, err
		}
		// Only a failed collection falls through and is retried in place
		existing, err = s.store.GetCollectionByID(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get collection: %w", err)
		}
	}

	now := s.clock.Now()
	window := mintwindow.Evaluate(now, post.MintWindowStart, post.MintWindowEnd)
	if !window.Permits() {
		metrics.Collections.WithLabelValues(string(window.State)).Inc()
		return &Result{
			Status:   Status(window.State),
			StartsAt: window.StartsAt,
			EndedAt:  window.EndedAt,
		}, nil
	}

	decision, err := s.limiter.Allow(ctx, ratelimit.Subject{UserID: input.UserID, IP: input.IP})
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !decision.Allowed {
		logger.InfoCtx(ctx, "Collect rate limited",
			zap.String("user_id", input.UserID),
			zap.String("post_id", post.ID),
			zap.String("reason", string(decision.Reason)),
		)
		metrics.RateLimitRejections.WithLabelValues(string(decision.Reason)).Inc()
		metrics.Collections.WithLabelValues(string(StatusRateLimited)).Inc()
		return &Result{Status: StatusRateLimited, RateLimit: decision}, nil
	}

	var origin *string
	if input.IP != "" {
		origin = &input.IP
	}

	var (
		collection *schema.Collection
		owned      bool
	)
	if existing != nil && existing.Status == domain.CollectionStatusFailed {
		collection, owned, err = s.restart(ctx, existing, wallet, origin, now)
	} else {
		collection, owned, err = s.create(ctx, input.UserID, post.ID, wallet, origin, now)
	}
	if err != nil {
		return nil, err
	}
	if !owned {
		// A concurrent request owns this attempt
		return s.degrade(collection), nil
	}

	return s.submit(ctx, post, collection)
}

// resume handles a collect request for a user who already has a collection. Returns done
// when the request is answered without a new attempt.
func (s *service) resume(ctx context.Context, post *schema.Post, existing *schema.Collection) (*Result, bool, error) {
	switch existing.Status {
	case domain.CollectionStatusConfirmed:
		metrics.Collections.WithLabelValues(string(StatusAlreadyCollected)).Inc()
		return &Result{Status: StatusAlreadyCollected, Collection: existing}, true, nil

	case domain.CollectionStatusPending:
		current, err := s.reconciler.ReconcileCollection(ctx, existing.ID)
		if err != nil {
			return nil, true, err
		}
		switch current.Status {
		case domain.CollectionStatusConfirmed:
			metrics.Collections.WithLabelValues(string(StatusAlreadyCollected)).Inc()
			return &Result{Status: StatusAlreadyCollected, Collection: current}, true, nil
		case domain.CollectionStatusPending:
			if current.TxSignature == nil && s.clock.Now().Sub(current.CreatedAt) < s.config.StaleThreshold {
				// The previous submission never returned; resend it under the same attempt
				result, err := s.submit(ctx, post, current)
				return result, true, err
			}
			metrics.Collections.WithLabelValues(string(StatusPending)).Inc()
			return &Result{Status: StatusPending, Collection: current}, true, nil
		}
	}
	return nil, false, nil
}

// create inserts the collection. Returns false with the winner's record on conflict.
func (s *service) create(ctx context.Context, userID, postID, wallet string, origin *string, now time.Time) (*schema.Collection, bool, error) {
	collection := &schema.Collection{
		ID:              uuid.NewString(),
		UserID:          userID,
		PostID:          postID,
		RecipientWallet: wallet,
		Status:          domain.CollectionStatusPending,
		OriginIP:        origin,
		CreatedAt:       now,
	}
	created, err := s.store.CreateCollection(ctx, collection)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create collection: %w", err)
	}
	if created {
		return collection, true, nil
	}

	winner, err := s.store.GetCollection(ctx, userID, postID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get collection: %w", err)
	}
	if winner == nil {
		return nil, false, errors.New("collection conflict without a winner")
	}
	return winner, false, nil
}

// restart moves a failed collection back to pending for a new attempt. Returns false when a
// concurrent request restarted it first.
func (s *service) restart(ctx context.Context, existing *schema.Collection, wallet string, origin *string, now time.Time) (*schema.Collection, bool, error) {
	moved, err := s.store.TransitionCollection(ctx, store.CollectionTransition{
		CollectionID: existing.ID,
		From:         domain.CollectionStatusFailed,
		To:           domain.CollectionStatusPending,
		Update: store.CollectionUpdate{
			RecipientWallet:  &wallet,
			OriginIP:         origin,
			RestartedAt:      &now,
			ClearTxSignature: true,
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to restart collection: %w", err)
	}

	current, err := s.store.GetCollectionByID(ctx, existing.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get collection: %w", err)
	}
	if current == nil {
		return nil, false, domain.ErrCollectionNotFound
	}
	if !moved {
		return current, false, nil
	}

	logger.InfoCtx(ctx, "Retrying failed collection",
		zap.String("collection_id", current.ID),
		zap.String("post_id", current.PostID),
	)
	return current, true, nil
}

// degrade maps the record of a concurrent attempt to a collect result
func (s *service) degrade(c *schema.Collection) *Result {
	result := &Result{Status: StatusPending, Collection: c}
	if c.Status == domain.CollectionStatusConfirmed {
		result.Status = StatusAlreadyCollected
	}
	metrics.Collections.WithLabelValues(string(result.Status)).Inc()
	return result
}

// submit sends the server-paid mint and records its signature
func (s *service) submit(ctx context.Context, post *schema.Post, collection *schema.Collection) (*Result, error) {
	submission, err := s.builder.MintCollectible(ctx, chain.CollectibleRequest{
		CollectionID:    collection.ID,
		PostID:          post.ID,
		Name:            post.Name,
		Symbol:          post.Symbol,
		MetadataURI:     post.MetadataURI,
		RecipientWallet: collection.RecipientWallet,
		Attempt:         attemptKey(collection),
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransientChain) {
			// Left pending; the next request resends under the same attempt
			return nil, err
		}
		s.fail(ctx, collection)
		metrics.Collections.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to mint collectible: %w", err)
	}

	if _, err := s.store.SetCollectionTxSignature(ctx, collection.ID, submission.Signature); err != nil {
		return nil, fmt.Errorf("failed to record collection signature: %w", err)
	}

	current, err := s.store.GetCollectionByID(ctx, collection.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if current == nil {
		return nil, domain.ErrCollectionNotFound
	}

	logger.InfoCtx(ctx, "Collectible mint submitted",
		zap.String("collection_id", collection.ID),
		zap.String("post_id", post.ID),
		zap.String("signature", submission.Signature),
	)
	metrics.Collections.WithLabelValues(string(StatusPending)).Inc()
	return &Result{Status: StatusPending, Collection: current}, nil
}

func (s *service) fail(ctx context.Context, collection *schema.Collection) {
	_, err := s.store.TransitionCollection(ctx, store.CollectionTransition{
		CollectionID: collection.ID,
		From:         domain.CollectionStatusPending,
		To:           domain.CollectionStatusFailed,
	})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fail collection",
			zap.String("collection_id", collection.ID),
			zap.Error(err),
		)
	}
}

// attemptKey identifies one mint attempt of a collection; a retry restarts created_at
func attemptKey(c *schema.Collection) string {
	return strconv.FormatInt(c.CreatedAt.UnixMicro(), 10)
}

// GetStatus reconciles the collection and returns it
func (s *service) GetStatus(ctx context.Context, userID, collectionID string) (*schema.Collection, error) {
	collection, err := s.store.GetCollectionByID(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if collection == nil {
		return nil, domain.ErrCollectionNotFound
	}
	if collection.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return s.reconciler.ReconcileCollection(ctx, collectionID)
}
