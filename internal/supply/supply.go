package supply

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/store"
)

// Ledger guards the supply counter of a post. current_supply never exceeds max_supply and
// never drops below zero; both operations are single conditional updates.
//
//go:generate mockgen -source=supply.go -destination=../mocks/supply.go -package=mocks -mock_names=Ledger=MockSupplyLedger
type Ledger interface {
	// Reserve takes one unit of supply. Returns domain.ErrSoldOut when none is left.
	Reserve(ctx context.Context, postID string) error

	// Release gives one unit back, clamped at zero
	Release(ctx context.Context, postID string) error
}

type ledger struct {
	store store.Store
}

// NewLedger creates a supply ledger over the store
func NewLedger(st store.Store) Ledger {
	return &ledger{store: st}
}

// Reserve takes one unit of supply
func (l *ledger) Reserve(ctx context.Context, postID string) error {
	ok, err := l.store.ReserveSupply(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to reserve supply: %w", err)
	}
	if !ok {
		logger.InfoCtx(ctx, "Post sold out", zap.String("post_id", postID))
		return domain.ErrSoldOut
	}
	return nil
}

// Release gives one unit back
func (l *ledger) Release(ctx context.Context, postID string) error {
	if err := l.store.ReleaseSupply(ctx, postID); err != nil {
		return fmt.Errorf("failed to release supply: %w", err)
	}
	return nil
}
