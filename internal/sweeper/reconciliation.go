package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/metrics"
	"github.com/feral-file/ff-editions/internal/reconciler"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// sweptPurchaseStatuses are the non-terminal purchase statuses that may need a nudge
var sweptPurchaseStatuses = []domain.PurchaseStatus{
	domain.PurchaseStatusReserved,
	domain.PurchaseStatusSubmitted,
	domain.PurchaseStatusAwaitingFulfillment,
	domain.PurchaseStatusMinting,
	domain.PurchaseStatusMasterCreated,
}

// ReconciliationSweeperConfig holds configuration for the reconciliation sweeper
type ReconciliationSweeperConfig struct {
	Interval       time.Duration // Time to sleep between sweep cycles
	BatchSize      int           // Records of each kind per cycle
	WorkerPoolSize int           // Concurrent workers
	QueueSize      int           // Pending tasks the pool buffers, defaults to twice the batch size
	MinAge         time.Duration // Skip records touched more recently than this
	// ListRetryMaxElapsed bounds how long listing is retried before the cycle is skipped
	ListRetryMaxElapsed time.Duration
}

type reconciliationSweeper struct {
	config     *ReconciliationSweeperConfig
	store      store.Store
	reconciler reconciler.Reconciler
	pool       pond.Pool
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewReconciliationSweeper creates a sweeper that periodically reconciles purchases and
// collections nobody is polling, so abandoned reservations release supply and paid
// purchases get fulfilled even if the buyer never comes back.
func NewReconciliationSweeper(
	config *ReconciliationSweeperConfig,
	st store.Store,
	rec reconciler.Reconciler,
	clock adapter.Clock,
) Sweeper {
	if config.QueueSize <= 0 {
		config.QueueSize = config.BatchSize * 2
	}
	if config.ListRetryMaxElapsed <= 0 {
		config.ListRetryMaxElapsed = time.Minute
	}
	return &reconciliationSweeper{
		config:     config,
		store:      st,
		reconciler: rec,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *reconciliationSweeper) Name() string {
	return "reconciliation-sweeper"
}

// Start runs sweep cycles until the context is canceled or Stop is called
func (s *reconciliationSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting reconciliation sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Duration("min_age", s.config.MinAge),
	)

	s.pool = s.newPool(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Reconciliation sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Reconciliation sweeper stop requested")
			s.cleanup()
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

func (s *reconciliationSweeper) newPool(ctx context.Context) pond.Pool {
	return pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.QueueSize),
		pond.WithContext(ctx),
	)
}

func (s *reconciliationSweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop signals the main loop and waits for the in-flight cycle to finish
func (s *reconciliationSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping reconciliation sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Reconciliation sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Reconciliation sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// sweepCounters tallies the outcome of one cycle
type sweepCounters struct {
	advanced  atomic.Int32
	unchanged atomic.Int32
	transient atomic.Int32
	failed    atomic.Int32
}

func (c *sweepCounters) record(ctx context.Context, before, after string, err error, fields ...zap.Field) {
	switch {
	case err == nil && before != after:
		c.advanced.Add(1)
	case err == nil:
		c.unchanged.Add(1)
	case errors.Is(err, domain.ErrTransientChain):
		c.transient.Add(1)
		logger.WarnCtx(ctx, "Chain unavailable during sweep, will retry next cycle", append(fields, zap.Error(err))...)
	default:
		c.failed.Add(1)
		logger.ErrorCtx(ctx, err, fields...)
	}
}

func (s *reconciliationSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()
	cutoff := startTime.Add(-s.config.MinAge)

	purchases, collections, err := s.listWithRetry(ctx, cutoff)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to list records for reconciliation: %w", err))
		if !s.sleep(ctx, s.config.Interval) {
			return ctx.Err()
		}
		return nil
	}

	if len(purchases) == 0 && len(collections) == 0 {
		logger.DebugCtx(ctx, "No records need reconciliation")
		if !s.sleep(ctx, s.config.Interval) {
			return ctx.Err()
		}
		return nil
	}

	var counters sweepCounters

	for _, p := range purchases {
		s.pool.Submit(func() {
			after, err := s.reconciler.ReconcilePurchase(ctx, p.ID)
			status := string(p.Status)
			if after != nil {
				status = string(after.Status)
			}
			counters.record(ctx, string(p.Status), status, err,
				zap.String("purchase_id", p.ID),
				zap.String("status", string(p.Status)),
			)
		})
	}

	for _, c := range collections {
		s.pool.Submit(func() {
			after, err := s.reconciler.ReconcileCollection(ctx, c.ID)
			status := string(c.Status)
			if after != nil {
				status = string(after.Status)
			}
			counters.record(ctx, string(c.Status), status, err,
				zap.String("collection_id", c.ID),
			)
		})
	}

	s.pool.StopAndWait()
	s.pool = s.newPool(ctx)

	duration := s.clock.Since(startTime)
	metrics.SweepDuration.Observe(duration.Seconds())
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", duration),
		zap.Int("purchases", len(purchases)),
		zap.Int("collections", len(collections)),
		zap.Int32("advanced", counters.advanced.Load()),
		zap.Int32("unchanged", counters.unchanged.Load()),
		zap.Int32("transient_errors", counters.transient.Load()),
		zap.Int32("failed", counters.failed.Load()),
	)

	if !s.sleep(ctx, s.config.Interval) {
		return ctx.Err()
	}
	return nil
}

// listWithRetry loads both batches, retrying database errors with exponential backoff
func (s *reconciliationSweeper) listWithRetry(ctx context.Context, cutoff time.Time) ([]schema.Purchase, []schema.Collection, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = s.config.ListRetryMaxElapsed
	b.RandomizationFactor = 0.5

	var purchases []schema.Purchase
	var collections []schema.Collection
	operation := func() error {
		var err error
		purchases, err = s.store.ListPurchases(ctx, store.ListPurchasesFilter{
			Statuses:      sweptPurchaseStatuses,
			UpdatedBefore: &cutoff,
			Limit:         s.config.BatchSize,
		})
		if err != nil {
			return fmt.Errorf("failed to list purchases: %w", err)
		}
		collections, err = s.store.ListPendingCollections(ctx, cutoff, s.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list pending collections: %w", err)
		}
		return nil
	}

	var attemptCount int
	notifyOnError := func(err error, d time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Listing records failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", d),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return nil, nil, err
	}
	return purchases, collections, nil
}

// sleep returns false when interrupted by cancellation or Stop
func (s *reconciliationSweeper) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-s.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
