package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/config"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
)

const (
	dailyWindow         = 24 * time.Hour
	healthCheckInterval = 10 * time.Second
	// localIdleTTL drops per-key fallback limiters that have not been used for a day
	localIdleTTL = dailyWindow
)

// Subject identifies who is acquiring
type Subject struct {
	UserID string
	// IP is the network origin of the request; empty skips the IP limit
	IP string
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed bool
	// Reason is set when the request is rejected
	Reason     domain.RateLimitReason
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter throttles acquisition attempts per user and per network origin
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockLimiter
type Limiter interface {
	// Allow consumes one attempt for the subject. Checks run in order burst, daily, IP and
	// the first rejection wins. Each check consumes its own token as it passes, so an
	// attempt rejected by the daily or IP limit has still spent a burst token (and a daily
	// one when the IP limit rejects it). Retrying a rejected attempt can therefore trip the
	// burst limit before the daily one resets.
	Allow(ctx context.Context, subject Subject) (*Decision, error)

	// Close stops the health monitor and closes the Redis connection
	Close() error
}

// check is one limit applied to one key
type check struct {
	reason domain.RateLimitReason
	key    string
	limit  redis_rate.Limit
}

// localLimiter is a per-instance token bucket used while Redis is unavailable
type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	config         config.RateLimitConfig
	redis          adapter.RedisClient
	distributed    adapter.RedisRateLimiter
	clock          adapter.Clock
	redisAvailable atomic.Bool
	mu             sync.Mutex
	local          map[string]*localLimiter
	done           chan struct{}
	closeOnce      sync.Once
}

// NewLimiter creates a Redis backed limiter. rc may be nil, in which case only the
// per-instance fallback is used.
func NewLimiter(cfg config.RateLimitConfig, rc adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l := &limiter{
		config: cfg,
		redis:  rc,
		clock:  clock,
		local:  make(map[string]*localLimiter),
		done:   make(chan struct{}),
	}

	if rc == nil {
		if !cfg.EnableLocalFallback {
			return nil, errors.New("redis is not configured and fallback is disabled")
		}
		logger.Warn("Redis not configured, rate limits are per instance")
	} else {
		// Test Redis connectivity
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisAvailable := true
		if err := rc.Ping(ctx); err != nil {
			redisAvailable = false
			if !cfg.EnableLocalFallback {
				return nil, fmt.Errorf("redis unavailable and fallback disabled: %w", err)
			}
			logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
		}
		l.distributed = rc.RateLimiter()
		l.redisAvailable.Store(redisAvailable)
	}

	go l.monitor()

	logger.Info("Acquisition rate limiter initialized",
		zap.Int("burst_limit", cfg.BurstLimit),
		zap.Duration("burst_window", cfg.BurstWindow),
		zap.Int("daily_limit", cfg.DailyLimit),
		zap.Int("ip_limit", cfg.IPLimit),
		zap.Duration("ip_window", cfg.IPWindow),
		zap.Bool("distributed", rc != nil),
	)

	return l, nil
}

func (l *limiter) checks(subject Subject) []check {
	checks := []check{
		{
			reason: domain.RateLimitReasonBurst,
			key:    l.config.KeyPrefix + "burst:" + subject.UserID,
			limit:  windowLimit(l.config.BurstLimit, l.config.BurstWindow),
		},
		{
			reason: domain.RateLimitReasonDaily,
			key:    l.config.KeyPrefix + "daily:" + subject.UserID,
			limit:  windowLimit(l.config.DailyLimit, dailyWindow),
		},
	}
	if subject.IP != "" {
		checks = append(checks, check{
			reason: domain.RateLimitReasonIP,
			key:    l.config.KeyPrefix + "ip:" + subject.IP,
			limit:  windowLimit(l.config.IPLimit, l.config.IPWindow),
		})
	}
	return checks
}

// windowLimit allows n attempts per window, all of which may be spent at once
func windowLimit(n int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   n,
		Burst:  n,
		Period: window,
	}
}

// Allow consumes one attempt for the subject. Tokens taken by the checks that passed are
// not returned when a later check rejects.
func (l *limiter) Allow(ctx context.Context, subject Subject) (*Decision, error) {
	if subject.UserID == "" {
		return nil, errors.New("rate limit subject requires a user")
	}

	for _, c := range l.checks(subject) {
		decision, err := l.allow(ctx, c)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			logger.InfoCtx(ctx, "Acquisition rate limited",
				zap.String("user_id", subject.UserID),
				zap.String("reason", string(decision.Reason)),
				zap.Duration("retry_after", decision.RetryAfter),
			)
			return decision, nil
		}
	}
	return &Decision{Allowed: true}, nil
}

// allow tries the distributed limiter first and falls back to the local one on Redis errors
func (l *limiter) allow(ctx context.Context, c check) (*Decision, error) {
	if l.distributed != nil && l.redisAvailable.Load() {
		res, err := l.distributed.Allow(ctx, c.key, c.limit)
		if err == nil {
			return l.decide(c.reason, res.Allowed > 0, res.RetryAfter), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Redis error - mark as unavailable and fall back to local if enabled
		l.redisAvailable.Store(false)
		if !l.config.EnableLocalFallback {
			return nil, fmt.Errorf("redis rate limiter unavailable: %w", err)
		}
		logger.Warn("Redis rate limiter error, falling back to local",
			zap.String("key", c.key),
			zap.Error(err),
		)
	}

	if !l.config.EnableLocalFallback {
		return nil, errors.New("redis rate limiter unavailable")
	}
	allowed, retryAfter := l.allowLocal(c)
	return l.decide(c.reason, allowed, retryAfter), nil
}

func (l *limiter) decide(reason domain.RateLimitReason, allowed bool, retryAfter time.Duration) *Decision {
	if allowed {
		return &Decision{Allowed: true}
	}
	// redis_rate reports -1 when the request can never succeed
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Decision{
		Allowed:    false,
		Reason:     reason,
		RetryAfter: retryAfter,
		ResetAt:    l.clock.Now().Add(retryAfter),
	}
}

func (l *limiter) allowLocal(c check) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.local[c.key]
	if !ok {
		every := c.limit.Period / time.Duration(c.limit.Rate)
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Every(every), c.limit.Burst)}
		l.local[c.key] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}
	reservation := entry.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, delay
}

// monitor periodically checks Redis health and drops idle local limiters
func (l *limiter) monitor() {
	ticker := l.clock.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		l.pruneLocal()

		if l.redis == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx)
		cancel()

		redisAvailable := err == nil
		wasAvailable := l.redisAvailable.Swap(redisAvailable)
		if !wasAvailable && redisAvailable {
			logger.Info("Redis connection restored")
		}
	}
}

func (l *limiter) pruneLocal() {
	cutoff := l.clock.Now().Add(-localIdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.local {
		if entry.lastSeen.Before(cutoff) {
			delete(l.local, key)
		}
	}
}

// Close stops the health monitor and closes the Redis connection
func (l *limiter) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if l.redis == nil {
			return
		}
		if closeErr := l.redis.Close(); closeErr != nil {
			logger.Warn("Error closing Redis connection", zap.Error(closeErr))
			err = closeErr
		}
	})
	return err
}

// validateConfig validates and sets defaults for the configuration
func validateConfig(cfg *config.RateLimitConfig) error {
	if cfg.BurstLimit <= 0 {
		return errors.New("burst_limit must be positive")
	}
	if cfg.DailyLimit <= 0 {
		return errors.New("daily_limit must be positive")
	}
	if cfg.IPLimit <= 0 {
		return errors.New("ip_limit must be positive")
	}

	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = 10 * time.Second
	}
	if cfg.IPWindow <= 0 {
		cfg.IPWindow = time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ff:editions:acquire:"
	}
	return nil
}
