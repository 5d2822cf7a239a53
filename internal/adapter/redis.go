package adapter

import (
	"context"
	"fmt"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisClient defines the interface for Redis operations to enable mocking
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient,RedisRateLimiter=MockRedisRateLimiter
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) error

	// RateLimiter returns a GCRA limiter sharing this client's connection pool
	RateLimiter() RedisRateLimiter

	// Close closes the Redis connection
	Close() error
}

// RealRedisClient wraps the actual Redis client
type RealRedisClient struct {
	client  *redis.Client
	limiter RedisRateLimiter
}

// NewRedisClient creates a Redis client from a redis:// URL
func NewRedisClient(url string) (RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return newRealRedisClient(redis.NewClient(opts)), nil
}

// NewRedisClientWithAddr creates a Redis client from host:port
func NewRedisClientWithAddr(addr, password string, db int) RedisClient {
	return newRealRedisClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

func newRealRedisClient(client *redis.Client) *RealRedisClient {
	return &RealRedisClient{
		client:  client,
		limiter: &RealRateLimiter{limiter: redis_rate.NewLimiter(client)},
	}
}

// Ping checks if Redis is reachable
func (r *RealRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// RateLimiter returns the shared rate limiter
func (r *RealRedisClient) RateLimiter() RedisRateLimiter {
	return r.limiter
}

// Close closes the Redis connection
func (r *RealRedisClient) Close() error {
	return r.client.Close()
}

// RedisRateLimiter defines the interface for distributed rate limiting operations
type RedisRateLimiter interface {
	// Allow consumes one token for key under limit
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
	// Reset drops every token consumed for key
	Reset(ctx context.Context, key string) error
}

// RealRateLimiter wraps the redis_rate.Limiter
type RealRateLimiter struct {
	limiter *redis_rate.Limiter
}

// Allow consumes one token for key under limit
func (r *RealRateLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	return r.limiter.Allow(ctx, key, limit)
}

// Reset drops every token consumed for key
func (r *RealRateLimiter) Reset(ctx context.Context, key string) error {
	return r.limiter.Reset(ctx, key)
}
