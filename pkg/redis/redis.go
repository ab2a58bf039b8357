package redis

import (
	"context"
	"fmt"
	"time"

	"coderanker/pkg/config"

	"github.com/redis/go-redis/v9"
)

// ReRankedChannel is the channel notified after each completed re-rank sweep.
const ReRankedChannel = "leaderboard:reranked"

// Type for the client.
type RedisClient struct {
	*redis.Client
}

// NewClient creates a client and checks the connection.
func NewClient(cfg *config.Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     100,
		MinIdleConns: 10,
		PoolTimeout:  30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("couldn't ping redis at %s: %w", cfg.RedisAddr(), err)
	}

	return &RedisClient{Client: client}, nil
}

// Close the client connection.
func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// Wrapper to return the Result directly.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.Client.Get(ctx, key).Result()
}

// Wrapper to already return the .Err()
func (r *RedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// PublishReRanked announces a finished re-rank with the amount of ranked users.
func (r *RedisClient) PublishReRanked(ctx context.Context, count int) error {
	return r.Client.Publish(ctx, ReRankedChannel, count).Err()
}
