package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client *redis.Client
}

// NewRedisStorage wraps an existing client as durable engine storage. State
// keys are written without expiry; the cart must survive arbitrarily long
// absences.
func NewRedisStorage(client *redis.Client) Storage {
	return &redisStorage{client: client}
}

// NewRedisClient connects with the configured credentials and verifies the
// connection before the engine starts depending on it.
func NewRedisClient(cfg *config.RedisConnect) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (r *redisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("failed to get key %s from redis: %w", key, err)
	}

	return value, nil
}

func (r *redisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil
}

func (r *redisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s from redis: %w", key, err)
	}

	return nil
}

func (r *redisStorage) Close() error {
	return r.client.Close()
}
