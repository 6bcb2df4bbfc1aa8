package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/redis/go-redis/v9"
)

// RateLimitRepository throttles password logins per email so a limited
// attempt fails before it ever reaches the identity provider.
type RateLimitRepository interface {
	// Returns isAllowed, attempts left, seconds to wait, error.
	CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error)
}

type redisRepository struct {
	client *redis.Client
	cfg    *config.RateConfig
	now    func() time.Time
}

func NewRateLimitRepo(client *redis.Client, cfg *config.RateConfig) RateLimitRepository {
	return &redisRepository{client: client, cfg: cfg, now: time.Now}
}

// Sliding window over a sorted set: one member per attempt, scored by its
// unix timestamp. Old entries fall out of the window on every check.
func (r *redisRepository) CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error) {
	key := fmt.Sprintf("login_attempts:%s", email)

	now := r.now().Unix()
	windowStart := now - int64(r.cfg.WindowSize.Seconds())

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, err
	}

	attempts := count.Val()
	remaining := r.cfg.MaxAttempts - attempts

	if attempts >= r.cfg.MaxAttempts {
		oldest, err := r.client.ZRange(ctx, key, 0, 0).Result()
		if err != nil || len(oldest) == 0 {
			return false, 0, 0, err
		}

		oldestTime, err := strconv.ParseInt(oldest[0], 10, 64)
		if err != nil {
			return false, 0, 0, err
		}

		// The oldest member can already sit outside the window when the
		// deny races its own expiry; never report a negative wait.
		retryAfter := max(int64(r.cfg.WindowSize.Seconds())-(now-oldestTime), 0)

		return false, 0, int(retryAfter), nil
	}

	return true, int(remaining), 0, nil
}
