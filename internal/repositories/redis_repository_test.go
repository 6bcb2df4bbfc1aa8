package repository

import (
	"strconv"
	"testing"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, clock time.Time) (*redisRepository, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()

	return &redisRepository{
		client: client,
		cfg:    &config.RateConfig{MaxAttempts: 5, WindowSize: time.Minute},
		now:    func() time.Time { return clock },
	}, mock
}

func expectWindow(mock redismock.ClientMock, key string, now int64, window time.Duration, count int64) {
	mock.ExpectZRemRangeByScore(key, "0", strconv.FormatInt(now-int64(window.Seconds()), 10)).SetVal(0)
	mock.ExpectZAdd(key, redis.Z{Score: float64(now), Member: now}).SetVal(1)
	mock.ExpectZCard(key).SetVal(count)
	mock.ExpectExpire(key, window).SetVal(true)
}

func TestCheckLoginRateLimit(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	key := "login_attempts:user@eshop.com"

	t.Run("Under Limit Is Allowed", func(t *testing.T) {
		limiter, mock := setupLimiter(t, clock)
		expectWindow(mock, key, clock.Unix(), time.Minute, 2)

		allowed, remaining, retryAfter, err := limiter.CheckLoginRateLimit(t.Context(), "user@eshop.com")

		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 3, remaining)
		assert.Zero(t, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("At Limit Reports Wait", func(t *testing.T) {
		limiter, mock := setupLimiter(t, clock)
		expectWindow(mock, key, clock.Unix(), time.Minute, 5)
		// Oldest attempt 30s ago in a 60s window: 30s left to wait.
		mock.ExpectZRange(key, 0, 0).SetVal([]string{strconv.FormatInt(clock.Unix()-30, 10)})

		allowed, _, retryAfter, err := limiter.CheckLoginRateLimit(t.Context(), "user@eshop.com")

		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 30, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Window Edge Never Goes Negative", func(t *testing.T) {
		limiter, mock := setupLimiter(t, clock)
		expectWindow(mock, key, clock.Unix(), time.Minute, 5)
		// Oldest attempt already 90s old: the uncapped arithmetic would
		// yield -30.
		mock.ExpectZRange(key, 0, 0).SetVal([]string{strconv.FormatInt(clock.Unix()-90, 10)})

		allowed, _, retryAfter, err := limiter.CheckLoginRateLimit(t.Context(), "user@eshop.com")

		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Zero(t, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
