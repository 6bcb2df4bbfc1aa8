package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/eshop-labs/commerce-engine/internal/persistence"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

// NewHealthHandler exposes liveness for the two hard dependencies plus a
// round-trip through whichever snapshot storage backend is active.
func NewHealthHandler(cfg *config.Config, storage persistence.Storage) (*health.Health, error) {
	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(
				healthRedis.Config{
					DSN: cfg.RedisConnect.GetDSN(),
				},
			),
		},
		{
			Name:      "snapshot-storage",
			Timeout:   2 * time.Second,
			SkipOnErr: true,
			Check: func(ctx context.Context) error {
				if storage == nil {
					return fmt.Errorf("snapshot storage is not initialized")
				}

				if _, err := storage.Get(ctx, persistence.KeySnapshot); err != nil && !errors.Is(err, persistence.ErrNotFound) {
					return fmt.Errorf("snapshot storage read failed: %w", err)
				}

				return nil
			},
		},
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "commerce-engine",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
