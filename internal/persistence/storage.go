// Package persistence makes the cart/wishlist store durable across restarts
// and caches the resolved session profile, without the store or the session
// manager knowing about storage.
package persistence

import "context"

// Durable namespace keys. One snapshot blob for the commerce state, plus the
// cached profile and the authenticated flag the session manager restores at
// startup.
const (
	KeySnapshot        = "eshop-state"
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"
)

// ErrNotFound is returned by Get when the key is absent.
type notFoundError struct{}

func (notFoundError) Error() string { return "persistence: key not found" }

var ErrNotFound error = notFoundError{}

// Storage is a single-namespace durable key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
