package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/store"
)

// SnapshotVersion lets a future shape change migrate old blobs instead of
// silently discarding them. Unknown versions are treated like corruption:
// the engine starts fresh.
const SnapshotVersion = 1

const writeTimeout = 3 * time.Second

// Snapshot is the serialized cart+wishlist blob written to durable storage.
type Snapshot struct {
	Version  int                  `json:"version"`
	Cart     models.CartState     `json:"cart"`
	Wishlist models.WishlistState `json:"wishlist"`
}

func EncodeSnapshot(state models.EngineState) (string, error) {
	data, err := json.Marshal(Snapshot{
		Version:  SnapshotVersion,
		Cart:     state.Cart,
		Wishlist: state.Wishlist,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return string(data), nil
}

// DecodeSnapshot parses and shape-validates a stored blob. Any defect —
// unparsable JSON, unknown version, duplicate or malformed lines — yields an
// error; callers fall back to an empty state.
func DecodeSnapshot(blob string) (models.EngineState, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return models.EngineState{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if snap.Version != SnapshotVersion {
		return models.EngineState{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	seen := make(map[string]bool, len(snap.Cart.Lines))

	var total models.Money

	for _, line := range snap.Cart.Lines {
		if line.ProductID == "" || line.Quantity < 1 || line.UnitPrice < 0 || seen[line.ProductID] {
			return models.EngineState{}, fmt.Errorf("malformed cart line %q in snapshot", line.ProductID)
		}

		seen[line.ProductID] = true
		total += line.LineTotal()
	}

	if total != snap.Cart.Total {
		return models.EngineState{}, fmt.Errorf("snapshot total %d does not match line sum %d", snap.Cart.Total, total)
	}

	wseen := make(map[string]bool, len(snap.Wishlist.Items))
	for _, item := range snap.Wishlist.Items {
		if item.ProductID == "" || wseen[item.ProductID] {
			return models.EngineState{}, fmt.Errorf("malformed wishlist item %q in snapshot", item.ProductID)
		}

		wseen[item.ProductID] = true
	}

	return models.EngineState{Cart: snap.Cart, Wishlist: snap.Wishlist}, nil
}

// LoadState reads the snapshot key at startup. This path never fails into
// the caller: absent, unparsable, or wrong-shape blobs all produce an empty
// initial state.
func LoadState(ctx context.Context, storage Storage, logger *slog.Logger) models.EngineState {
	blob, err := storage.Get(ctx, KeySnapshot)
	if err != nil {
		if err != ErrNotFound {
			logger.Warn("Failed to read persisted state, starting empty", slog.String("error", err.Error()))
		}

		return models.EngineState{}
	}

	state, err := DecodeSnapshot(blob)
	if err != nil {
		logger.Warn("Discarding corrupt persisted state", slog.String("error", err.Error()))

		return models.EngineState{}
	}

	return state
}

// Attach subscribes a snapshot writer to the store. Every mutation is
// serialized and written synchronously; write failures are logged and
// swallowed so the triggering action never sees them.
func Attach(s *store.Store, storage Storage, logger *slog.Logger) func() {
	return s.Subscribe(func(state models.EngineState) {
		blob, err := EncodeSnapshot(state)
		if err != nil {
			logger.Error("Failed to encode state snapshot", slog.String("error", err.Error()))

			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := storage.Set(ctx, KeySnapshot, blob); err != nil {
			logger.Warn("Dropped state snapshot write", slog.String("error", err.Error()))
		}
	})
}
