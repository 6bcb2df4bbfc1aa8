package handlers

import (
	"net/http"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/store"
	"github.com/eshop-labs/commerce-engine/internal/utils/response"
)

type DashboardHandler struct {
	store *store.Store
}

func NewDashboardHandler(store *store.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

type dashboardOverview struct {
	Cart          models.CartSummary `json:"cart"`
	WishlistCount int                `json:"wishlist_count"`
}

// Overview is the landing payload for the admin console.
func (h *DashboardHandler) Overview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := h.store.State()

		response.Success(w, http.StatusOK, dashboardOverview{
			Cart:          h.store.Summary(),
			WishlistCount: len(state.Wishlist.Items),
		})
	}
}
