package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eshop-labs/commerce-engine/internal/api/middleware"
	"github.com/eshop-labs/commerce-engine/internal/errors"
	"github.com/eshop-labs/commerce-engine/internal/metrics"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/store"
	"github.com/eshop-labs/commerce-engine/internal/utils"
	"github.com/eshop-labs/commerce-engine/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type WishlistHandler struct {
	store     *store.Store
	validator *validator.Validate
}

func NewWishlistHandler(store *store.Store) *WishlistHandler {
	return &WishlistHandler{store: store, validator: validator.New()}
}

func (h *WishlistHandler) GetWishlist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.store.State().Wishlist)
	}
}

// ToggleItem flips wishlist membership for a product.
func (h *WishlistHandler) ToggleItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.ToggleWishlistRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		h.store.ToggleWishlistItem(models.WishlistItem{
			ProductID: req.ProductID,
			Name:      req.Name,
			UnitPrice: req.UnitPrice,
			Image:     req.Image,
		})
		metrics.ObserveCartMutation("toggle_wishlist")

		logger.Info("Wishlist toggled",
			slog.String("product_id", req.ProductID),
			slog.Bool("in_wishlist", h.store.InWishlist(req.ProductID)))
		response.Success(w, http.StatusOK, h.store.State().Wishlist)
	}
}

func (h *WishlistHandler) Contains() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, errors.BadRequestError("Product ID is required"))

			return
		}

		response.Success(w, http.StatusOK, map[string]bool{
			"in_wishlist": h.store.InWishlist(productID),
		})
	}
}
