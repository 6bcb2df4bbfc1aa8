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

type CartHandler struct {
	store     *store.Store
	validator *validator.Validate
}

func NewCartHandler(store *store.Store) *CartHandler {
	return &CartHandler{store: store, validator: validator.New()}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.store.State().Cart)
	}
}

func (h *CartHandler) GetSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.store.Summary())
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.AddItemRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		h.store.AddToCart(req.ProductID, req.UnitPrice, req.Name, req.Image, req.Quantity)
		metrics.ObserveCartMutation("add_item")

		logger.Info("Item added to cart",
			slog.String("product_id", req.ProductID),
			slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, h.store.State().Cart)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		h.store.UpdateQuantity(req.ProductID, req.Quantity)
		metrics.ObserveCartMutation("update_quantity")

		logger.Info("Cart quantity updated",
			slog.String("product_id", req.ProductID),
			slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, h.store.State().Cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, errors.BadRequestError("Product ID is required"))

			return
		}

		h.store.RemoveFromCart(productID)
		metrics.ObserveCartMutation("remove_item")

		middleware.LoggerFromContext(r.Context()).Info("Item removed from cart",
			slog.String("product_id", productID))
		response.Success(w, http.StatusOK, h.store.State().Cart)
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.store.ClearCart()
		metrics.ObserveCartMutation("clear_cart")

		middleware.LoggerFromContext(r.Context()).Info("Cart cleared")
		response.Success(w, http.StatusOK, h.store.State().Cart)
	}
}
