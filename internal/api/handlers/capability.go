package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eshop-labs/commerce-engine/internal/api/middleware"
	"github.com/eshop-labs/commerce-engine/internal/authz"
	"github.com/eshop-labs/commerce-engine/internal/errors"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/utils"
	"github.com/eshop-labs/commerce-engine/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CapabilityHandler struct {
	table     *authz.CapabilityTable
	validator *validator.Validate
}

func NewCapabilityHandler(table *authz.CapabilityTable) *CapabilityHandler {
	return &CapabilityHandler{table: table, validator: validator.New()}
}

// GetGrants exposes the live role-to-capability table for the admin UI.
func (h *CapabilityHandler) GetGrants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.table.Grants())
	}
}

type setRoleRequest struct {
	Role         string   `json:"role"         validate:"required"`
	Capabilities []string `json:"capabilities"`
}

// SetRole replaces one role's capability set. Takes effect on the next
// gate decision, so already-open sessions pick it up immediately.
func (h *CapabilityHandler) SetRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req setRoleRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		role, err := models.ParseRole(req.Role)
		if err != nil {
			response.Error(w, errors.BadRequestError(err.Error()))

			return
		}

		capabilities := make([]authz.Capability, 0, len(req.Capabilities))
		for _, capability := range req.Capabilities {
			capabilities = append(capabilities, authz.Capability(capability))
		}

		if err := h.table.SetRole(role, capabilities); err != nil {
			response.Error(w, errors.BadRequestError(err.Error()))

			return
		}

		logger.Info("Role capabilities updated",
			slog.String("role", string(role)),
			slog.Int("capability_count", len(capabilities)))
		response.Success(w, http.StatusOK, h.table.Grants())
	}
}
