package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/api/middleware"
	"github.com/eshop-labs/commerce-engine/internal/errors"
	"github.com/eshop-labs/commerce-engine/internal/metrics"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/session"
	"github.com/eshop-labs/commerce-engine/internal/utils"
	"github.com/eshop-labs/commerce-engine/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const stateCookieName = "oauth_state"

type AuthHandler struct {
	manager   *session.Manager
	federated *session.FederatedAuthenticator
	validator *validator.Validate
}

// NewAuthHandler wires the session manager; federated may be nil when the
// OIDC flow is disabled.
func NewAuthHandler(manager *session.Manager, federated *session.FederatedAuthenticator) *AuthHandler {
	return &AuthHandler{manager: manager, federated: federated, validator: validator.New()}
}

func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		resp, err := h.manager.Login(r.Context(), &req)
		if err != nil {
			metrics.ObserveLoginAttempt("failure")
			logger.Warn("Login failed",
				slog.String("email", req.Email),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if !resp.Success {
			metrics.ObserveLoginAttempt("limited")
			// Rate limited.
			response.WriteJson(w, http.StatusTooManyRequests, response.APIResponse{
				Success: false,
				Data:    resp,
				Error: &response.ErrorResponse{
					Code:    errors.ErrCodeTooManyRequests,
					Message: resp.Message,
				},
			})

			return
		}

		metrics.ObserveLoginAttempt("success")
		logger.Info("User logged in",
			slog.String("email", req.Email),
			slog.String("role", string(resp.Profile.Role)))
		response.Success(w, http.StatusOK, resp)
	}
}

// FederatedStart redirects to the identity provider's consent page. The
// anti-forgery state is pinned in a short-lived cookie.
func (h *AuthHandler) FederatedStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.federated == nil {
			response.Error(w, errors.NotFoundError("Federated login is not enabled"))

			return
		}

		state := session.GenerateState()

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   int(10 * time.Minute / time.Second),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, h.federated.AuthCodeURL(state), http.StatusFound)
	}
}

func (h *AuthHandler) FederatedCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		if h.federated == nil {
			response.Error(w, errors.NotFoundError("Federated login is not enabled"))

			return
		}

		cookie, err := r.Cookie(stateCookieName)
		if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			logger.Warn("OAuth state mismatch")
			response.Error(w, errors.BadRequestError("Invalid OAuth state"))

			return
		}

		// One-shot state.
		http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

		profile, err := h.federated.Exchange(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			logger.Warn("OAuth code exchange failed", slog.String("error", err.Error()))
			response.Error(w, errors.ProviderUnavailableError(err))

			return
		}

		resp, err := h.manager.CompleteFederated(r.Context(), *profile)
		if err != nil {
			response.Error(w, err)

			return
		}

		logger.Info("Federated login completed", slog.String("email", profile.Email))
		response.Success(w, http.StatusOK, resp)
	}
}

func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.manager.Logout(r.Context())

		middleware.LoggerFromContext(r.Context()).Info("User logged out")
		response.Success(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// SessionState is the lightweight polling selector for the storefront
// header: authenticated or not, and whether a restored session has been
// confirmed by the provider yet.
func (h *AuthHandler) SessionState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := map[string]any{
			"is_authenticated": h.manager.IsAuthenticated(),
		}

		if current := h.manager.Current(); current != nil {
			state["verified"] = current.Verified
			state["role"] = current.Profile.Role
		}

		response.Success(w, http.StatusOK, state)
	}
}

func (h *AuthHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := h.manager.Current()
		if current == nil {
			response.Error(w, errors.UnauthorizedError("No active session"))

			return
		}

		response.Success(w, http.StatusOK, current)
	}
}

func (h *AuthHandler) UpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.UpdateProfileRequest
		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		if req.Name == nil && req.Email == nil {
			response.Error(w, errors.BadRequestError("Nothing to update"))

			return
		}

		profile, err := h.manager.UpdateProfile(r.Context(), &req)
		if err != nil {
			logger.Warn("Profile update failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Profile updated", slog.String("user_id", profile.UserID))
		response.Success(w, http.StatusOK, profile)
	}
}
