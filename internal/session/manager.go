package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/eshop-labs/commerce-engine/internal/errors"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/persistence"
	repository "github.com/eshop-labs/commerce-engine/internal/repositories"
	"github.com/microcosm-cc/bluemonday"
)

// State is the session lifecycle: Anonymous → Authenticating →
// Authenticated, back to Anonymous on logout, expiry, or any login failure.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

// ManagerDeps wires the three identity sources plus the supporting pieces.
// Demo and RateLimiter are optional.
type ManagerDeps struct {
	Provider    IdentityProvider
	Staff       repository.StaffRepository
	Customers   repository.CustomerRepository
	Storage     persistence.Storage
	RateLimiter repository.RateLimitRepository
	Demo        *DemoDirectory
	Tokens      *TokenIssuer
	Logger      *slog.Logger
}

// Manager owns the current session. The authorization gate and the HTTP
// layer only ever read it.
type Manager struct {
	mu      sync.RWMutex
	state   State
	session *models.Session
	token   string

	provider  IdentityProvider
	staff     repository.StaffRepository
	customers repository.CustomerRepository
	storage   persistence.Storage
	limiter   repository.RateLimitRepository
	demo      *DemoDirectory
	tokens    *TokenIssuer
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

func NewManager(deps ManagerDeps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		state:     StateAnonymous,
		provider:  deps.Provider,
		staff:     deps.Staff,
		customers: deps.Customers,
		storage:   deps.Storage,
		limiter:   deps.RateLimiter,
		demo:      deps.Demo,
		tokens:    deps.Tokens,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Login resolves identity and role. The demo directory is checked first and
// bypasses the remote provider entirely on a hit; otherwise the provider
// authenticates the password and the staff/customer directories decide the
// role.
func (m *Manager) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	m.setState(StateAuthenticating)

	if m.limiter != nil {
		allowed, _, retryAfter, err := m.limiter.CheckLoginRateLimit(ctx, req.Email)
		if err != nil {
			m.abortLogin()

			return nil, apperrors.InternalError("Rate limit check failed").WithError(err)
		}

		if !allowed {
			m.abortLogin()

			return &models.LoginResponse{
				Success:    false,
				Message:    "Too many login attempts. Please try again later.",
				RetryAfter: retryAfter,
			}, nil
		}
	}

	if m.demo != nil {
		if profile, ok := m.demo.Authenticate(req.Email, req.Password); ok {
			return m.establish(ctx, *profile)
		}
	}

	identity, err := m.provider.PasswordSignIn(ctx, req.Email, req.Password)
	if err != nil {
		m.abortLogin()

		return nil, mapProviderError(err)
	}

	profile, err := m.resolveRole(ctx, identity)
	if err != nil {
		m.abortLogin()

		return nil, err
	}

	return m.establish(ctx, *profile)
}

// CompleteFederated finishes the redirect flow with a provider-built
// profile. Role is always customer here.
func (m *Manager) CompleteFederated(ctx context.Context, profile models.Profile) (*models.LoginResponse, error) {
	profile.Role = models.RoleCustomer

	return m.establish(ctx, profile)
}

// resolveRole consults the staff directory by identity id first, then the
// customer directory by email.
func (m *Manager) resolveRole(ctx context.Context, identity *Identity) (*models.Profile, error) {
	staff, err := m.staff.GetByID(ctx, identity.ID)

	switch {
	case err == nil:
		if !staff.IsActive {
			return nil, apperrors.AccountDisabledError()
		}

		return &models.Profile{UserID: staff.ID, Email: staff.Email, Name: staff.Name, Role: staff.Role}, nil

	case errors.Is(err, sql.ErrNoRows):
		// fall through to the customer directory

	default:
		return nil, apperrors.DatabaseError("Failed to read staff directory").WithError(err)
	}

	customer, err := m.customers.GetByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ProfileNotFoundError()
		}

		return nil, apperrors.DatabaseError("Failed to read customer directory").WithError(err)
	}

	return &models.Profile{UserID: customer.ID, Email: customer.Email, Name: customer.Name, Role: models.RoleCustomer}, nil
}

func (m *Manager) establish(ctx context.Context, profile models.Profile) (*models.LoginResponse, error) {
	token, session, err := m.tokens.Issue(profile)
	if err != nil {
		m.abortLogin()

		return nil, apperrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = session
	m.token = token
	m.mu.Unlock()

	m.persistCache(ctx, session)

	return &models.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: int(time.Until(session.ExpiresAt).Seconds()),
		Profile:   &session.Profile,
	}, nil
}

// Restore trusts the cached profile and authenticated flag at startup
// without a provider round-trip. The restored session is marked unverified
// until RevalidateRestored confirms it. This path never fails into startup.
func (m *Manager) Restore(ctx context.Context) {
	flag, err := m.storage.Get(ctx, persistence.KeyIsAuthenticated)
	if err != nil || flag != "true" {
		return
	}

	blob, err := m.storage.Get(ctx, persistence.KeyUser)
	if err != nil {
		m.logger.Warn("Authenticated flag present but cached profile unreadable", slog.String("error", err.Error()))
		m.clearCache(ctx)

		return
	}

	var cached models.Session
	if err := json.Unmarshal([]byte(blob), &cached); err != nil {
		m.logger.Warn("Discarding corrupt cached profile", slog.String("error", err.Error()))
		m.clearCache(ctx)

		return
	}

	if cached.Expired(time.Now()) {
		m.clearCache(ctx)

		return
	}

	token, err := m.tokens.IssueUntil(cached.Profile, cached.ExpiresAt)
	if err != nil {
		m.logger.Warn("Failed to mint token for restored session", slog.String("error", err.Error()))

		return
	}

	cached.Verified = false

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = &cached
	m.token = token
	m.mu.Unlock()
}

// RevalidateRestored upgrades an unverified restored session by confirming
// the identity still exists at the provider. An identity the provider no
// longer knows forces a local logout.
func (m *Manager) RevalidateRestored(ctx context.Context) error {
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()

	if session == nil || session.Verified {
		return nil
	}

	_, err := m.provider.GetUser(ctx, session.Profile.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			m.logger.Warn("Restored session rejected by provider, clearing",
				slog.String("userId", session.Profile.UserID))
			m.clearLocal(ctx)

			return apperrors.ProfileNotFoundError()
		}

		return apperrors.ProviderUnavailableError(err)
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.Verified = true
	}
	m.mu.Unlock()

	return nil
}

// Logout signs out at the provider, then clears local state regardless of
// whether sign-out succeeded. A network error must never leave the user
// stuck logged in.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Warn("Provider sign-out failed, clearing local session anyway",
			slog.String("error", err.Error()))
	}

	m.clearLocal(ctx)
}

// UpdateProfile updates the provider and the staff directory. A partial
// failure surfaces which side failed and leaves the in-memory session
// untouched so inconsistent state is never silently merged.
func (m *Manager) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.Profile, error) {
	m.mu.RLock()
	session := m.session
	state := m.state
	m.mu.RUnlock()

	if state != StateAuthenticated || session == nil {
		return nil, apperrors.UnauthorizedError("No active session")
	}

	name := req.Name
	if name != nil {
		clean := m.sanitizer.Sanitize(*name)
		name = &clean
	}

	if err := m.provider.UpdateUser(ctx, session.Profile.UserID, name, req.Email); err != nil {
		return nil, apperrors.ProviderUnavailableError(err).
			WithDetail("identity provider rejected the profile update; nothing was changed")
	}

	if session.Profile.Role != models.RoleCustomer {
		if err := m.staff.UpdateProfile(ctx, session.Profile.UserID, name, req.Email); err != nil {
			return nil, apperrors.DatabaseError("Staff directory update failed").
				WithDetail("identity provider was updated but the staff directory was not; profiles are out of sync").
				WithError(err)
		}
	}

	updated := session.Profile
	if name != nil {
		updated.Name = *name
	}

	if req.Email != nil {
		updated.Email = *req.Email
	}

	m.mu.Lock()
	if m.session == nil {
		// Logged out while the update was in flight. Both backends carry
		// the new profile; there is no local session left to merge into.
		m.mu.Unlock()

		return &updated, nil
	}

	m.session.Profile = updated
	sessionCopy := *m.session
	m.mu.Unlock()

	m.persistCache(ctx, &sessionCopy)

	return &updated, nil
}

// Current returns a copy of the session, or nil when Anonymous or expired.
func (m *Manager) Current() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != StateAuthenticated || m.session == nil || m.session.Expired(time.Now()) {
		return nil
	}

	session := *m.session

	return &session
}

func (m *Manager) IsAuthenticated() bool {
	return m.Current() != nil
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state

	if state == StateAnonymous {
		m.session = nil
		m.token = ""
	}
}

// abortLogin returns to whichever state the attempt started from: a failed
// re-login while already signed in must not drop the existing session.
func (m *Manager) abortLogin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
}

func (m *Manager) clearLocal(ctx context.Context) {
	m.setState(StateAnonymous)
	m.clearCache(ctx)
}

// Cache writes are best effort: failures are logged and never surfaced.
func (m *Manager) persistCache(ctx context.Context, session *models.Session) {
	blob, err := json.Marshal(session)
	if err != nil {
		m.logger.Error("Failed to encode cached profile", slog.String("error", err.Error()))

		return
	}

	if err := m.storage.Set(ctx, persistence.KeyUser, string(blob)); err != nil {
		m.logger.Warn("Dropped cached profile write", slog.String("error", err.Error()))
	}

	if err := m.storage.Set(ctx, persistence.KeyIsAuthenticated, "true"); err != nil {
		m.logger.Warn("Dropped authenticated flag write", slog.String("error", err.Error()))
	}
}

func (m *Manager) clearCache(ctx context.Context) {
	if err := m.storage.Delete(ctx, persistence.KeyUser); err != nil {
		m.logger.Warn("Failed to clear cached profile", slog.String("error", err.Error()))
	}

	if err := m.storage.Delete(ctx, persistence.KeyIsAuthenticated); err != nil {
		m.logger.Warn("Failed to clear authenticated flag", slog.String("error", err.Error()))
	}
}

func mapProviderError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.InvalidCredentialsError()
	case errors.Is(err, ErrEmailUnconfirmed):
		return apperrors.EmailUnconfirmedError()
	case errors.Is(err, ErrAccountDisabled):
		return apperrors.AccountDisabledError()
	default:
		return apperrors.ProviderUnavailableError(err)
	}
}
