// Package session resolves "who is logged in" from three sources — the demo
// directory, the remote identity provider, and the locally cached profile —
// and produces one authoritative session.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eshop-labs/commerce-engine/internal/config"
)

// Provider-side authentication outcomes. Anything else coming back from the
// provider is treated as unavailability, not as a credential problem.
var (
	ErrInvalidCredentials = errors.New("provider: invalid credentials")
	ErrEmailUnconfirmed   = errors.New("provider: email not confirmed")
	ErrAccountDisabled    = errors.New("provider: account disabled")
	ErrUserNotFound       = errors.New("provider: user not found")
)

// Identity is what the remote provider knows about a user.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// IdentityProvider is the remote auth backend: password sign-in, sign-out,
// profile updates, and user lookup for re-validating restored sessions.
type IdentityProvider interface {
	PasswordSignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, userID string, name, email *string) error
	GetUser(ctx context.Context, userID string) (*Identity, error)
}

type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider talks to the hosted identity backend over its REST surface.
func NewHTTPProvider(cfg *config.Provider) IdentityProvider {
	return &httpProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type providerUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        providerUser `json:"user"`
}

type providerError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"msg"`
}

func (p *httpProvider) PasswordSignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("password sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapAuthError(resp)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	return &Identity{
		ID:    token.User.ID,
		Email: token.User.Email,
		Name:  token.User.Metadata.Name,
	}, nil
}

func (p *httpProvider) SignOut(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}

	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sign-out request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sign-out rejected with status %d", resp.StatusCode)
	}

	return nil
}

func (p *httpProvider) UpdateUser(ctx context.Context, userID string, name, email *string) error {
	attrs := map[string]any{}
	if email != nil {
		attrs["email"] = *email
	}

	if name != nil {
		attrs["user_metadata"] = map[string]string{"name": *name}
	}

	body, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		p.baseURL+"/auth/v1/admin/users/"+userID, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("profile update request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("profile update rejected with status %d", resp.StatusCode)
	}

	return nil
}

func (p *httpProvider) GetUser(ctx context.Context, userID string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/auth/v1/admin/users/"+userID, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user lookup rejected with status %d", resp.StatusCode)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user lookup response: %w", err)
	}

	return &Identity{ID: user.ID, Email: user.Email, Name: user.Metadata.Name}, nil
}

func (p *httpProvider) mapAuthError(resp *http.Response) error {
	var perr providerError
	_ = json.NewDecoder(resp.Body).Decode(&perr)

	switch perr.ErrorCode {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "email_not_confirmed":
		return ErrEmailUnconfirmed
	case "user_banned":
		return ErrAccountDisabled
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}

	return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, perr.Message)
}
