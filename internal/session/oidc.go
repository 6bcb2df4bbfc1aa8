package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"golang.org/x/oauth2"
)

// FederatedAuthenticator drives the provider-hosted redirect flow. Federated
// sign-in never resolves to a staff role: claims become a customer profile.
type FederatedAuthenticator struct {
	provider *oidc.Provider
	oauth    oauth2.Config
}

func NewFederatedAuthenticator(ctx context.Context, cfg *config.OIDC) (*FederatedAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &FederatedAuthenticator{
		provider: provider,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       cfg.Scopes,
		},
	}, nil
}

// GenerateState returns the anti-CSRF state carried through the redirect.
func GenerateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)

	return base64.RawURLEncoding.EncodeToString(b)
}

// AuthCodeURL is where the user's browser is sent; returning from it is a
// full page navigation, not an in-process await.
func (f *FederatedAuthenticator) AuthCodeURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for a verified ID token and builds a
// customer profile from its claims.
func (f *FederatedAuthenticator) Exchange(ctx context.Context, code string) (*models.Profile, error) {
	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("provider response is missing an id_token")
	}

	idToken, err := f.provider.Verifier(&oidc.Config{ClientID: f.oauth.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token claims: %w", err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("id_token carries no email claim")
	}

	return &models.Profile{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   models.RoleCustomer,
	}, nil
}
