package session

import (
	"fmt"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints and verifies the opaque session token handed to the UI.
// Tokens are HS256-signed JWTs carrying userId, email, role and expiry;
// nothing unsigned ever leaves this package.
type TokenIssuer struct {
	key    []byte
	expiry time.Duration
}

func NewTokenIssuer(key []byte, expiryHours int) *TokenIssuer {
	if expiryHours <= 0 {
		expiryHours = 24
	}

	return &TokenIssuer{key: key, expiry: time.Duration(expiryHours) * time.Hour}
}

// Issue returns the signed token and the session it encodes.
func (t *TokenIssuer) Issue(profile models.Profile) (string, *models.Session, error) {
	return t.issue(profile, time.Now().Add(t.expiry))
}

// IssueUntil mints a token that keeps an existing expiry, used when a
// restored session must not have its lifetime extended.
func (t *TokenIssuer) IssueUntil(profile models.Profile, expiresAt time.Time) (string, error) {
	token, _, err := t.issue(profile, expiresAt)

	return token, err
}

func (t *TokenIssuer) issue(profile models.Profile, expiresAt time.Time) (string, *models.Session, error) {
	now := time.Now()

	claims := &models.Claims{
		UserID: profile.UserID,
		Email:  profile.Email,
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	session := &models.Session{
		Profile:   profile,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Verified:  true,
	}

	return signed, session, nil
}

// Parse verifies the signature and expiry of a presented token.
func (t *TokenIssuer) Parse(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return t.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return claims, nil
}
