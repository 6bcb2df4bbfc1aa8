package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of positions that determine admin capabilities.
type Role string

const (
	RoleOwner            Role = "owner"
	RoleDeveloper        Role = "developer"
	RoleInventoryManager Role = "inventory_manager"
	RoleMarketingManager Role = "marketing_manager"
	RoleStaff            Role = "staff"
	RoleCustomer         Role = "customer"
)

// ParseRole validates a wire string against the closed enum. "admin" is a
// legacy alias still present in old staff rows and normalizes to owner.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleDeveloper, RoleInventoryManager, RoleMarketingManager, RoleStaff, RoleCustomer:
		return Role(s), nil
	}

	if s == "admin" {
		return RoleOwner, nil
	}

	return "", fmt.Errorf("unknown role %q", s)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	role, err := ParseRole(s)
	if err != nil {
		return err
	}

	*r = role

	return nil
}

// Profile is the resolved identity for the current actor.
type Profile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// Session is the authoritative answer to "who is logged in". Verified is
// false for sessions restored from the local cache until a round-trip to the
// identity provider confirms them.
type Session struct {
	Profile   Profile   `json:"profile"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// StaffUser is a row in the staff/admin directory.
type StaffUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a row in the customer directory, matched by email at login.
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Success    bool     `json:"success"`
	Token      string   `json:"token,omitempty"`
	ExpiresIn  int      `json:"expires_in,omitempty"`
	Profile    *Profile `json:"profile,omitempty"`
	RetryAfter int      `json:"retry_after,omitempty"`
	Message    string   `json:"message,omitempty"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=120"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Claims is the signed session token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
