package session

import (
	"log"
	"strings"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// DemoUser is one entry in the hard-coded credential list used as an auth
// fast path for environments without a reachable identity backend.
type DemoUser struct {
	UserID       string
	Email        string
	Name         string
	Role         models.Role
	PasswordHash []byte
}

// DemoDirectory matches email+password against the static list. A hit
// bypasses the remote provider entirely.
type DemoDirectory struct {
	users map[string]DemoUser
}

// Demo accounts are throwaway by definition, so they are hashed at startup
// with the minimum cost.
func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		log.Fatalf("failed to hash demo credential: %v", err)
	}

	return hash
}

func NewDemoDirectory() *DemoDirectory {
	entries := []DemoUser{
		{UserID: "demo-owner", Email: "admin@eshop.com", Name: "Store Owner", Role: models.RoleOwner, PasswordHash: mustHash("admin123")},
		{UserID: "demo-developer", Email: "developer@eshop.com", Name: "Developer", Role: models.RoleDeveloper, PasswordHash: mustHash("developer123")},
		{UserID: "demo-inventory", Email: "inventory@eshop.com", Name: "Inventory Manager", Role: models.RoleInventoryManager, PasswordHash: mustHash("inventory123")},
		{UserID: "demo-marketing", Email: "marketing@eshop.com", Name: "Marketing Manager", Role: models.RoleMarketingManager, PasswordHash: mustHash("marketing123")},
		{UserID: "demo-staff", Email: "staff@eshop.com", Name: "Staff Member", Role: models.RoleStaff, PasswordHash: mustHash("staff123")},
		{UserID: "demo-customer", Email: "customer@eshop.com", Name: "Demo Customer", Role: models.RoleCustomer, PasswordHash: mustHash("customer123")},
	}

	users := make(map[string]DemoUser, len(entries))
	for _, entry := range entries {
		users[entry.Email] = entry
	}

	return &DemoDirectory{users: users}
}

// Authenticate synthesizes a profile directly from the static list. The
// second return is false when the email is unknown or the password does not
// match; the caller then falls through to the remote provider.
func (d *DemoDirectory) Authenticate(email, password string) (*models.Profile, bool) {
	user, ok := d.users[strings.ToLower(email)]
	if !ok {
		return nil, false
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, false
	}

	return &models.Profile{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, true
}
