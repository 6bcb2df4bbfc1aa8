package authz_test

import (
	"testing"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/authz"
	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *authz.CapabilityTable {
	t.Helper()

	table, err := authz.NewCapabilityTable(authz.DefaultGrants())
	require.NoError(t, err)

	return table
}

func sessionWithRole(role models.Role) *models.Session {
	now := time.Now()

	return &models.Session{
		Profile:   models.Profile{UserID: "u1", Email: "u1@eshop.com", Role: role},
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
		Verified:  true,
	}
}

func TestNewCapabilityTable(t *testing.T) {
	t.Run("Valid Grants", func(t *testing.T) {
		table, err := authz.NewCapabilityTable(map[string][]string{
			"staff": {"view_dashboard"},
		})
		require.NoError(t, err)
		assert.True(t, table.Capabilities(models.RoleStaff)[authz.CapViewDashboard])
	})

	t.Run("Unknown Role Rejected", func(t *testing.T) {
		_, err := authz.NewCapabilityTable(map[string][]string{"superuser": {"view_dashboard"}})
		assert.Error(t, err)
	})

	t.Run("Unknown Capability Rejected", func(t *testing.T) {
		_, err := authz.NewCapabilityTable(map[string][]string{"staff": {"launch_rockets"}})
		assert.Error(t, err)
	})

	t.Run("Owner Grants Not Editable", func(t *testing.T) {
		_, err := authz.NewCapabilityTable(map[string][]string{"owner": {"view_dashboard"}})
		assert.Error(t, err)
	})
}

func TestOwnerWildcard(t *testing.T) {
	table := newTable(t)
	gate := authz.NewGate(table)
	owner := sessionWithRole(models.RoleOwner)

	for _, capability := range []authz.Capability{
		authz.CapViewDashboard, authz.CapManageProducts, authz.CapManageInventory,
		authz.CapManageOrders, authz.CapManageCustomers, authz.CapManageMarketing,
		authz.CapManageStaff, authz.CapManageSettings, authz.CapEditRoles,
	} {
		assert.True(t, gate.CanAccess(owner, capability), "owner should hold %s", capability)
	}
}

func TestDecide(t *testing.T) {
	gate := authz.NewGate(newTable(t))

	t.Run("No Session", func(t *testing.T) {
		assert.Equal(t, authz.DenyNoSession, gate.Decide(nil, authz.CapViewDashboard))
	})

	t.Run("Expired Session", func(t *testing.T) {
		session := sessionWithRole(models.RoleOwner)
		session.ExpiresAt = time.Now().Add(-time.Minute)

		assert.Equal(t, authz.DenyNoSession, gate.Decide(session, authz.CapViewDashboard))
	})

	t.Run("Insufficient Role Is Forbidden, Not Unauthenticated", func(t *testing.T) {
		staff := sessionWithRole(models.RoleStaff)

		assert.Equal(t, authz.DenyForbidden, gate.Decide(staff, authz.CapManageStaff))
		assert.False(t, gate.CanAccess(staff, authz.CapManageStaff))
	})

	t.Run("Granted Capability", func(t *testing.T) {
		staff := sessionWithRole(models.RoleStaff)

		assert.Equal(t, authz.Allow, gate.Decide(staff, authz.CapViewDashboard))
	})

	t.Run("Customer Holds Nothing", func(t *testing.T) {
		customer := sessionWithRole(models.RoleCustomer)

		assert.Equal(t, authz.DenyForbidden, gate.Decide(customer, authz.CapViewDashboard))
	})
}

func TestRuntimeTableEdit(t *testing.T) {
	table := newTable(t)
	gate := authz.NewGate(table)
	staff := sessionWithRole(models.RoleStaff)

	require.False(t, gate.CanAccess(staff, authz.CapManageOrders))

	// Edits apply to subsequent checks without a restart.
	err := table.SetRole(models.RoleStaff, []authz.Capability{authz.CapViewDashboard, authz.CapManageOrders})
	require.NoError(t, err)

	assert.True(t, gate.CanAccess(staff, authz.CapManageOrders))

	t.Run("Unknown Capability Rejected", func(t *testing.T) {
		assert.Error(t, table.SetRole(models.RoleStaff, []authz.Capability{"launch_rockets"}))
	})

	t.Run("Owner Row Rejected", func(t *testing.T) {
		assert.Error(t, table.SetRole(models.RoleOwner, []authz.Capability{authz.CapViewDashboard}))
	})
}

func TestGrantsExport(t *testing.T) {
	table := newTable(t)

	grants := table.Grants()

	assert.Contains(t, grants, "staff")
	assert.ElementsMatch(t, []string{"view_dashboard"}, grants["staff"])
	assert.NotContains(t, grants, "owner")
}
