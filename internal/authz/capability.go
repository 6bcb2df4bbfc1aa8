// Package authz maps roles to admin capabilities and decides whether a
// session may reach a guarded area.
package authz

import (
	"fmt"
	"sync"

	"github.com/eshop-labs/commerce-engine/internal/models"
)

// Capability is a named permission gating one admin console area.
type Capability string

const (
	CapViewDashboard   Capability = "view_dashboard"
	CapManageProducts  Capability = "manage_products"
	CapManageInventory Capability = "manage_inventory"
	CapManageOrders    Capability = "manage_orders"
	CapManageCustomers Capability = "manage_customers"
	CapManageMarketing Capability = "manage_marketing"
	CapManageStaff     Capability = "manage_staff"
	CapManageSettings  Capability = "manage_settings"
	CapEditRoles       Capability = "edit_roles"
)

var knownCapabilities = map[Capability]bool{
	CapViewDashboard:   true,
	CapManageProducts:  true,
	CapManageInventory: true,
	CapManageOrders:    true,
	CapManageCustomers: true,
	CapManageMarketing: true,
	CapManageStaff:     true,
	CapManageSettings:  true,
	CapEditRoles:       true,
}

// CapabilityTable is the runtime-mutable role → capability mapping. Owner is
// not in the table: it is a wildcard and always holds every capability,
// which also guarantees an owner can never lock themselves out of editing
// the table itself.
type CapabilityTable struct {
	mu    sync.RWMutex
	grant map[models.Role]map[Capability]bool
}

// DefaultGrants seeds the table when the config carries no capabilities
// section.
func DefaultGrants() map[string][]string {
	return map[string][]string{
		string(models.RoleDeveloper): {
			string(CapViewDashboard), string(CapManageProducts), string(CapManageInventory),
			string(CapManageOrders), string(CapManageCustomers), string(CapManageSettings),
		},
		string(models.RoleInventoryManager): {
			string(CapViewDashboard), string(CapManageProducts), string(CapManageInventory),
		},
		string(models.RoleMarketingManager): {
			string(CapViewDashboard), string(CapManageMarketing),
		},
		string(models.RoleStaff): {
			string(CapViewDashboard),
		},
	}
}

// NewCapabilityTable validates a role → capability-tag mapping, typically
// straight from config data. Unknown roles or capability tags are rejected
// rather than silently ignored.
func NewCapabilityTable(grants map[string][]string) (*CapabilityTable, error) {
	table := &CapabilityTable{grant: make(map[models.Role]map[Capability]bool)}

	for roleName, caps := range grants {
		role, err := models.ParseRole(roleName)
		if err != nil {
			return nil, fmt.Errorf("capability table: %w", err)
		}

		if role == models.RoleOwner {
			return nil, fmt.Errorf("capability table: owner grants are implicit and not editable")
		}

		set := make(map[Capability]bool, len(caps))

		for _, tag := range caps {
			cap := Capability(tag)
			if !knownCapabilities[cap] {
				return nil, fmt.Errorf("capability table: unknown capability %q for role %q", tag, roleName)
			}

			set[cap] = true
		}

		table.grant[role] = set
	}

	return table, nil
}

// Capabilities returns the capability set for a role. Owner gets every
// known capability.
func (t *CapabilityTable) Capabilities(role models.Role) map[Capability]bool {
	if role == models.RoleOwner {
		all := make(map[Capability]bool, len(knownCapabilities))
		for cap := range knownCapabilities {
			all[cap] = true
		}

		return all
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[Capability]bool, len(t.grant[role]))
	for cap := range t.grant[role] {
		out[cap] = true
	}

	return out
}

// SetRole replaces one role's capability set. Takes effect for subsequent
// access checks immediately; no restart involved.
func (t *CapabilityTable) SetRole(role models.Role, caps []Capability) error {
	if role == models.RoleOwner {
		return fmt.Errorf("capability table: owner grants are implicit and not editable")
	}

	set := make(map[Capability]bool, len(caps))

	for _, cap := range caps {
		if !knownCapabilities[cap] {
			return fmt.Errorf("capability table: unknown capability %q", cap)
		}

		set[cap] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.grant[role] = set

	return nil
}

// Grants exports the current table as plain data, role → sorted-insensitive
// tag list, for the admin screen.
func (t *CapabilityTable) Grants() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string][]string, len(t.grant))

	for role, set := range t.grant {
		tags := make([]string, 0, len(set))
		for cap := range set {
			tags = append(tags, string(cap))
		}

		out[string(role)] = tags
	}

	return out
}
