package authz

import (
	"time"

	"github.com/eshop-labs/commerce-engine/internal/models"
)

// Decision distinguishes the two deny causes: a missing/expired session
// sends the user to login with the original path preserved, while an
// insufficient role shows a forbidden view. The route guards must never
// conflate them.
type Decision int

const (
	Allow Decision = iota
	DenyNoSession
	DenyForbidden
)

type Gate struct {
	table *CapabilityTable
}

func NewGate(table *CapabilityTable) *Gate {
	return &Gate{table: table}
}

func (g *Gate) Table() *CapabilityTable {
	return g.table
}

// Decide evaluates a session against a capability.
func (g *Gate) Decide(session *models.Session, capability Capability) Decision {
	if session == nil || session.Expired(time.Now()) {
		return DenyNoSession
	}

	if g.table.Capabilities(session.Profile.Role)[capability] {
		return Allow
	}

	return DenyForbidden
}

func (g *Gate) CanAccess(session *models.Session, capability Capability) bool {
	return g.Decide(session, capability) == Allow
}
