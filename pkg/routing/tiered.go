package routing

import (
	"conclave/pkg/council"
)

// TieredRouter is a binary premium/budget policy: the two critical roles
// (red team and synthesizer) get the premium model, everyone else the budget
// model.
type TieredRouter struct {
	premium string
	budget  string
}

// NewTieredRouter creates a tiered router.
func NewTieredRouter(premium, budget string) *TieredRouter {
	return &TieredRouter{
		premium: defaultFallback(premium),
		budget:  defaultFallback(budget),
	}
}

// Select returns the premium model for critical roles, the budget model
// otherwise.
func (r *TieredRouter) Select(role council.Role, _, _ int, _ []string) string {
	if role == council.RoleRedTeam || role == council.RoleSynthesizer {
		return r.premium
	}
	return r.budget
}
