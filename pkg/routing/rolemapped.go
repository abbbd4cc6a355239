package routing

import (
	"conclave/pkg/council"
)

// RoleMappedRouter maps each council role to an ordered candidate list and
// returns the first entry. No diversity enforcement.
type RoleMappedRouter struct {
	roleModels map[council.Role][]string
	fallback   string
}

// NewRoleMappedRouter creates a role-mapped router. Unmapped roles resolve to
// the fallback identifier.
func NewRoleMappedRouter(roleModels map[council.Role][]string, fallback string) *RoleMappedRouter {
	return &RoleMappedRouter{
		roleModels: roleModels,
		fallback:   defaultFallback(fallback),
	}
}

// Select returns the first model in the role's candidate list.
func (r *RoleMappedRouter) Select(role council.Role, _, _ int, _ []string) string {
	models := r.roleModels[role]
	if len(models) == 0 {
		return r.fallback
	}
	return safeFallback(models[0], r.fallback)
}
