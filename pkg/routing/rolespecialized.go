package routing

import (
	"math/rand/v2"

	"conclave/pkg/council"
)

// RoleSpecializedRouter composes per-role pools with the vendor-diversity
// filter: role selects the pool, the cap filters it, a random tie-break picks
// the model. This is the intended general-purpose strategy.
type RoleSpecializedRouter struct {
	rolePools    map[council.Role][]string
	maxPerVendor int
	fallback     string
}

// NewRoleSpecializedRouter creates a role-specialized router. A nil rolePools
// map falls back to DefaultRolePools; a maxPerVendor of zero or less takes
// the default cap.
func NewRoleSpecializedRouter(rolePools map[council.Role][]string, maxPerVendor int, fallback string) *RoleSpecializedRouter {
	if len(rolePools) == 0 {
		rolePools = DefaultRolePools()
	}
	if maxPerVendor <= 0 {
		maxPerVendor = DefaultMaxPerVendor
	}
	return &RoleSpecializedRouter{
		rolePools:    rolePools,
		maxPerVendor: maxPerVendor,
		fallback:     defaultFallback(fallback),
	}
}

// Select picks a model for the seat: role pool, vendor-cap filter, random
// tie-break, fallback when nothing remains.
func (r *RoleSpecializedRouter) Select(role council.Role, _, _ int, selected []string) string {
	pool := r.rolePools[role]
	if len(pool) == 0 {
		return r.fallback
	}

	var candidates []string
	for _, model := range pool {
		vendor := ExtractVendor(model)
		if CountVendor(vendor, selected) < r.maxPerVendor {
			candidates = append(candidates, model)
		}
	}

	if len(candidates) == 0 {
		return r.fallback
	}
	return safeFallback(candidates[rand.IntN(len(candidates))], r.fallback)
}
