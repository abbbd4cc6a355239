package routing

import (
	"fmt"

	"conclave/pkg/config"
	"conclave/pkg/council"
)

// StaticRouter always returns the same identifier. Used by the "auto"
// strategy, which routes everything to the configured default model.
type StaticRouter struct {
	model string
}

// NewStaticRouter creates a static router.
func NewStaticRouter(model string) *StaticRouter {
	return &StaticRouter{model: defaultFallback(model)}
}

// Select returns the fixed model identifier.
func (r *StaticRouter) Select(_ council.Role, _, _ int, _ []string) string {
	return r.model
}

// rolePoolsFromConfig converts role-name keys to council.Role keys, dropping
// entries with unknown role names.
func rolePoolsFromConfig(pools map[string][]string) map[council.Role][]string {
	if len(pools) == 0 {
		return nil
	}
	out := make(map[council.Role][]string, len(pools))
	for name, models := range pools {
		role := council.Role(name)
		if role.Valid() {
			out[role] = models
		}
	}
	return out
}

// NewFromConfig builds the routing strategy named by the configuration.
func NewFromConfig(cfg *config.Config) (Strategy, error) {
	rc := &cfg.Routing
	fallback := cfg.DefaultModel

	switch rc.Strategy {
	case "", "auto":
		return NewStaticRouter(fallback), nil

	case "pool":
		pool := rc.Pool
		if len(pool) == 0 {
			pool = DefaultPool()
		}
		return NewPoolRouter(pool, fallback)

	case "diversity":
		pool := rc.Pool
		if len(pool) == 0 {
			pool = DefaultPool()
		}
		return NewDiversityRouter(pool, rc.MaxPerVendor, fallback)

	case "role":
		return NewRoleMappedRouter(rolePoolsFromConfig(rc.RolePools), fallback), nil

	case "specialized":
		return NewRoleSpecializedRouter(rolePoolsFromConfig(rc.RolePools), rc.MaxPerVendor, fallback), nil

	case "tiered":
		return NewTieredRouter(rc.PremiumModel, rc.BudgetModel), nil

	case "cost":
		return NewCostAwareRouter(rc.TierPools, rc.QualityThreshold, fallback), nil

	default:
		return nil, fmt.Errorf("unknown routing strategy %q", rc.Strategy)
	}
}
