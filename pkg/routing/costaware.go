package routing

import (
	"conclave/pkg/council"
)

// Difficulty classifies how demanding a seat's work is expected to be.
type Difficulty string

// Difficulty classes used by the cost-aware tier mapping.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CostAwareRouter maps role to a difficulty class and difficulty to a tier
// pool, returning the first (cheapest) entry of the tier. The quality
// threshold is reserved for a future escalation policy between tiers and is
// not consulted by the current selection logic.
type CostAwareRouter struct {
	tierPools        map[string][]string
	qualityThreshold float64
	fallback         string
}

// difficultyTier maps difficulty class to a starting tier.
//
//nolint:gochecknoglobals // Static lookup table
var difficultyTier = map[Difficulty]string{
	DifficultyEasy:   "T0",
	DifficultyMedium: "T1",
	DifficultyHard:   "T2",
}

// NewCostAwareRouter creates a cost-aware router. A nil tierPools map falls
// back to DefaultTierPools.
func NewCostAwareRouter(tierPools map[string][]string, qualityThreshold float64, fallback string) *CostAwareRouter {
	if len(tierPools) == 0 {
		tierPools = DefaultTierPools()
	}
	return &CostAwareRouter{
		tierPools:        tierPools,
		qualityThreshold: qualityThreshold,
		fallback:         defaultFallback(fallback),
	}
}

// classify estimates difficulty from the role. Critique is lightweight,
// synthesis needs the highest quality, everything else is middling.
func classify(role council.Role) Difficulty {
	switch role {
	case council.RoleRedTeam:
		return DifficultyEasy
	case council.RoleSynthesizer:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Select returns the first model of the tier matching the role's difficulty.
func (r *CostAwareRouter) Select(role council.Role, _, _ int, _ []string) string {
	tier := difficultyTier[classify(role)]
	pool := r.tierPools[tier]
	if len(pool) == 0 {
		return r.fallback
	}
	return safeFallback(pool[0], r.fallback)
}
