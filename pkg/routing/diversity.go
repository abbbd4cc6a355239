package routing

import (
	"errors"
	"math/rand/v2"

	"conclave/pkg/council"
)

// DefaultMaxPerVendor is the per-round vendor cap used when none is configured.
const DefaultMaxPerVendor = 2

// DiversityRouter selects from a pool while enforcing a per-round vendor cap,
// preventing over-reliance on a single provider.
type DiversityRouter struct {
	pool         []string
	maxPerVendor int
	fallback     string
}

// NewDiversityRouter creates a diversity router. The pool must be non-empty;
// a maxPerVendor of zero or less takes the default cap.
func NewDiversityRouter(pool []string, maxPerVendor int, fallback string) (*DiversityRouter, error) {
	if len(pool) == 0 {
		return nil, errors.New("model pool cannot be empty")
	}
	if maxPerVendor <= 0 {
		maxPerVendor = DefaultMaxPerVendor
	}
	return &DiversityRouter{
		pool:         pool,
		maxPerVendor: maxPerVendor,
		fallback:     defaultFallback(fallback),
	}, nil
}

// Select picks a random model among vendors that have not yet hit the cap in
// this round's selections. When every vendor is exhausted it returns the
// fallback identifier.
func (r *DiversityRouter) Select(_ council.Role, _, _ int, selected []string) string {
	var candidates []string
	for _, model := range r.pool {
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
