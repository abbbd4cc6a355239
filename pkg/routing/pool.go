package routing

import (
	"errors"
	"math/rand/v2"

	"conclave/pkg/council"
)

// PoolRouter selects a model by uniform random choice from a fixed pool. It
// ignores role and diversity; useful as a baseline.
type PoolRouter struct {
	pool     []string
	fallback string
}

// NewPoolRouter creates a pool router. The pool must be non-empty.
func NewPoolRouter(pool []string, fallback string) (*PoolRouter, error) {
	if len(pool) == 0 {
		return nil, errors.New("model pool cannot be empty")
	}
	return &PoolRouter{
		pool:     pool,
		fallback: defaultFallback(fallback),
	}, nil
}

// Select returns a random model from the pool.
func (r *PoolRouter) Select(_ council.Role, _, _ int, _ []string) string {
	return safeFallback(r.pool[rand.IntN(len(r.pool))], r.fallback)
}
