package routing

import (
	"conclave/pkg/config"
	"conclave/pkg/council"
)

// DefaultRolePools returns the built-in per-role candidate pools used by the
// role-specialized strategy when no pools are configured. Each pool mixes
// vendors so the diversity cap has something to work with.
func DefaultRolePools() map[council.Role][]string {
	return map[council.Role][]string{
		council.RoleRedTeam: {
			config.ModelClaudeHaiku4,
			config.ModelMistralNemo,
			config.ModelLlama33,
		},
		council.RoleSynthesizer: {
			config.ModelClaudeOpus4,
			config.ModelGPT4o,
		},
		council.RoleDomainExpert: {
			config.ModelGPT4o,
			config.ModelGemini3Pro,
			config.ModelClaudeSonnet4,
		},
		council.RolePragmatist: {
			config.ModelClaudeSonnet4,
			config.ModelGPT4oMini,
		},
		council.RoleCreative: {
			config.ModelGemini3Pro,
			config.ModelGPT5,
		},
	}
}

// DefaultTierPools returns the built-in cost tiers, cheapest tier first entry
// first. T0 is ultra-cheap local or small models, T3 is frontier.
func DefaultTierPools() map[string][]string {
	return map[string][]string{
		"T0": {
			config.ModelLlama33,
			config.ModelMistralNemo,
		},
		"T1": {
			config.ModelGPT4oMini,
			config.ModelGeminiFlash,
			config.ModelClaudeSonnet4,
		},
		"T2": {
			config.ModelGPT4o,
			config.ModelGemini3Pro,
		},
		"T3": {
			config.ModelClaudeOpus4,
			config.ModelGPT5,
		},
	}
}

// DefaultPool returns a flat multi-vendor pool for the pool and diversity
// strategies when no pool is configured.
func DefaultPool() []string {
	return []string{
		config.ModelClaudeSonnet4,
		config.ModelGPT4o,
		config.ModelGemini3Pro,
		config.ModelClaudeHaiku4,
		config.ModelGPT4oMini,
		config.ModelLlama33,
	}
}
