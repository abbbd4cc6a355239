// Package routing provides pluggable model-selection strategies for council
// seats. A strategy picks one model identifier per call given the seat's
// role, the current round, and the models already chosen this round.
//
// Strategies never fail: internal problems resolve to a fallback identifier
// so the round can always proceed on the default model.
package routing

import (
	"strings"

	"conclave/pkg/config"
	"conclave/pkg/council"
)

// Strategy selects a model identifier for one seat call. selected holds the
// identifiers already chosen in the current round, in selection order; it is
// round-scoped and reset between rounds by the caller.
type Strategy interface {
	Select(role council.Role, round, seatIndex int, selected []string) string
}

// ExtractVendor returns the provider segment of a model identifier, the
// substring before the first "/". Identifiers without a separator map to
// "unknown".
func ExtractVendor(modelID string) string {
	if idx := strings.IndexByte(modelID, '/'); idx >= 0 {
		return modelID[:idx]
	}
	return "unknown"
}

// CountVendor counts how many identifiers in selected belong to vendor.
func CountVendor(vendor string, selected []string) int {
	n := 0
	for _, model := range selected {
		if ExtractVendor(model) == vendor {
			n++
		}
	}
	return n
}

// safeFallback returns modelID if it is a usable identifier, otherwise fallback.
func safeFallback(modelID, fallback string) string {
	if strings.TrimSpace(modelID) != "" {
		return modelID
	}
	return fallback
}

// defaultFallback resolves an empty fallback to the package-wide default model.
func defaultFallback(fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		return config.DefaultModel
	}
	return fallback
}
