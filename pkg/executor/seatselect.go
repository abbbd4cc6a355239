package executor

import (
	"strings"

	"conclave/pkg/council"
)

// seatModel resolves the model for a council seat. A seat's explicit hint
// always wins and bypasses routing entirely.
func (e *Executor) seatModel(seat *council.Seat, round, seatIndex int, selected []string) string {
	if seat.ModelHint != "" {
		return seat.ModelHint
	}
	return e.routeModel(seat.Role, round, seatIndex, selected)
}

// criticModel resolves the model for the red team critic. The critic has no
// seat object; its seat index is taken as the number of selections so far.
func (e *Executor) criticModel(round int, selected []string) string {
	return e.routeModel(council.RoleRedTeam, round, len(selected), selected)
}

// routeModel invokes the routing strategy and maps every failure mode, a
// panic included, to the default model. Routing is best-effort: a broken
// strategy must never take the round down with it.
func (e *Executor) routeModel(role council.Role, round, seatIndex int, selected []string) (model string) {
	if e.router == nil {
		return e.defaultModel
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("router panicked for role=%s round=%d seat=%d: %v; falling back to %s",
				role, round, seatIndex, r, e.defaultModel)
			model = e.defaultModel
		}
	}()

	selectedModel := e.router.Select(role, round, seatIndex, selected)
	if strings.TrimSpace(selectedModel) == "" {
		e.log.Warn("router returned empty model for role=%s round=%d seat=%d; falling back to %s",
			role, round, seatIndex, e.defaultModel)
		return e.defaultModel
	}
	return selectedModel
}
