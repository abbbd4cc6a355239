package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"conclave/pkg/council"
	"conclave/pkg/llm"
	"conclave/pkg/redteam"
)

// formatRoundPositions renders per-role responses for critic consumption,
// in stable role order.
func formatRoundPositions(responses map[council.Role]string) string {
	roles := make([]string, 0, len(responses))
	for role := range responses {
		if role != council.RoleRedTeam {
			roles = append(roles, string(role))
		}
	}
	sort.Strings(roles)

	var b strings.Builder
	for _, role := range roles {
		fmt.Fprintf(&b, "[%s]:\n%s\n\n", strings.ToUpper(role), responses[council.Role(role)])
	}
	return b.String()
}

// runParallel executes one round of the parallel grammar: every deliberating
// seat responds independently and concurrently to the same context, then the
// critic sees all responses at once.
//
// All seats share the same (empty) selection snapshot, so vendor diversity
// is best-effort under this grammar. The critic routes after the fan-out and
// sees the full selection list.
func (e *Executor) runParallel(ctx context.Context, in *roundInput) (council.RoundRecord, error) {
	type seatResult struct {
		role    council.Role
		content string
		model   string
	}

	// Snapshot passed to every concurrent seat; empty at round start.
	snapshot := []string{}

	results := make([]seatResult, len(in.seats))
	g, gctx := errgroup.WithContext(ctx)
	for i := range in.seats {
		seat := &in.seats[i]
		g.Go(func() error {
			messages := []llm.Message{llm.NewSystemMessage(seat.SystemPrompt)}
			if in.round == 1 {
				messages = append(messages, llm.NewUserMessage(in.query))
			} else {
				messages = append(messages,
					llm.NewUserMessage(in.query),
					llm.NewAssistantMessage(formatRoundPositions(in.prior)),
					llm.NewUserMessage(fmt.Sprintf(
						"RED TEAM CRITIQUE:\n%s\n\n"+
							"Consider the critique above and revise your position as needed. "+
							"Address valid objections while maintaining defensible positions.",
						in.priorCritique)),
				)
			}

			model := e.seatModel(seat, in.round, i, snapshot)
			content, used, err := e.callSeat(gctx, seat.Role, messages, model)
			if err != nil {
				return fmt.Errorf("seat %s: %w", seat.Role, err)
			}
			results[i] = seatResult{role: seat.Role, content: content, model: used}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return council.RoundRecord{}, err
	}

	responses := make(map[council.Role]string, len(results))
	modelsUsed := make(map[council.Role]string, len(results))
	selections := make([]string, 0, len(results))
	for _, r := range results {
		responses[r.role] = r.content
		modelsUsed[r.role] = r.model
		selections = append(selections, r.model)
	}

	// Critic sees all responses at once.
	critiqueMessages := []llm.Message{
		llm.NewSystemMessage(redteam.Prompt(in.flavor)),
		llm.NewUserMessage(fmt.Sprintf(
			"QUERY: %s\n\nCOUNCIL POSITIONS:\n%s\nProvide your critique of these positions.",
			in.query, formatRoundPositions(responses))),
	}
	critiqueModel := e.criticModel(in.round, selections)
	critique, critiqueUsed, err := e.callSeat(ctx, council.RoleRedTeam, critiqueMessages, critiqueModel)
	if err != nil {
		return council.RoundRecord{}, fmt.Errorf("critic: %w", err)
	}

	delta, err := e.detectDelta(ctx, in.prior, responses)
	if err != nil {
		return council.RoundRecord{}, err
	}

	return council.RoundRecord{
		Number:        in.round,
		Responses:     responses,
		ModelsUsed:    modelsUsed,
		Critique:      critique,
		CritiqueModel: critiqueUsed,
		DeltaDetected: delta,
	}, nil
}
