package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"conclave/pkg/council"
	"conclave/pkg/llm"
	"conclave/pkg/redteam"
)

// runDebate executes one round of the debate grammar in three ordered
// phases: all seats state initial positions concurrently, the critic attacks
// the weakest position(s), then all seats defend concurrently seeing only
// their own position and the attack. The stored responses are the defenses
// and the stored critique is the single attack; no voting happens here,
// disagreement is resolved at synthesis.
func (e *Executor) runDebate(ctx context.Context, in *roundInput) (council.RoundRecord, error) {
	type seatResult struct {
		role    council.Role
		content string
		model   string
	}

	// Phase 1: initial positions, concurrent fan-out with an empty
	// selection snapshot (diversity best-effort, as in the parallel grammar).
	snapshot := []string{}
	positions := make([]seatResult, len(in.seats))
	g, gctx := errgroup.WithContext(ctx)
	for i := range in.seats {
		seat := &in.seats[i]
		g.Go(func() error {
			messages := []llm.Message{
				llm.NewSystemMessage(seat.SystemPrompt),
				llm.NewUserMessage(fmt.Sprintf(
					"QUERY: %s\n\nState your position on this matter clearly and defend it.", in.query)),
			}
			model := e.seatModel(seat, in.round, i, snapshot)
			content, used, err := e.callSeat(gctx, seat.Role, messages, model)
			if err != nil {
				return fmt.Errorf("seat %s position: %w", seat.Role, err)
			}
			positions[i] = seatResult{role: seat.Role, content: content, model: used}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return council.RoundRecord{}, err
	}

	initialPositions := make(map[council.Role]string, len(positions))
	selections := make([]string, 0, len(positions))
	for _, p := range positions {
		initialPositions[p.role] = p.content
		selections = append(selections, p.model)
	}

	// Phase 2: the critic sees all positions at once and attacks the weakest.
	attackMessages := []llm.Message{
		llm.NewSystemMessage(redteam.Prompt(in.flavor)),
		llm.NewUserMessage(fmt.Sprintf(
			"QUERY: %s\n\nCOUNCIL POSITIONS:\n%s\n"+
				"Identify the weakest position(s) and attack them. "+
				"Be specific about which position you are attacking and why.",
			in.query, formatRoundPositions(initialPositions))),
	}
	attackModel := e.criticModel(in.round, selections)
	attack, attackUsed, err := e.callSeat(ctx, council.RoleRedTeam, attackMessages, attackModel)
	if err != nil {
		return council.RoundRecord{}, fmt.Errorf("critic attack: %w", err)
	}
	selections = append(selections, attackUsed)

	// Phase 3: defenses, concurrent fan-out. Each seat sees only its own
	// prior position and the attack text.
	defenseSnapshot := append([]string(nil), selections...)
	defenses := make([]seatResult, len(in.seats))
	g, gctx = errgroup.WithContext(ctx)
	for i := range in.seats {
		seat := &in.seats[i]
		g.Go(func() error {
			messages := []llm.Message{
				llm.NewSystemMessage(seat.SystemPrompt),
				llm.NewUserMessage(fmt.Sprintf(
					"YOUR PRIOR POSITION:\n%s\n\nRED TEAM ATTACK:\n%s\n\n"+
						"Defend your position against this attack. "+
						"You may revise your position if the critique is valid, "+
						"or reinforce it if you can refute the objections.",
					initialPositions[seat.Role], attack)),
			}
			model := e.seatModel(seat, in.round, i, defenseSnapshot)
			content, used, err := e.callSeat(gctx, seat.Role, messages, model)
			if err != nil {
				return fmt.Errorf("seat %s defense: %w", seat.Role, err)
			}
			defenses[i] = seatResult{role: seat.Role, content: content, model: used}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return council.RoundRecord{}, err
	}

	responses := make(map[council.Role]string, len(defenses))
	modelsUsed := make(map[council.Role]string, len(defenses))
	for _, d := range defenses {
		responses[d.role] = d.content
		modelsUsed[d.role] = d.model
	}

	delta, err := e.detectDelta(ctx, in.prior, responses)
	if err != nil {
		return council.RoundRecord{}, err
	}

	return council.RoundRecord{
		Number:        in.round,
		Responses:     responses,
		ModelsUsed:    modelsUsed,
		Critique:      attack,
		CritiqueModel: attackUsed,
		DeltaDetected: delta,
	}, nil
}
