package executor

import (
	"context"
	"fmt"
	"strings"

	"conclave/pkg/council"
	"conclave/pkg/llm"
	"conclave/pkg/redteam"
)

// runSequential executes one round of the sequential grammar: a single draft
// refined seat by seat, the critic attacking after every seat except the
// last, then one final critique of the complete draft. That final critique
// is the round's stored critique; intermediate critiques are consumed as
// context only.
//
// Every call is strictly ordered by data dependency, so both deliberator and
// critic selections feed the same selection list and diversity is exact.
func (e *Executor) runSequential(ctx context.Context, in *roundInput) (council.RoundRecord, error) {
	criticPrompt := redteam.Prompt(in.flavor)

	responses := make(map[council.Role]string, len(in.seats))
	modelsUsed := make(map[council.Role]string, len(in.seats))
	var selections []string
	draft := ""
	var critiques []string

	for i := range in.seats {
		seat := &in.seats[i]
		isFirst := i == 0
		isLast := i == len(in.seats)-1

		messages := []llm.Message{llm.NewSystemMessage(seat.SystemPrompt)}
		if isFirst {
			messages = append(messages, llm.NewUserMessage(fmt.Sprintf(
				"QUERY: %s\n\nProvide your initial draft or position.", in.query)))
		} else {
			var summary strings.Builder
			for j, c := range critiques {
				fmt.Fprintf(&summary, "CRITIQUE %d:\n%s\n\n", j+1, c)
			}
			messages = append(messages, llm.NewUserMessage(fmt.Sprintf(
				"QUERY: %s\n\nACCUMULATED DRAFT:\n%s\n\nCRITIQUES SO FAR:\n%s"+
					"Revise and improve the draft, addressing the critiques.",
				in.query, draft, summary.String())))
		}

		model := e.seatModel(seat, in.round, i, selections)
		content, used, err := e.callSeat(ctx, seat.Role, messages, model)
		if err != nil {
			return council.RoundRecord{}, fmt.Errorf("seat %s: %w", seat.Role, err)
		}
		responses[seat.Role] = content
		modelsUsed[seat.Role] = used
		selections = append(selections, used)
		draft = content // latest revision replaces the accumulated draft

		// Critic attacks after every seat except the last; the last seat's
		// draft gets the final critique below instead.
		if !isLast {
			critiqueMessages := []llm.Message{
				llm.NewSystemMessage(criticPrompt),
				llm.NewUserMessage(fmt.Sprintf(
					"QUERY: %s\n\nCURRENT DRAFT from [%s]:\n%s\n\nCritique this draft.",
					in.query, strings.ToUpper(string(seat.Role)), content)),
			}
			critiqueModel := e.criticModel(in.round, selections)
			critique, critiqueUsed, err := e.callSeat(ctx, council.RoleRedTeam, critiqueMessages, critiqueModel)
			if err != nil {
				return council.RoundRecord{}, fmt.Errorf("critic after seat %s: %w", seat.Role, err)
			}
			critiques = append(critiques, critique)
			selections = append(selections, critiqueUsed)
		}
	}

	// Final critique of the complete draft.
	finalMessages := []llm.Message{
		llm.NewSystemMessage(criticPrompt),
		llm.NewUserMessage(fmt.Sprintf(
			"QUERY: %s\n\nFINAL OUTPUT:\n%s\n\nProvide your final critique of the complete output.",
			in.query, draft)),
	}
	finalModel := e.criticModel(in.round, selections)
	finalCritique, finalUsed, err := e.callSeat(ctx, council.RoleRedTeam, finalMessages, finalModel)
	if err != nil {
		return council.RoundRecord{}, fmt.Errorf("final critic: %w", err)
	}

	delta, err := e.detectDelta(ctx, in.prior, responses)
	if err != nil {
		return council.RoundRecord{}, err
	}

	return council.RoundRecord{
		Number:        in.round,
		Responses:     responses,
		ModelsUsed:    modelsUsed,
		Critique:      finalCritique,
		CritiqueModel: finalUsed,
		DeltaDetected: delta,
	}, nil
}
