package executor

import (
	"context"
	"fmt"
	"strings"

	"conclave/pkg/council"
	"conclave/pkg/llm"
)

// buildDeliberationSummary renders all recorded rounds for the synthesis
// call.
func buildDeliberationSummary(records []council.RoundRecord) string {
	if len(records) == 0 {
		return "(No deliberation occurred)"
	}

	sections := make([]string, 0, len(records))
	for i := range records {
		record := &records[i]
		var b strings.Builder
		fmt.Fprintf(&b, "=== ROUND %d ===\n", record.Number)
		b.WriteString(formatRoundPositions(record.Responses))
		b.WriteString("[RED TEAM CRITIQUE]:\n")
		b.WriteString(record.Critique)
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// synthesize folds the deliberation into the final answer. The output speaks
// as a single unified voice and never references the council, rounds, or
// roles.
func (e *Executor) synthesize(ctx context.Context, plan *council.Plan, userQuery string, records []council.RoundRecord) (string, error) {
	prompt := fmt.Sprintf(`You are synthesizing the output of a deliberative council.

ORIGINAL USER QUERY:
%s

RECONSTRUCTED QUERY (used by council):
%s

COUNCIL DELIBERATION:
%s

SYNTHESIS INSTRUCTION:
%s

Produce the final response. Do not mention the council, the deliberation process, or that multiple perspectives were consulted. Speak directly to the user as a unified voice.`,
		userQuery, plan.ReconstructedQuery, buildDeliberationSummary(records), plan.SynthesisInstruction)

	messages := []llm.Message{llm.NewUserMessage(prompt)}
	text, _, err := e.transport.Call(llm.WithRole(ctx, "synthesis"), messages, e.defaultModel)
	if err != nil {
		return "", err
	}
	return text, nil
}
