package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"conclave/pkg/council"
	"conclave/pkg/llm"
)

// Detector decides whether a round materially changed positions versus the
// prior round. The first comparison (nil prior) always counts as changed so
// at least two effective rounds happen before any early exit.
type Detector interface {
	Detect(ctx context.Context, prior, current map[council.Role]string) (bool, error)
}

// JudgeDelta asks a judge model a strict yes/no question about the two
// position sets. Any affirmative token counts as changed; everything else,
// including a rambling non-answer, counts as converged.
type JudgeDelta struct {
	transport llm.Transport
	model     string
}

// NewJudgeDelta creates an LLM-judge delta detector bound to one judge model.
func NewJudgeDelta(transport llm.Transport, model string) *JudgeDelta {
	return &JudgeDelta{transport: transport, model: model}
}

// formatPositions renders a per-role response map as role-labeled text
// blocks, in stable role order.
func formatPositions(positions map[council.Role]string) string {
	roles := make([]string, 0, len(positions))
	for role := range positions {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	var b strings.Builder
	for _, role := range roles {
		b.WriteString("[" + strings.ToUpper(role) + "]\n")
		b.WriteString(positions[council.Role(role)])
		b.WriteString("\n\n")
	}
	return b.String()
}

// Detect implements the Detector interface.
func (d *JudgeDelta) Detect(ctx context.Context, prior, current map[council.Role]string) (bool, error) {
	if prior == nil {
		return true, nil
	}

	messages := []llm.Message{
		llm.NewSystemMessage("You are a judge. Answer only YES or NO."),
		llm.NewUserMessage(fmt.Sprintf(
			"Did positions materially change?\n\nPRIOR:\n%s\nCURRENT:\n%s\n"+
				"Answer YES if substantive changes occurred. Answer NO if changes are only cosmetic.",
			formatPositions(prior), formatPositions(current))),
	}

	ctx = llm.WithRole(ctx, "judge")
	text, _, err := d.transport.Call(ctx, messages, d.model)
	if err != nil {
		return false, fmt.Errorf("delta judge call failed: %w", err)
	}

	return strings.Contains(strings.ToUpper(text), "YES"), nil
}
