package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/pkg/council"
	"conclave/pkg/llm"
)

const validPlanJSON = `{
  "reconstructed_query": "Should we adopt a four-day work week?",
  "complexity": "complex",
  "short_circuit_allowed": false,
  "council": [
    {"role": "domain_expert", "system_prompt": "You are a labor economist."},
    {"role": "pragmatist", "system_prompt": "You focus on operations."},
    {"role": "red_team", "system_prompt": "You attack."}
  ],
  "loop_grammar": "debate",
  "loop_count": 3,
  "red_team_flavor": "steelman",
  "allow_early_exit": true,
  "synthesis_instruction": "Give a recommendation with tradeoffs."
}`

func TestParseValidPlan(t *testing.T) {
	plan, err := Parse(validPlanJSON)
	require.NoError(t, err)

	assert.Equal(t, council.PatternDebate, plan.Pattern)
	assert.Equal(t, 3, plan.RoundCount)
	assert.Equal(t, council.FlavorSteelman, plan.Flavor)
	assert.Len(t, plan.Council, 3)
	assert.True(t, plan.AllowEarlyExit)
}

func TestParseStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + validPlanJSON + "\n```"
	plan, err := Parse(fenced)
	require.NoError(t, err)
	assert.Equal(t, council.PatternDebate, plan.Pattern)

	fenced = "```\n" + validPlanJSON + "\n```"
	_, err = Parse(fenced)
	require.NoError(t, err)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse("I think the council should have {")
	require.Error(t, err)
	assert.ErrorIs(t, err, Err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestParseInvalidPlan(t *testing.T) {
	// Two red team seats
	bad := `{
  "reconstructed_query": "q",
  "complexity": "complex",
  "council": [
    {"role": "red_team", "system_prompt": "a"},
    {"role": "red_team", "system_prompt": "b"},
    {"role": "creative", "system_prompt": "c"}
  ],
  "loop_grammar": "parallel",
  "loop_count": 2,
  "red_team_flavor": "logical",
  "allow_early_exit": false,
  "synthesis_instruction": "s"
}`
	_, err := Parse(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

type stubTransport struct {
	text string
	err  error
	role string
}

func (s *stubTransport) Call(ctx context.Context, _ []llm.Message, model string) (string, string, error) {
	s.role = llm.RoleFromContext(ctx)
	return s.text, model, s.err
}

func TestRun(t *testing.T) {
	transport := &stubTransport{text: validPlanJSON}
	plan, err := Run(context.Background(), transport, "four-day week?", "test/triage")
	require.NoError(t, err)
	assert.Equal(t, "Should we adopt a four-day work week?", plan.ReconstructedQuery)
	assert.Equal(t, "triage", transport.role)
}

func TestRunTransportError(t *testing.T) {
	transport := &stubTransport{err: errors.New("down")}
	_, err := Run(context.Background(), transport, "q", "test/triage")
	require.Error(t, err)
	assert.ErrorIs(t, err, Err)
}
