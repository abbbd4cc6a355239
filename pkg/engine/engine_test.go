package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/pkg/config"
	"conclave/pkg/council"
	"conclave/pkg/llm"
)

const planJSON = `{
	"reconstructed_query": "Should the team adopt event sourcing for order history?",
	"complexity": "complex",
	"short_circuit_allowed": false,
	"council": [
		{"role": "domain_expert", "system_prompt": "You know distributed systems."},
		{"role": "pragmatist", "system_prompt": "You weigh costs."},
		{"role": "red_team", "system_prompt": "You attack weak reasoning."}
	],
	"loop_grammar": "parallel",
	"loop_count": 2,
	"red_team_flavor": "logical",
	"allow_early_exit": false,
	"synthesis_instruction": "Answer with a recommendation."
}`

// roleTransport answers by the role label attached to the call context.
type roleTransport struct {
	mu    sync.Mutex
	calls []string
}

func (t *roleTransport) Call(ctx context.Context, messages []llm.Message, model string) (string, string, error) {
	role := llm.RoleFromContext(ctx)
	t.mu.Lock()
	t.calls = append(t.calls, role)
	t.mu.Unlock()

	switch role {
	case "triage":
		return planJSON, model, nil
	case "judge":
		return "YES", model, nil
	case "synthesis":
		return "Adopt event sourcing for the order domain only.", model, nil
	case string(council.RoleRedTeam):
		return "The cost analysis is hand-waved.", model, nil
	default:
		return "position from " + role, model, nil
	}
}

func (t *roleTransport) countRole(role string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.calls {
		if r == role {
			n++
		}
	}
	return n
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Normalize()
	cfg.Transport.AnthropicAPIKey = "test-key"
	cfg.Observability = true
	cfg.ArchivePath = filepath.Join(t.TempDir(), "runs.db")
	return cfg
}

func TestEngineRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	transport := &roleTransport{}

	eng, err := New(cfg, Options{Transport: transport})
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	outcome, err := eng.Run(context.Background(), "should we adopt event sourcing")
	require.NoError(t, err)

	assert.Equal(t, "Adopt event sourcing for the order domain only.", outcome.FinalResponse)
	assert.Equal(t, 2, outcome.RoundsExecuted)
	assert.False(t, outcome.EarlyExit)
	require.NotNil(t, outcome.Plan)
	assert.Len(t, outcome.Transcript, 2)

	assert.Equal(t, 1, transport.countRole("triage"))
	assert.Equal(t, 1, transport.countRole("synthesis"))
	assert.Equal(t, 2, transport.countRole(string(council.RoleRedTeam)))
	// Round 1 has no prior positions, so only round 2 consults the judge.
	assert.Equal(t, 1, transport.countRole("judge"))

	require.NotEmpty(t, outcome.RunID)
	stored, err := eng.Archive().GetRun(context.Background(), outcome.RunID)
	require.NoError(t, err)
	assert.Equal(t, outcome.FinalResponse, stored.FinalResponse)
	assert.Len(t, stored.Transcript, 2)
}

func TestEngineRunWithPlanSkipsTriage(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchivePath = ""
	transport := &roleTransport{}

	eng, err := New(cfg, Options{Transport: transport})
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	plan := &council.Plan{
		ReconstructedQuery: "q",
		Complexity:         council.ComplexityComplicated,
		Council: []council.Seat{
			{Role: council.RoleDomainExpert, SystemPrompt: "expert"},
			{Role: council.RolePragmatist, SystemPrompt: "pragmatist"},
			{Role: council.RoleRedTeam, SystemPrompt: "critic"},
		},
		Pattern:              council.PatternSequential,
		RoundCount:           2,
		Flavor:               council.FlavorFeasibility,
		SynthesisInstruction: "Answer.",
	}

	outcome, err := eng.RunWithPlan(context.Background(), plan, "q")
	require.NoError(t, err)

	assert.Zero(t, transport.countRole("triage"))
	assert.Equal(t, 2, outcome.RoundsExecuted)
	assert.Empty(t, outcome.RunID)
	assert.Nil(t, eng.Archive())
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Normalize()
	cfg.DefaultModel = "not-a-model"

	_, err := New(cfg, Options{Transport: &roleTransport{}})
	require.Error(t, err)
}
