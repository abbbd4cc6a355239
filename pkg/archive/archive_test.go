package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/pkg/council"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func archivedResult() *council.Result {
	plan := &council.Plan{
		ReconstructedQuery: "Should we migrate the billing service to gRPC?",
		Complexity:         council.ComplexityComplex,
		Council: []council.Seat{
			{Role: council.RoleDomainExpert, SystemPrompt: "You design systems."},
			{Role: council.RolePragmatist, SystemPrompt: "You find flaws."},
			{Role: council.RoleRedTeam, SystemPrompt: "You attack positions."},
		},
		Pattern:              council.PatternParallel,
		RoundCount:           2,
		Flavor:               council.FlavorLogical,
		SynthesisInstruction: "Answer decisively.",
	}
	return &council.Result{
		FinalResponse:  "Migrate incrementally behind a facade.",
		RoundsExecuted: 2,
		Plan:           plan,
		Transcript: []council.RoundRecord{
			{
				Number: 1,
				Responses: map[council.Role]string{
					council.RoleDomainExpert: "gRPC fits the call patterns.",
					council.RolePragmatist:   "Migration risk is understated.",
				},
				ModelsUsed: map[council.Role]string{
					council.RoleDomainExpert: "anthropic/claude-sonnet-4-5",
					council.RolePragmatist:   "openai/gpt-4o",
				},
				Critique:      "Neither position addresses rollback.",
				CritiqueModel: "anthropic/claude-sonnet-4-5",
				DeltaDetected: true,
			},
			{
				Number: 2,
				Responses: map[council.Role]string{
					council.RoleDomainExpert: "Add a facade for rollback.",
					council.RolePragmatist:   "Facade addresses my concern.",
				},
				ModelsUsed: map[council.Role]string{
					council.RoleDomainExpert: "anthropic/claude-sonnet-4-5",
					council.RolePragmatist:   "openai/gpt-4o",
				},
				Critique:      "Positions have converged.",
				CritiqueModel: "anthropic/claude-sonnet-4-5",
				DeltaDetected: false,
			},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	result := archivedResult()
	id, err := store.SaveRun(ctx, "should we use grpc for billing", result)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "should we use grpc for billing", run.Query)
	assert.Equal(t, result.FinalResponse, run.FinalResponse)
	assert.Equal(t, 2, run.RoundsExecuted)
	assert.False(t, run.EarlyExit)
	assert.Equal(t, string(council.PatternParallel), run.Pattern)

	require.NotNil(t, run.Plan)
	assert.Equal(t, result.Plan.ReconstructedQuery, run.Plan.ReconstructedQuery)
	assert.Len(t, run.Plan.Council, 3)

	require.Len(t, run.Transcript, 2)
	assert.Equal(t, result.Transcript[0].Responses, run.Transcript[0].Responses)
	assert.True(t, run.Transcript[0].DeltaDetected)
	assert.False(t, run.Transcript[1].DeltaDetected)
	assert.Equal(t, "Positions have converged.", run.Transcript[1].Critique)
}

func TestSaveRunRequiresPlan(t *testing.T) {
	store := openTestStore(t)

	_, err := store.SaveRun(context.Background(), "q", &council.Result{FinalResponse: "x"})
	require.Error(t, err)
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, "first query", archivedResult())
	require.NoError(t, err)
	second, err := store.SaveRun(ctx, "second query", archivedResult())
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}
