package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() Plan {
	return Plan{
		ReconstructedQuery:  "Should we migrate to microservices?",
		Complexity:          ComplexityComplicated,
		ShortCircuitAllowed: false,
		Council: []Seat{
			{Role: RoleSynthesizer, SystemPrompt: "integrate"},
			{Role: RolePragmatist, SystemPrompt: "ground"},
			{Role: RoleRedTeam, SystemPrompt: "attack"},
		},
		Pattern:              PatternParallel,
		RoundCount:           3,
		Flavor:               FlavorFeasibility,
		AllowEarlyExit:       true,
		SynthesisInstruction: "concise recommendation",
	}
}

func TestPlanValidate_OK(t *testing.T) {
	p := validPlan()
	require.NoError(t, p.Validate())
}

func TestPlanValidate_SeatCount(t *testing.T) {
	p := validPlan()
	p.Council = p.Council[:2] // only 2 seats
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3-5 seats")

	p = validPlan()
	extra := Seat{Role: RoleCreative, SystemPrompt: "x"}
	p.Council = append(p.Council, extra, extra, extra) // 6 seats
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3-5 seats")
}

func TestPlanValidate_RedTeamCardinality(t *testing.T) {
	p := validPlan()
	p.Council[2].Role = RoleCreative // no red team
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 1 red_team")

	p = validPlan()
	p.Council[0].Role = RoleRedTeam // two red teams
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 1 red_team")
}

func TestPlanValidate_RoundBounds(t *testing.T) {
	for _, count := range []int{0, 1, 6, 10} {
		p := validPlan()
		p.RoundCount = count
		assert.Error(t, p.Validate(), "round count %d should be rejected", count)
	}
	for count := MinRounds; count <= MaxRounds; count++ {
		p := validPlan()
		p.RoundCount = count
		assert.NoError(t, p.Validate(), "round count %d should be accepted", count)
	}
}

func TestPlanValidate_ShortCircuitRequiresSimple(t *testing.T) {
	p := validPlan()
	p.ShortCircuitAllowed = true
	p.Complexity = ComplexityComplex
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complexity=simple")

	p.Complexity = ComplexitySimple
	require.NoError(t, p.Validate())
}

func TestPlanValidate_UnknownEnums(t *testing.T) {
	p := validPlan()
	p.Pattern = Pattern("roundtable")
	assert.Error(t, p.Validate())

	p = validPlan()
	p.Flavor = Flavor("sarcastic")
	assert.Error(t, p.Validate())

	p = validPlan()
	p.Complexity = Complexity("trivial")
	assert.Error(t, p.Validate())

	p = validPlan()
	p.Council[1].Role = Role("moderator")
	assert.Error(t, p.Validate())
}

func TestDeliberatingSeats_ExcludesRedTeam(t *testing.T) {
	p := validPlan()
	seats := p.DeliberatingSeats()
	require.Len(t, seats, 2)
	for _, seat := range seats {
		assert.NotEqual(t, RoleRedTeam, seat.Role)
	}
	// Plan order preserved.
	assert.Equal(t, RoleSynthesizer, seats[0].Role)
	assert.Equal(t, RolePragmatist, seats[1].Role)
}
