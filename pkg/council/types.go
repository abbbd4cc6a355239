// Package council defines the shared data model for deliberative council
// execution: roles, interaction patterns, execution plans, and round records.
package council

import (
	"fmt"
)

// Role identifies a council seat's function. The set is closed; the executor
// dispatches on it exhaustively.
type Role string

const (
	// RoleSynthesizer integrates perspectives into a coherent whole.
	RoleSynthesizer Role = "synthesizer"
	// RoleDomainExpert contributes deep knowledge in the relevant field.
	RoleDomainExpert Role = "domain_expert"
	// RolePragmatist focuses on feasibility and resource constraints.
	RolePragmatist Role = "pragmatist"
	// RoleCreative contributes novel approaches and lateral thinking.
	RoleCreative Role = "creative"
	// RoleRedTeam is the single adversarial critic. It never deliberates.
	RoleRedTeam Role = "red_team"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleSynthesizer, RoleDomainExpert, RolePragmatist, RoleCreative, RoleRedTeam:
		return true
	default:
		return false
	}
}

// Pattern identifies the interaction pattern that shapes one round of
// deliberation.
type Pattern string

const (
	// PatternParallel has every seat respond independently, then one critique.
	PatternParallel Pattern = "parallel"
	// PatternSequential refines a single draft seat by seat, critic interleaved.
	PatternSequential Pattern = "sequential"
	// PatternDebate has positions stated, attacked, then defended.
	PatternDebate Pattern = "debate"
)

// Valid reports whether the pattern is one of the closed set.
func (p Pattern) Valid() bool {
	switch p {
	case PatternParallel, PatternSequential, PatternDebate:
		return true
	default:
		return false
	}
}

// Flavor identifies the critic's attack vector.
type Flavor string

const (
	FlavorLogical     Flavor = "logical"
	FlavorFeasibility Flavor = "feasibility"
	FlavorEthical     Flavor = "ethical"
	FlavorSteelman    Flavor = "steelman"
)

// Valid reports whether the flavor is one of the closed set.
func (f Flavor) Valid() bool {
	switch f {
	case FlavorLogical, FlavorFeasibility, FlavorEthical, FlavorSteelman:
		return true
	default:
		return false
	}
}

// Complexity is a Cynefin-adjacent classification of a query.
type Complexity string

const (
	ComplexitySimple      Complexity = "simple"
	ComplexityComplicated Complexity = "complicated"
	ComplexityComplex     Complexity = "complex"
	ComplexityChaotic     Complexity = "chaotic"
)

// Valid reports whether the complexity is one of the closed set.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityComplicated, ComplexityComplex, ComplexityChaotic:
		return true
	default:
		return false
	}
}

// Seat is the configuration for a single council seat. Immutable once the
// plan is produced.
type Seat struct {
	Role         Role   `json:"role"`
	SystemPrompt string `json:"system_prompt"`
	// ModelHint, when set, overrides all routing for this seat.
	ModelHint string `json:"model_hint,omitempty"`
}

// Plan is the validated output of triage: the full configuration for one
// deliberation run. The executor treats it as immutable input.
type Plan struct {
	ReconstructedQuery   string     `json:"reconstructed_query"`
	Complexity           Complexity `json:"complexity"`
	ShortCircuitAllowed  bool       `json:"short_circuit_allowed"`
	Council              []Seat     `json:"council"`
	Pattern              Pattern    `json:"loop_grammar"`
	RoundCount           int        `json:"loop_count"`
	Flavor               Flavor     `json:"red_team_flavor"`
	AllowEarlyExit       bool       `json:"allow_early_exit"`
	SynthesisInstruction string     `json:"synthesis_instruction"`
}

// Plan size and round bounds.
const (
	MinSeats  = 3
	MaxSeats  = 5
	MinRounds = 2
	MaxRounds = 5
)

// ValidationError reports a plan invariant violation. Plans that fail
// validation must never reach the executor.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan: %s: %s", e.Field, e.Message)
}

// Validate checks the plan invariants: seat count, exactly one red team
// seat, round bounds, enum membership, and the short-circuit precondition.
func (p *Plan) Validate() error {
	if !p.Complexity.Valid() {
		return &ValidationError{Field: "complexity", Message: fmt.Sprintf("unknown value %q", p.Complexity)}
	}
	if !p.Pattern.Valid() {
		return &ValidationError{Field: "loop_grammar", Message: fmt.Sprintf("unknown value %q", p.Pattern)}
	}
	if !p.Flavor.Valid() {
		return &ValidationError{Field: "red_team_flavor", Message: fmt.Sprintf("unknown value %q", p.Flavor)}
	}

	if len(p.Council) < MinSeats || len(p.Council) > MaxSeats {
		return &ValidationError{
			Field:   "council",
			Message: fmt.Sprintf("must have %d-%d seats, got %d", MinSeats, MaxSeats, len(p.Council)),
		}
	}

	redTeamCount := 0
	for i := range p.Council {
		seat := &p.Council[i]
		if !seat.Role.Valid() {
			return &ValidationError{
				Field:   "council",
				Message: fmt.Sprintf("seat %d has unknown role %q", i, seat.Role),
			}
		}
		if seat.Role == RoleRedTeam {
			redTeamCount++
		}
	}
	if redTeamCount != 1 {
		return &ValidationError{
			Field:   "council",
			Message: fmt.Sprintf("must have exactly 1 red_team seat, got %d", redTeamCount),
		}
	}

	if p.RoundCount < MinRounds || p.RoundCount > MaxRounds {
		return &ValidationError{
			Field:   "loop_count",
			Message: fmt.Sprintf("must be %d-%d, got %d", MinRounds, MaxRounds, p.RoundCount),
		}
	}

	if p.ShortCircuitAllowed && p.Complexity != ComplexitySimple {
		return &ValidationError{
			Field:   "short_circuit_allowed",
			Message: fmt.Sprintf("requires complexity=simple, got %s", p.Complexity),
		}
	}

	return nil
}

// DeliberatingSeats returns the council seats excluding the red team seat,
// in plan order.
func (p *Plan) DeliberatingSeats() []Seat {
	seats := make([]Seat, 0, len(p.Council))
	for i := range p.Council {
		if p.Council[i].Role != RoleRedTeam {
			seats = append(seats, p.Council[i])
		}
	}
	return seats
}

// RoundRecord captures one completed round of deliberation. Immutable after
// creation; ownership transfers to the executor's transcript.
type RoundRecord struct {
	Number        int             `json:"round_number"`
	Responses     map[Role]string `json:"responses"`
	ModelsUsed    map[Role]string `json:"models_used"`
	Critique      string          `json:"critique"`
	CritiqueModel string          `json:"critique_model"`
	DeltaDetected bool            `json:"delta_detected"`
}

// Result is the outcome of one full deliberation run. Transcript and Plan
// are retained only when observability is enabled; the flag never changes
// routing, convergence, or termination decisions.
type Result struct {
	FinalResponse  string        `json:"final_response"`
	RoundsExecuted int           `json:"rounds_executed"`
	EarlyExit      bool          `json:"early_exit"`
	Transcript     []RoundRecord `json:"transcript,omitempty"`
	Plan           *Plan         `json:"plan,omitempty"`
}
