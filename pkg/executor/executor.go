// Package executor runs council deliberations: it owns the round loop,
// dispatches to the interaction-pattern grammars, applies short-circuit and
// early-exit rules, and hands the transcript to synthesis.
package executor

import (
	"context"
	"fmt"

	"conclave/pkg/council"
	"conclave/pkg/llm"
	"conclave/pkg/logx"
	"conclave/pkg/routing"
)

// Executor drives one deliberation run per Execute call. Safe for concurrent
// use; all per-run state lives on the stack.
type Executor struct {
	transport     llm.Transport
	router        routing.Strategy
	delta         Detector
	defaultModel  string
	observability bool
	log           *logx.Logger
}

// Options configures an Executor. Router may be nil (everything routes to
// DefaultModel); Delta may be nil (an LLM judge on JudgeModel is installed).
type Options struct {
	Router        routing.Strategy
	Delta         Detector
	DefaultModel  string
	JudgeModel    string
	Observability bool
}

// New creates an Executor over the given transport.
func New(transport llm.Transport, opts Options) *Executor {
	delta := opts.Delta
	if delta == nil {
		judgeModel := opts.JudgeModel
		if judgeModel == "" {
			judgeModel = opts.DefaultModel
		}
		delta = NewJudgeDelta(transport, judgeModel)
	}
	return &Executor{
		transport:     transport,
		router:        opts.Router,
		delta:         delta,
		defaultModel:  opts.DefaultModel,
		observability: opts.Observability,
		log:           logx.NewLogger("executor"),
	}
}

// roundInput is the per-round context handed to a grammar.
type roundInput struct {
	query         string
	round         int // 1-indexed
	seats         []council.Seat // deliberating seats, plan order
	flavor        council.Flavor
	prior         map[council.Role]string // nil on round 1
	priorCritique string                  // "" on round 1; consumed by PARALLEL only
}

// Execute runs the plan against the query and returns the synthesized
// result. The plan must already satisfy its invariants; Execute re-checks
// them and refuses to run otherwise.
func (e *Executor) Execute(ctx context.Context, plan *council.Plan, query string) (*council.Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	// Short-circuit path: one boundary call, no council.
	if plan.ShortCircuitAllowed && plan.Complexity == council.ComplexitySimple {
		e.log.Debug("short-circuit: complexity=%s, skipping council", plan.Complexity)
		messages := []llm.Message{
			llm.NewSystemMessage(plan.SynthesisInstruction),
			llm.NewUserMessage(plan.ReconstructedQuery),
		}
		text, _, err := e.transport.Call(llm.WithRole(ctx, "synthesis"), messages, e.defaultModel)
		if err != nil {
			return nil, fmt.Errorf("short-circuit call failed: %w", err)
		}
		return &council.Result{
			FinalResponse:  text,
			RoundsExecuted: 0,
			EarlyExit:      true,
		}, nil
	}

	seats := plan.DeliberatingSeats()

	var transcript []council.RoundRecord
	var prior map[council.Role]string
	priorCritique := ""
	roundsExecuted := 0
	earlyExit := false
	var lastRecord *council.RoundRecord

	for round := 1; round <= plan.RoundCount; round++ {
		in := &roundInput{
			query:         plan.ReconstructedQuery,
			round:         round,
			seats:         seats,
			flavor:        plan.Flavor,
			prior:         prior,
			priorCritique: priorCritique,
		}

		var record council.RoundRecord
		var err error
		switch plan.Pattern {
		case council.PatternParallel:
			record, err = e.runParallel(ctx, in)
		case council.PatternSequential:
			record, err = e.runSequential(ctx, in)
		case council.PatternDebate:
			record, err = e.runDebate(ctx, in)
		default:
			err = fmt.Errorf("unknown interaction pattern %q", plan.Pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("round %d failed: %w", round, err)
		}

		roundsExecuted = round
		lastRecord = &record
		if e.observability {
			transcript = append(transcript, record)
		}

		prior = record.Responses
		priorCritique = record.Critique

		// Early exit needs the flag, at least two rounds, and no material
		// change. Round 1 has no real prior, so the floor is never bypassed.
		if plan.AllowEarlyExit && round >= 2 && !record.DeltaDetected {
			e.log.Debug("converged on round %d, exiting early", round)
			earlyExit = true
			break
		}
	}

	// Synthesis needs round content even when observability kept no
	// transcript: fall back to a minimal record of the last round.
	synthesisRecords := transcript
	if len(synthesisRecords) == 0 && lastRecord != nil {
		synthesisRecords = []council.RoundRecord{{
			Number:        roundsExecuted,
			Responses:     lastRecord.Responses,
			Critique:      lastRecord.Critique,
			DeltaDetected: true,
		}}
	}

	finalResponse, err := e.synthesize(ctx, plan, query, synthesisRecords)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	result := &council.Result{
		FinalResponse:  finalResponse,
		RoundsExecuted: roundsExecuted,
		EarlyExit:      earlyExit,
	}
	if e.observability {
		result.Transcript = transcript
		result.Plan = plan
	}
	return result, nil
}

// detectDelta runs the configured detector. A nil prior is always "changed".
func (e *Executor) detectDelta(ctx context.Context, prior, current map[council.Role]string) (bool, error) {
	if prior == nil {
		return true, nil
	}
	return e.delta.Detect(ctx, prior, current)
}

// callSeat issues one transport call on behalf of a role.
func (e *Executor) callSeat(ctx context.Context, role council.Role, messages []llm.Message, model string) (text, used string, err error) {
	return e.transport.Call(llm.WithRole(ctx, string(role)), messages, model)
}
