// Package engine wires triage, routing, execution, and archival into a
// single entry point for running deliberations.
package engine

import (
	"context"
	"fmt"

	"conclave/pkg/archive"
	"conclave/pkg/config"
	"conclave/pkg/council"
	"conclave/pkg/executor"
	"conclave/pkg/llm"
	"conclave/pkg/llm/middleware/metrics"
	"conclave/pkg/llm/mux"
	"conclave/pkg/logx"
	"conclave/pkg/routing"
	"conclave/pkg/triage"
)

// Outcome is the result of one deliberation run. RunID is set only when the
// transcript was archived.
type Outcome struct {
	*council.Result
	RunID string
}

// Options overrides engine construction for embedding and tests. Zero value
// builds everything from the config.
type Options struct {
	// Transport replaces the vendor mux. Nil builds a mux from the config.
	Transport llm.Transport
	// Recorder replaces the metrics recorder used by the mux. Ignored when
	// Transport is set.
	Recorder metrics.Recorder
}

// Engine runs deliberations end to end: triage the query into a plan,
// execute the plan, archive the transcript when observability is on.
type Engine struct {
	cfg       *config.Config
	transport llm.Transport
	exec      *executor.Executor
	store     *archive.Store
	log       *logx.Logger
}

// New builds an Engine from a validated config.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = mux.New(cfg, opts.Recorder)
	}

	router, err := routing.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	exec := executor.New(transport, executor.Options{
		Router:        router,
		DefaultModel:  cfg.DefaultModel,
		JudgeModel:    cfg.JudgeModel,
		Observability: cfg.Observability,
	})

	var store *archive.Store
	if cfg.Observability && cfg.ArchivePath != "" {
		store, err = archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
	}

	return &Engine{
		cfg:       cfg,
		transport: transport,
		exec:      exec,
		store:     store,
		log:       logx.NewLogger("engine"),
	}, nil
}

// Run triages the query into an execution plan, deliberates, and returns
// the synthesized outcome.
func (e *Engine) Run(ctx context.Context, query string) (*Outcome, error) {
	plan, err := triage.Run(ctx, e.transport, query, e.cfg.TriageModel)
	if err != nil {
		return nil, err
	}
	e.log.Debug("plan: pattern=%s rounds=%d seats=%d complexity=%s",
		plan.Pattern, plan.RoundCount, len(plan.Council), plan.Complexity)

	result, err := e.exec.Execute(ctx, plan, query)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Result: result}
	if e.store != nil && result.Plan != nil {
		runID, err := e.store.SaveRun(ctx, query, result)
		if err != nil {
			// Archival never fails the run.
			e.log.Warn("failed to archive run: %v", err)
		} else {
			outcome.RunID = runID
		}
	}
	return outcome, nil
}

// RunWithPlan skips triage and executes a caller-supplied plan.
func (e *Engine) RunWithPlan(ctx context.Context, plan *council.Plan, query string) (*Outcome, error) {
	result, err := e.exec.Execute(ctx, plan, query)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{Result: result}
	if e.store != nil && result.Plan != nil {
		runID, err := e.store.SaveRun(ctx, query, result)
		if err != nil {
			e.log.Warn("failed to archive run: %v", err)
		} else {
			outcome.RunID = runID
		}
	}
	return outcome, nil
}

// Archive exposes the transcript store, or nil when archival is disabled.
func (e *Engine) Archive() *archive.Store {
	return e.store
}

// Close releases engine resources.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
