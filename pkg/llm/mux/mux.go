// Package mux provides LLM client construction with middleware chain
// assembly, dispatching on the vendor prefix of model identifiers.
package mux

import (
	"context"
	"fmt"
	"sync"

	"conclave/pkg/config"
	"conclave/pkg/llm"
	"conclave/pkg/llm/internal/llmimpl/anthropic"
	"conclave/pkg/llm/internal/llmimpl/google"
	"conclave/pkg/llm/internal/llmimpl/ollama"
	"conclave/pkg/llm/internal/llmimpl/openai"
	"conclave/pkg/llm/llmerrors"
	"conclave/pkg/llm/middleware/circuit"
	"conclave/pkg/llm/middleware/metrics"
	"conclave/pkg/llm/middleware/ratelimit"
	"conclave/pkg/llm/middleware/retry"
	"conclave/pkg/llm/middleware/timeout"
	"conclave/pkg/logx"
)

// Mux creates and caches LLM clients keyed by vendor-prefixed model
// identifier. Every client carries the full middleware chain. Safe for
// concurrent use.
type Mux struct {
	cfg         *config.Config
	recorder    metrics.Recorder
	logger      *logx.Logger
	retryPolicy *retry.Policy
	breakers    map[string]circuit.Breaker    // per-vendor circuit breakers
	limiters    map[string]*ratelimit.Limiter // per-vendor rate/budget limiters, nil when uncapped

	mu      sync.Mutex
	clients map[string]llm.Client
}

// New creates a Mux from the given configuration. When recorder is nil a
// Prometheus recorder is installed.
func New(cfg *config.Config, recorder metrics.Recorder) *Mux {
	if recorder == nil {
		recorder = metrics.NewPrometheusRecorder()
	}

	// One circuit breaker per vendor so an Anthropic outage doesn't block
	// OpenAI or local models. Limiters follow the same per-vendor split.
	breakers := make(map[string]circuit.Breaker)
	var limiters map[string]*ratelimit.Limiter
	limitCfg := ratelimit.Config{
		TokensPerMinute: cfg.Limits.TokensPerMinute,
		DailyBudgetUSD:  cfg.Limits.DailyBudgetUSD,
	}
	if limitCfg.Enabled() {
		limiters = make(map[string]*ratelimit.Limiter)
	}
	for _, vendor := range []string{config.VendorAnthropic, config.VendorOpenAI, config.VendorGoogle, config.VendorOllama} {
		breakers[vendor] = circuit.New(circuit.DefaultConfig)
		if limiters != nil {
			limiters[vendor] = ratelimit.New(vendor, limitCfg)
		}
	}

	return &Mux{
		cfg:         cfg,
		recorder:    recorder,
		logger:      logx.NewLogger("mux"),
		retryPolicy: retry.NewPolicy(retry.DefaultConfig, nil),
		breakers:    breakers,
		limiters:    limiters,
		clients:     make(map[string]llm.Client),
	}
}

// Client returns the middleware-wrapped client for the given model
// identifier, building and caching it on first use.
func (m *Mux) Client(modelID string) (llm.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[modelID]; ok {
		return client, nil
	}

	raw, err := m.buildRaw(modelID)
	if err != nil {
		return nil, err
	}

	vendor, _ := config.SplitModel(modelID)
	middlewares := []llm.Middleware{metrics.Middleware(m.recorder, nil, m.logger)}
	if limiter := m.limiters[vendor]; limiter != nil {
		middlewares = append(middlewares, ratelimit.Middleware(limiter))
	}
	middlewares = append(middlewares,
		circuit.Middleware(m.breakers[vendor]),
		retry.Middleware(m.retryPolicy),
		timeout.Middleware(m.cfg.Transport.RequestTimeout),
	)
	client := llm.Chain(raw, middlewares...)

	m.clients[modelID] = client
	return client, nil
}

// buildRaw constructs the vendor SDK client for a model identifier.
// Callers must hold m.mu.
func (m *Mux) buildRaw(modelID string) (llm.Client, error) {
	vendor, model := config.SplitModel(modelID)

	switch vendor {
	case config.VendorAnthropic:
		key := m.cfg.Transport.AnthropicAPIKey
		if key == "" {
			return nil, llmerrors.NewError(llmerrors.ErrorTypeAuth, fmt.Sprintf("missing Anthropic API key for model %s", modelID))
		}
		return anthropic.New(key, modelID, model), nil

	case config.VendorOpenAI:
		key := m.cfg.Transport.OpenAIAPIKey
		if key == "" {
			return nil, llmerrors.NewError(llmerrors.ErrorTypeAuth, fmt.Sprintf("missing OpenAI API key for model %s", modelID))
		}
		return openai.New(key, modelID, model), nil

	case config.VendorGoogle:
		key := m.cfg.Transport.GoogleAPIKey
		if key == "" {
			return nil, llmerrors.NewError(llmerrors.ErrorTypeAuth, fmt.Sprintf("missing Google API key for model %s", modelID))
		}
		return google.New(key, modelID, model), nil

	case config.VendorOllama:
		return ollama.New(m.cfg.Transport.OllamaHost, modelID, model), nil

	default:
		return nil, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("unknown vendor %q in model %s", vendor, modelID))
	}
}

// Call implements llm.Transport. It resolves the client for modelID, runs the
// completion, and reports the model that actually served the request.
func (m *Mux) Call(ctx context.Context, messages []llm.Message, modelID string) (string, string, error) {
	client, err := m.Client(modelID)
	if err != nil {
		return "", "", err
	}

	resp, err := client.Complete(ctx, llm.NewCompletionRequest(messages))
	if err != nil {
		return "", client.ModelName(), err
	}
	return resp.Content, client.ModelName(), nil
}

var _ llm.Transport = (*Mux)(nil)
