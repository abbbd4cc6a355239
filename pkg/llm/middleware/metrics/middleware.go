// Package metrics provides metrics middleware for LLM clients.
package metrics

import (
	"context"
	"errors"
	"time"

	"conclave/pkg/config"
	"conclave/pkg/llm"
	"conclave/pkg/llm/llmerrors"
	"conclave/pkg/llm/middleware/circuit"
	"conclave/pkg/logx"
	"conclave/pkg/tokens"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// UsageExtractor is a function that extracts token usage from a request and response.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// DefaultUsageExtractor provides a default implementation using TikToken for token counting.
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	var promptText string
	for i := range req.Messages {
		promptText += req.Messages[i].Content + "\n"
	}
	promptTokens = tokens.CountSimple(promptText)
	completionTokens = tokens.CountSimple(resp.Content)

	return promptTokens, completionTokens
}

// Middleware returns a middleware function that records metrics for LLM operations.
// It tracks request latency, token usage, cost, success/failure rates, and error types.
func Middleware(recorder Recorder, usageExtractor UsageExtractor, logger *logx.Logger) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}

	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()

				modelID := next.ModelName()
				vendor, _ := config.SplitModel(modelID)
				role := llm.RoleFromContext(ctx)

				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				var promptTokens, completionTokens int
				var costUSD float64
				if err == nil {
					promptTokens, completionTokens = usageExtractor(req, resp)
					costUSD = config.EstimateCostUSD(modelID, promptTokens, completionTokens)
				}

				errorType := ""
				if err != nil {
					errorType = getErrorType(err)
				}

				recorder.ObserveRequest(
					modelID,
					vendor,
					role,
					promptTokens,
					completionTokens,
					costUSD,
					err == nil,
					errorType,
					duration,
				)

				if logger != nil {
					status := statusSuccess
					if err != nil {
						status = statusError
					}
					totalTokens := promptTokens + completionTokens
					logger.Debug("LLM request: model=%s role=%s tokens=%d+%d=%d status=%s duration=%dms",
						modelID, role, promptTokens, completionTokens, totalTokens, status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
			},
			func() string {
				return next.ModelName()
			},
		)
	}
}

// getErrorType classifies errors for metrics labeling.
func getErrorType(err error) string {
	if err == nil {
		return ""
	}

	var circuitErr *circuit.Error
	if errors.As(err, &circuitErr) {
		return "circuit_breaker"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var llmErr *llmerrors.Error
	if errors.As(err, &llmErr) {
		return llmErr.Type.String()
	}
	return "unknown"
}
