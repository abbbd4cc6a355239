package ratelimit

import (
	"context"

	"conclave/pkg/config"
	"conclave/pkg/llm"
	"conclave/pkg/tokens"
)

// Middleware returns a middleware function that reserves estimated tokens
// before each request and records estimated spend after successful ones.
// Requests rejected by the limiter never reach the underlying client.
func Middleware(limiter *Limiter) llm.Middleware {
	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				promptEstimate := 0
				for i := range req.Messages {
					promptEstimate += tokens.CountSimple(req.Messages[i].Content)
				}

				// Worst case the completion runs to its cap.
				if err := limiter.Reserve(promptEstimate + req.MaxTokens); err != nil {
					return llm.CompletionResponse{}, err
				}

				resp, err := next.Complete(ctx, req)
				if err != nil {
					return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
				}

				completionTokens := tokens.CountSimple(resp.Content)
				limiter.RecordSpend(config.EstimateCostUSD(next.ModelName(), promptEstimate, completionTokens))

				return resp, nil
			},
			func() string {
				return next.ModelName()
			},
		)
	}
}
