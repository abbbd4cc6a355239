package circuit

import (
	"context"
	"errors"

	"conclave/pkg/llm"
	"conclave/pkg/llm/llmerrors"
)

// Middleware wraps an LLM client with a circuit breaker. While the circuit is
// open, calls are rejected locally with *Error so a struggling vendor gets no
// traffic until the cooldown passes.
func Middleware(breaker Breaker) llm.Middleware {
	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				if !breaker.Allow() {
					return llm.CompletionResponse{}, &Error{State: breaker.GetState()}
				}

				resp, err := next.Complete(ctx, req)
				switch {
				case err == nil:
					breaker.Record(true)
				case countsAgainstVendor(err):
					breaker.Record(false)
				}

				return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
			},
			func() string {
				return next.ModelName()
			},
		)
	}
}

// countsAgainstVendor reports whether a failed call says anything about
// vendor health. Caller faults and local cancellation are ignored: a bad API
// key or an oversized prompt would otherwise open the circuit for requests
// that could have succeeded.
func countsAgainstVendor(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch llmerrors.TypeOf(err) {
	case llmerrors.ErrorTypeAuth, llmerrors.ErrorTypeBadPrompt:
		return false
	default:
		return true
	}
}
