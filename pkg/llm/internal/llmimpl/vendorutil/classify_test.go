package vendorutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"conclave/pkg/llm/llmerrors"
)

func TestClassify_Nil(t *testing.T) {
	if Classify(nil, "anthropic") != nil {
		t.Error("nil error should classify to nil")
	}
}

func TestClassify_ContextErrors(t *testing.T) {
	err := Classify(fmt.Errorf("post failed: %w", context.DeadlineExceeded), "openai")
	if err.Type != llmerrors.ErrorTypeTransient {
		t.Errorf("deadline exceeded should be transient, got %s", err.Type)
	}

	err = Classify(context.Canceled, "openai")
	if err.Type != llmerrors.ErrorTypeTransient {
		t.Errorf("cancellation should be transient, got %s", err.Type)
	}
}

func TestClassify_StatusCodes(t *testing.T) {
	tests := []struct {
		msg  string
		want llmerrors.ErrorType
	}{
		{"POST 429 Too Many Requests", llmerrors.ErrorTypeRateLimit},
		{"status 401: invalid x-api-key", llmerrors.ErrorTypeAuth},
		{"unexpected 503 from upstream", llmerrors.ErrorTypeTransient},
		{"400 bad request: prompt too long", llmerrors.ErrorTypeBadPrompt},
	}
	for _, tt := range tests {
		got := Classify(errors.New(tt.msg), "google")
		if got.Type != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.msg, got.Type, tt.want)
		}
	}
}

func TestClassify_TextPatterns(t *testing.T) {
	tests := []struct {
		msg  string
		want llmerrors.ErrorType
	}{
		{"connection reset by peer", llmerrors.ErrorTypeTransient},
		{"unexpected EOF", llmerrors.ErrorTypeTransient},
		{"quota exceeded for project", llmerrors.ErrorTypeRateLimit},
		{"missing api key", llmerrors.ErrorTypeAuth},
		{"something inscrutable", llmerrors.ErrorTypeUnknown},
	}
	for _, tt := range tests {
		got := Classify(errors.New(tt.msg), "ollama")
		if got.Type != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.msg, got.Type, tt.want)
		}
	}
}

func TestClassify_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Classify(cause, "ollama")
	if !errors.Is(err, cause) {
		t.Error("classified error should wrap the original cause")
	}
}
