package llm

import (
	"context"
	"fmt"
	"testing"
)

// mockClient is a minimal Client for chain tests.
type mockClient struct {
	completeFunc  func(context.Context, CompletionRequest) (CompletionResponse, error)
	modelNameFunc func() string
}

func (m *mockClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return m.completeFunc(ctx, req)
}

func (m *mockClient) ModelName() string {
	if m.modelNameFunc != nil {
		return m.modelNameFunc()
	}
	return "mock-model"
}

// TestWrapClient tests the WrapClient helper function.
func TestWrapClient(t *testing.T) {
	completeCalled := false
	modelNameCalled := false

	client := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			completeCalled = true
			return CompletionResponse{Content: "wrapped"}, nil
		},
		func() string {
			modelNameCalled = true
			return "wrapped-model"
		},
	)

	ctx := context.Background()
	req := NewCompletionRequest([]Message{NewUserMessage("test")})

	resp, err := client.Complete(ctx, req)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !completeCalled {
		t.Error("Complete function was not called")
	}
	if resp.Content != "wrapped" {
		t.Errorf("expected 'wrapped', got %q", resp.Content)
	}

	modelName := client.ModelName()
	if !modelNameCalled {
		t.Error("ModelName function was not called")
	}
	if modelName != "wrapped-model" {
		t.Errorf("expected 'wrapped-model', got %q", modelName)
	}
}

func transformMiddleware(fn func(string) string) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				if err != nil {
					return resp, err
				}
				resp.Content = fn(resp.Content)
				return resp, nil
			},
			func() string {
				return next.ModelName()
			},
		)
	}
}

// TestChainSingleMiddleware tests chaining with a single middleware.
func TestChainSingleMiddleware(t *testing.T) {
	base := &mockClient{
		completeFunc: func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
	}

	client := Chain(base, transformMiddleware(func(s string) string { return "prefix:" + s }))

	resp, err := client.Complete(context.Background(), NewCompletionRequest([]Message{NewUserMessage("test")}))
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if resp.Content != "prefix:base" {
		t.Errorf("expected 'prefix:base', got %q", resp.Content)
	}
}

// TestChainMultipleMiddlewares verifies ordering: earlier middlewares wrap
// outermost.
func TestChainMultipleMiddlewares(t *testing.T) {
	base := &mockClient{
		completeFunc: func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
	}

	mw1 := transformMiddleware(func(s string) string { return "mw1:" + s })
	mw2 := transformMiddleware(func(s string) string { return s + ":mw2" })
	mw3 := transformMiddleware(func(s string) string { return "[" + s + "]" })

	client := Chain(base, mw1, mw2, mw3)

	resp, err := client.Complete(context.Background(), NewCompletionRequest([]Message{NewUserMessage("test")}))
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Response transformation: base="base" -> mw3="[base]" -> mw2="[base]:mw2" -> mw1="mw1:[base]:mw2"
	expected := "mw1:[base]:mw2"
	if resp.Content != expected {
		t.Errorf("expected %q, got %q", expected, resp.Content)
	}
}

// TestChainRequestModification tests middleware that modifies requests.
func TestChainRequestModification(t *testing.T) {
	base := &mockClient{
		completeFunc: func(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{
				Content: fmt.Sprintf("temp=%.1f", req.Temperature),
			}, nil
		},
	}

	tempMiddleware := func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				req.Temperature = 0.9
				return next.Complete(ctx, req)
			},
			func() string {
				return next.ModelName()
			},
		)
	}

	client := Chain(base, tempMiddleware)

	resp, err := client.Complete(context.Background(), NewCompletionRequest([]Message{NewUserMessage("test")}))
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if resp.Content != "temp=0.9" {
		t.Errorf("expected 'temp=0.9', got %q", resp.Content)
	}
}

// TestChainNoMiddleware verifies that an empty chain returns the base client.
func TestChainNoMiddleware(t *testing.T) {
	base := &mockClient{
		completeFunc: func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
	}

	client := Chain(base)

	resp, err := client.Complete(context.Background(), NewCompletionRequest([]Message{NewUserMessage("test")}))
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if resp.Content != "base" {
		t.Errorf("expected 'base', got %q", resp.Content)
	}
}
