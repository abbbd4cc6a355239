package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"conclave/pkg/llm"
	"conclave/pkg/llm/llmerrors"
)

func TestReserveWithinBucket(t *testing.T) {
	l := New("anthropic", Config{TokensPerMinute: 50000, DailyBudgetUSD: 200.0})
	defer l.Close()

	if err := l.Reserve(100); err != nil {
		t.Errorf("expected reserve to succeed, got error: %v", err)
	}

	tokens, spent := l.Status()
	if tokens != 50000-100 {
		t.Errorf("expected %d tokens left, got %d", 50000-100, tokens)
	}
	if spent != 0 {
		t.Errorf("expected no spend yet, got %.2f", spent)
	}
}

func TestReserveExhaustedBucket(t *testing.T) {
	l := New("anthropic", Config{TokensPerMinute: 100})
	defer l.Close()

	if err := l.Reserve(100); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	err := l.Reserve(1)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if llmerrors.TypeOf(err) != llmerrors.ErrorTypeRateLimit {
		t.Errorf("expected rate limit error type, got %v", err)
	}
}

func TestBudgetExceeded(t *testing.T) {
	l := New("openai", Config{DailyBudgetUSD: 1.0})
	defer l.Close()

	l.RecordSpend(1.5)

	err := l.Reserve(10)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}

	l.ResetDaily()
	if err := l.Reserve(10); err != nil {
		t.Errorf("expected reserve to succeed after reset, got %v", err)
	}
}

func TestUncappedLimiterNeverRejects(t *testing.T) {
	l := New("ollama", Config{})
	defer l.Close()

	for i := 0; i < 10; i++ {
		if err := l.Reserve(1 << 20); err != nil {
			t.Fatalf("uncapped limiter rejected: %v", err)
		}
	}
}

func TestCloseConcurrentWithUse(t *testing.T) {
	l := New("anthropic", Config{TokensPerMinute: 1000, DailyBudgetUSD: 5.0})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Reserve(10)
			l.RecordSpend(0.01)
			l.Status()
			l.ResetDaily()
		}()
	}
	l.Close()
	wg.Wait()

	// Closing twice is harmless, and a closed limiter still answers.
	l.Close()
	if err := l.Reserve(10); err != nil {
		t.Errorf("reserve after close failed: %v", err)
	}
}

type stubClient struct {
	calls int
}

func (s *stubClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.calls++
	return llm.CompletionResponse{Content: "ok", StopReason: "end_turn"}, nil
}

func (s *stubClient) ModelName() string { return "anthropic/claude-sonnet-4-5" }

func TestMiddlewareRejectsBeforeCall(t *testing.T) {
	l := New("anthropic", Config{DailyBudgetUSD: 1.0})
	defer l.Close()
	l.RecordSpend(2.0)

	stub := &stubClient{}
	client := Middleware(l)(stub)

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.Message{
		llm.NewUserMessage("hello"),
	}))
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("rejected request reached the client %d times", stub.calls)
	}
}

func TestMiddlewareRecordsSpend(t *testing.T) {
	l := New("anthropic", Config{DailyBudgetUSD: 100.0})
	defer l.Close()

	stub := &stubClient{}
	client := Middleware(l)(stub)

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.Message{
		llm.NewUserMessage("hello there"),
	}))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 call, got %d", stub.calls)
	}

	_, spent := l.Status()
	if spent <= 0 {
		t.Error("expected spend to be recorded")
	}
}
