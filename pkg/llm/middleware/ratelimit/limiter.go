// Package ratelimit provides per-vendor rate limiting and daily budget
// enforcement for LLM API calls with a token bucket algorithm.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"conclave/pkg/llm/llmerrors"
)

// ErrBudgetExceeded is returned when the daily budget limit is exceeded.
// Not retryable; the limit resets at local midnight.
var ErrBudgetExceeded = errors.New("daily budget exceeded")

// Config caps a vendor's usage. A zero value disables that cap.
type Config struct {
	// TokensPerMinute bounds estimated token throughput.
	TokensPerMinute int
	// DailyBudgetUSD bounds estimated spend per calendar day.
	DailyBudgetUSD float64
}

// Enabled reports whether any cap is configured.
func (c Config) Enabled() bool {
	return c.TokensPerMinute > 0 || c.DailyBudgetUSD > 0
}

// Limiter enforces token throughput and daily budget limits for one vendor.
type Limiter struct {
	mu sync.Mutex

	vendor          string
	tokensPerMinute int
	dailyBudgetUSD  float64

	currentTokens int
	spentUSD      float64
	lastRefill    time.Time
	resetTimer    *time.Timer
	closed        bool
}

// New creates a limiter for the given vendor. The token bucket starts full.
func New(vendor string, cfg Config) *Limiter {
	l := &Limiter{
		vendor:          vendor,
		tokensPerMinute: cfg.TokensPerMinute,
		dailyBudgetUSD:  cfg.DailyBudgetUSD,
		currentTokens:   cfg.TokensPerMinute,
		lastRefill:      time.Now(),
	}
	if l.dailyBudgetUSD > 0 {
		l.scheduleDailyReset()
	}
	return l
}

// Reserve checks the budget and takes the estimated tokens from the bucket.
func (l *Limiter) Reserve(tokens int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dailyBudgetUSD > 0 && l.spentUSD >= l.dailyBudgetUSD {
		return fmt.Errorf("%s: %w (spent $%.2f of $%.2f)", l.vendor, ErrBudgetExceeded, l.spentUSD, l.dailyBudgetUSD)
	}

	if l.tokensPerMinute > 0 {
		l.refillTokens()
		if l.currentTokens < tokens {
			return llmerrors.NewError(llmerrors.ErrorTypeRateLimit,
				fmt.Sprintf("%s: token rate limit exceeded (%d requested, %d available)", l.vendor, tokens, l.currentTokens))
		}
		l.currentTokens -= tokens
	}

	return nil
}

// RecordSpend adds the estimated cost of a completed request to the daily
// total. Requests already in flight are never rejected retroactively.
func (l *Limiter) RecordSpend(costUSD float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spentUSD += costUSD
}

// Status returns the current bucket level and daily spend.
func (l *Limiter) Status() (tokens int, spentUSD float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillTokens()
	return l.currentTokens, l.spentUSD
}

// ResetDaily resets the daily budget and refills the token bucket.
func (l *Limiter) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.spentUSD = 0
	l.currentTokens = l.tokensPerMinute
	l.lastRefill = time.Now()
}

// Close stops the daily reset timer. A fired callback will not re-arm it.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.resetTimer != nil {
		l.resetTimer.Stop()
	}
}

// refillTokens credits the bucket for elapsed whole minutes. Callers must
// hold l.mu.
func (l *Limiter) refillTokens() {
	if l.tokensPerMinute <= 0 {
		return
	}

	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	if elapsed >= time.Minute {
		minutes := int(elapsed / time.Minute)
		l.currentTokens += minutes * l.tokensPerMinute
		if l.currentTokens > l.tokensPerMinute {
			l.currentTokens = l.tokensPerMinute
		}
		l.lastRefill = l.lastRefill.Add(time.Duration(minutes) * time.Minute)
	}
}

// scheduleDailyReset arms the timer for the next local midnight. The callback
// re-arms from its own goroutine, so the timer field is written under l.mu.
func (l *Limiter) scheduleDailyReset() {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.resetTimer = time.AfterFunc(time.Until(nextMidnight), func() {
		l.ResetDaily()
		l.scheduleDailyReset()
	})
}
