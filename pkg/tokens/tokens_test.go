package tokens

import (
	"strings"
	"testing"

	"conclave/pkg/config"
)

func TestNewCounter(t *testing.T) {
	tests := []string{
		config.ModelGPT4o,
		config.ModelClaudeSonnet4,
		config.ModelGeminiFlash,
		"unknown/model", // Should default to gpt-4 encoding
	}

	for _, model := range tests {
		t.Run(model, func(t *testing.T) {
			counter, err := NewCounter(model)
			if err != nil {
				t.Errorf("NewCounter(%s) failed: %v", model, err)
			}
			if counter == nil {
				t.Errorf("NewCounter(%s) returned nil counter", model)
			}
		})
	}
}

func TestCount(t *testing.T) {
	counter, err := NewCounter(config.ModelGPT4o)
	if err != nil {
		t.Fatalf("Failed to create token counter: %v", err)
	}

	tests := []struct {
		text      string
		minTokens int
		maxTokens int
	}{
		{"", 0, 0},
		{"Hello", 1, 2},
		{"Hello world", 2, 3},
		{"This is a longer sentence with more words.", 8, 12},
		{strings.Repeat("word ", 100), 90, 110}, // ~100 tokens
	}

	for _, tt := range tests {
		t.Run(tt.text[:min(len(tt.text), 20)], func(t *testing.T) {
			tokens := counter.Count(tt.text)
			if tokens < tt.minTokens || tokens > tt.maxTokens {
				t.Errorf("Count(%q) = %d, want between %d and %d",
					tt.text, tokens, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestCountSimple(t *testing.T) {
	tokens := CountSimple("Hello world")
	if tokens < 2 || tokens > 3 {
		t.Errorf("CountSimple(\"Hello world\") = %d, want between 2 and 3", tokens)
	}
}

func TestWithinLimit(t *testing.T) {
	counter, err := NewCounter(config.ModelGPT4o)
	if err != nil {
		t.Fatalf("Failed to create token counter: %v", err)
	}

	tests := []struct {
		text     string
		limit    int
		expected bool
	}{
		{"short", 10, true},
		{"short", 1, true},
		{"", 0, true},
		{"a very long sentence that definitely exceeds a small token limit", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := counter.WithinLimit(tt.text, tt.limit)
			if result != tt.expected {
				t.Errorf("WithinLimit(%q, %d) = %v, want %v",
					tt.text, tt.limit, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	counter, err := NewCounter(config.ModelGPT4o)
	if err != nil {
		t.Fatalf("Failed to create token counter: %v", err)
	}

	longText := strings.Repeat("This is a sentence. ", 50)
	truncated := counter.Truncate(longText, 10)

	if len(truncated) >= len(longText) {
		t.Error("Truncate should have shortened the text")
	}

	tokens := counter.Count(truncated)
	if tokens > 15 { // Some margin for approximation
		t.Errorf("Truncated text has %d tokens, expected around 10", tokens)
	}
}
