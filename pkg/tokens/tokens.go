// Package tokens provides tiktoken-based token counting utilities.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"conclave/pkg/config"
)

// Counter provides accurate token counting for different models.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a new token counter for the specified model. Accepts
// vendor-prefixed identifiers such as "anthropic/claude-sonnet-4-5". Claude
// and Gemini have no public tokenizer, so GPT-4 encoding is used as a close
// approximation for every vendor.
func NewCounter(modelID string) (*Counter, error) {
	vendor, _ := config.SplitModel(modelID)
	var tikModel tokenizer.Model
	switch vendor {
	case config.VendorOpenAI:
		tikModel = tokenizer.GPT4
	default:
		tikModel = tokenizer.GPT4
	}

	codec, err := tokenizer.ForModel(tikModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", modelID, err)
	}

	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if c.codec == nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}

	return count
}

// CountMessages returns the token count of the concatenated message contents.
func (c *Counter) CountMessages(contents []string) int {
	return c.Count(strings.Join(contents, "\n"))
}

//nolint:gochecknoglobals // Codec construction is expensive, share one instance
var (
	defaultCounter *Counter
	defaultOnce    sync.Once
)

// CountSimple provides a simple token counting function without requiring a
// Counter instance. Uses GPT-4 encoding.
func CountSimple(text string) int {
	defaultOnce.Do(func() {
		defaultCounter, _ = NewCounter(config.DefaultModel)
	})
	if defaultCounter == nil {
		return len(text) / 4
	}
	return defaultCounter.Count(text)
}

// WithinLimit checks if text fits within the specified token limit.
func (c *Counter) WithinLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Truncate trims text to fit within the specified token limit. This is a
// rough approximation that truncates by characters, not token boundaries.
func (c *Counter) Truncate(text string, limit int) string {
	currentTokens := c.Count(text)
	if currentTokens <= limit {
		return text
	}

	ratio := float64(limit) / float64(currentTokens)
	charLimit := int(float64(len(text)) * ratio * 0.9) // 0.9 safety margin

	if charLimit >= len(text) {
		return text
	}

	return text[:charLimit] + "..."
}
