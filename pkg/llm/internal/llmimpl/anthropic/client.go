// Package anthropic provides the Anthropic Claude client implementation for
// the llm.Client interface.
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"conclave/pkg/llm"
	"conclave/pkg/llm/internal/llmimpl/vendorutil"
	"conclave/pkg/llm/llmerrors"
)

// ClaudeClient wraps the Anthropic API client to implement llm.Client.
type ClaudeClient struct {
	client  anthropic.Client
	model   anthropic.Model
	modelID string // vendor-prefixed identifier, e.g. "anthropic/claude-sonnet-4-5"
}

// New creates a Claude client bound to one model. modelID is the
// vendor-prefixed identifier; model is the bare API model name.
func New(apiKey, modelID, model string) llm.Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeClient{
		client:  client,
		model:   anthropic.Model(model),
		modelID: modelID,
	}
}

// prepare extracts system messages into the top-level system parameter and
// merges consecutive same-role messages to satisfy Anthropic's strict
// user/assistant alternation requirement.
func prepare(messages []llm.Message) (systemPrompt string, alternating []llm.Message, err error) {
	if err := llm.ValidateMessages(messages); err != nil {
		return "", nil, err
	}

	var systemParts []string
	var rest []llm.Message
	for i := range messages {
		if messages[i].Role == llm.RoleSystem {
			systemParts = append(systemParts, messages[i].Content)
		} else {
			rest = append(rest, messages[i])
		}
	}
	systemPrompt = strings.Join(systemParts, "\n\n")

	if len(rest) == 0 {
		return "", nil, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "must have at least one non-system message")
	}

	// Merge consecutive same-role messages.
	merged := []llm.Message{rest[0]}
	for _, msg := range rest[1:] {
		last := &merged[len(merged)-1]
		if msg.Role == last.Role {
			last.Content = last.Content + "\n\n" + msg.Content
		} else {
			merged = append(merged, msg)
		}
	}

	// The API requires the conversation to open and close with a user turn.
	if merged[0].Role != llm.RoleUser {
		merged = append([]llm.Message{{Role: llm.RoleUser, Content: "(continue)"}}, merged...)
	}
	if merged[len(merged)-1].Role != llm.RoleUser {
		merged = append(merged, llm.Message{Role: llm.RoleUser, Content: "(continue)"})
	}

	return systemPrompt, merged, nil
}

// Complete implements the llm.Client interface.
func (c *ClaudeClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	systemPrompt, alternating, err := prepare(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "message preparation failed")
	}

	messages := make([]anthropic.MessageParam, 0, len(alternating))
	for i := range alternating {
		msg := &alternating[i]
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(in.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, vendorutil.Classify(err, "anthropic")
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from Claude API")
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return llm.CompletionResponse{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
	}, nil
}

// ModelName returns the vendor-prefixed model identifier for this client.
func (c *ClaudeClient) ModelName() string {
	return c.modelID
}
