// Package google provides the Gemini client implementation for the
// llm.Client interface.
package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"conclave/pkg/llm"
	"conclave/pkg/llm/internal/llmimpl/vendorutil"
	"conclave/pkg/llm/llmerrors"
)

// GeminiClient wraps the Google genai client to implement llm.Client.
type GeminiClient struct {
	apiKey  string
	model   string
	modelID string
}

// New creates a Gemini client bound to one model.
func New(apiKey, modelID, model string) llm.Client {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		modelID: modelID,
	}
}

// Complete implements the llm.Client interface.
func (c *GeminiClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := llm.ValidateMessages(in.Messages); err != nil {
		return llm.CompletionResponse{}, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return llm.CompletionResponse{}, vendorutil.Classify(err, "google")
	}

	// System messages go into the system instruction; Gemini uses "model"
	// for the assistant role.
	var systemParts []string
	var contents []*genai.Content
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "must have at least one non-system message")
	}

	maxTokens := int32(in.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}
	temperature := in.Temperature
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
		Temperature:     &temperature,
	}
	if len(systemParts) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}

	result, err := client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return llm.CompletionResponse{}, vendorutil.Classify(err, "google")
	}
	text := result.Text()
	if text == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from Gemini API")
	}

	stopReason := ""
	if len(result.Candidates) > 0 {
		stopReason = string(result.Candidates[0].FinishReason)
	}
	return llm.CompletionResponse{
		Content:    text,
		StopReason: stopReason,
	}, nil
}

// ModelName returns the vendor-prefixed model identifier for this client.
func (c *GeminiClient) ModelName() string {
	return c.modelID
}
