// Package openai provides the OpenAI client implementation for the
// llm.Client interface.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"conclave/pkg/llm"
	"conclave/pkg/llm/internal/llmimpl/vendorutil"
	"conclave/pkg/llm/llmerrors"
)

// GPTClient wraps the OpenAI API client to implement llm.Client.
type GPTClient struct {
	client  openai.Client
	model   string
	modelID string
}

// New creates an OpenAI client bound to one model.
func New(apiKey, modelID, model string) llm.Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &GPTClient{
		client:  client,
		model:   model,
		modelID: modelID,
	}
}

// Complete implements the llm.Client interface.
func (c *GPTClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := llm.ValidateMessages(in.Messages); err != nil {
		return llm.CompletionResponse{}, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	maxTokens := int64(in.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxTokens),
		Temperature:         openai.Float(float64(in.Temperature)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, vendorutil.Classify(err, "openai")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from OpenAI API")
	}

	choice := resp.Choices[0]
	return llm.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
	}, nil
}

// ModelName returns the vendor-prefixed model identifier for this client.
func (c *GPTClient) ModelName() string {
	return c.modelID
}
