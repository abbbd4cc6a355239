// Package ollama provides the local Ollama client implementation for the
// llm.Client interface.
package ollama

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"conclave/pkg/llm"
	"conclave/pkg/llm/internal/llmimpl/vendorutil"
	"conclave/pkg/llm/llmerrors"
)

// Client wraps the Ollama HTTP API to implement llm.Client.
type Client struct {
	client  *api.Client
	model   string
	modelID string
}

// New creates an Ollama client bound to one model. host is the base URL of
// the Ollama server (e.g. "http://localhost:11434").
func New(host, modelID, model string) llm.Client {
	parsedURL, err := url.Parse(host)
	if err != nil || parsedURL.Host == "" {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}
	return &Client{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		model:   model,
		modelID: modelID,
	}
}

// Complete implements the llm.Client interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := llm.ValidateMessages(in.Messages); err != nil {
		return llm.CompletionResponse{}, err
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		messages = append(messages, api.Message{
			Role:    string(in.Messages[i].Role),
			Content: in.Messages[i].Content,
		})
	}

	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	stream := false // Complete never streams
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": maxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return llm.CompletionResponse{}, vendorutil.Classify(err, "ollama")
	}
	if response.Message.Content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from Ollama")
	}

	return llm.CompletionResponse{
		Content:    response.Message.Content,
		StopReason: stopReason(&response),
	}, nil
}

// stopReason converts Ollama's done_reason to the shared stop reason format.
func stopReason(resp *api.ChatResponse) string {
	if !resp.Done {
		return "incomplete"
	}
	switch resp.DoneReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return resp.DoneReason
	}
}

// ModelName returns the vendor-prefixed model identifier for this client.
func (c *Client) ModelName() string {
	return c.modelID
}
