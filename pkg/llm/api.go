// Package llm provides the model-call transport boundary: message types, the
// vendor client interface, middleware composition, and the vendor mux.
package llm

import (
	"context"
	"fmt"
)

// Role represents the role of a message in a conversation.
type Role string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem Role = "system"
	// RoleUser indicates a message from the human user.
	RoleUser Role = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant Role = "assistant"
)

// Message is one entry of an ordered conversation.
type Message struct {
	Role    Role
	Content string
}

// Temperature defaults. Deliberation calls use the default; judge calls run
// deterministic.
const (
	TemperatureDefault       float32 = 0.3
	TemperatureDeterministic float32 = 0.0
)

// DefaultMaxTokens bounds completion length when the caller does not care.
const DefaultMaxTokens = 4096

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content    string // Main response text
	StopReason string // Why the response stopped: "end_turn", "max_tokens", etc.
}

// Client is one model's completion endpoint. Implementations are bound to a
// single model identifier; multi-model dispatch happens in the Mux.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the vendor-prefixed model identifier this client serves.
	ModelName() string
}

// Transport is the boundary the deliberation core calls. It owns retries,
// backoff, and error normalization; the core treats any returned error as
// fatal to the in-flight round.
type Transport interface {
	// Call sends an ordered message list to the given model and returns the
	// response text plus the identifier of the model that actually answered.
	Call(ctx context.Context, messages []Message, model string) (text, modelUsed string, err error)
}

// NewCompletionRequest creates a completion request with default values.
func NewCompletionRequest(messages []Message) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ValidateMessages performs basic request hygiene shared by vendor clients.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("message list cannot be empty")
	}
	for i := range messages {
		switch messages[i].Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("invalid role %q at index %d", messages[i].Role, i)
		}
	}
	return nil
}
