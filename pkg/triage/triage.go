// Package triage turns a raw user query into a validated execution plan via
// a classification model call. All semantic reasoning happens in the model;
// this package only parses and validates its output.
package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"conclave/pkg/council"
	"conclave/pkg/llm"
)

// Err is the base error for triage failures (transport or malformed JSON).
var Err = errors.New("triage failed")

// ErrValidation marks plans that parsed but violate the plan invariants.
var ErrValidation = errors.New("triage output invalid")

// stripFences removes a markdown code fence wrapper if the model added one
// despite the instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:] // drop ```json or ```
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Parse decodes a triage model response into a validated plan.
func Parse(response string) (*council.Plan, error) {
	text := stripFences(response)

	// Models occasionally add extra fields; tolerate them, validation below
	// catches anything that matters.
	var plan council.Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: cannot parse response as plan JSON: %w", Err, err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return &plan, nil
}

// Run classifies the query into an execution plan using the given triage
// model. The returned plan satisfies all plan invariants.
func Run(ctx context.Context, transport llm.Transport, query, model string) (*council.Plan, error) {
	messages := []llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(query),
	}

	text, _, err := transport.Call(llm.WithRole(ctx, "triage"), messages, model)
	if err != nil {
		return nil, fmt.Errorf("%w: model call: %w", Err, err)
	}

	return Parse(text)
}
