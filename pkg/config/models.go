package config

import (
	"fmt"
	"strings"
)

// Vendor name constants. The vendor is the segment of a model identifier
// before the first slash; it is what diversity routing counts.
const (
	VendorAnthropic = "anthropic"
	VendorOpenAI    = "openai"
	VendorGoogle    = "google"
	VendorOllama    = "ollama"
)

// Model identifier constants. Identifiers are always vendor-prefixed
// ("vendor/model"); the transport mux dispatches on the prefix.
const (
	ModelClaudeSonnet4 = "anthropic/claude-sonnet-4-5"
	ModelClaudeOpus4   = "anthropic/claude-opus-4-5"
	ModelClaudeHaiku4  = "anthropic/claude-haiku-4-5"
	ModelGPT5          = "openai/gpt-5"
	ModelGPT4o         = "openai/gpt-4o"
	ModelGPT4oMini     = "openai/gpt-4o-mini"
	ModelGemini3Pro    = "google/gemini-3-pro-preview"
	ModelGeminiFlash   = "google/gemini-2.5-flash"
	ModelLlama33       = "ollama/llama3.3"
	ModelMistralNemo   = "ollama/mistral-nemo"
)

// Default model assignments.
const (
	// DefaultModel is the safe fallback for every routing failure.
	DefaultModel = ModelClaudeSonnet4
	// DefaultTriageModel classifies queries into execution plans.
	DefaultTriageModel = ModelClaudeSonnet4
	// DefaultJudgeModel answers the convergence yes/no question.
	DefaultJudgeModel = ModelClaudeHaiku4
)

// ModelInfo carries pricing and context metadata for a known model.
type ModelInfo struct {
	InputCPM         float64 // Cost per million input tokens, USD
	OutputCPM        float64 // Cost per million output tokens, USD
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels contains pricing information for common models. Unknown models
// still work; they just report zero cost.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	ModelClaudeSonnet4: {InputCPM: 3.0, OutputCPM: 15.0, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	ModelClaudeOpus4:   {InputCPM: 15.0, OutputCPM: 75.0, MaxContextTokens: 200000, MaxOutputTokens: 16384},
	ModelClaudeHaiku4:  {InputCPM: 0.8, OutputCPM: 4.0, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	ModelGPT5:          {InputCPM: 10.0, OutputCPM: 30.0, MaxContextTokens: 256000, MaxOutputTokens: 16384},
	ModelGPT4o:         {InputCPM: 2.5, OutputCPM: 10.0, MaxContextTokens: 128000, MaxOutputTokens: 8192},
	ModelGPT4oMini:     {InputCPM: 0.15, OutputCPM: 0.6, MaxContextTokens: 128000, MaxOutputTokens: 8192},
	ModelGemini3Pro:    {InputCPM: 2.0, OutputCPM: 12.0, MaxContextTokens: 1000000, MaxOutputTokens: 8192},
	ModelGeminiFlash:   {InputCPM: 0.3, OutputCPM: 1.2, MaxContextTokens: 1000000, MaxOutputTokens: 8192},
	ModelLlama33:       {MaxContextTokens: 128000, MaxOutputTokens: 4096},
	ModelMistralNemo:   {MaxContextTokens: 128000, MaxOutputTokens: 4096},
}

// SplitModel splits a vendor-prefixed model identifier into vendor and bare
// model name. Identifiers without a slash report the "unknown" vendor.
func SplitModel(modelID string) (vendor, name string) {
	if idx := strings.Index(modelID, "/"); idx >= 0 {
		return modelID[:idx], modelID[idx+1:]
	}
	return "unknown", modelID
}

// GetModelInfo returns pricing info for a model, and whether it is known.
func GetModelInfo(modelID string) (ModelInfo, bool) {
	info, ok := KnownModels[modelID]
	return info, ok
}

// EstimateCostUSD computes the dollar cost of a call from token counts.
// Unknown models cost zero.
func EstimateCostUSD(modelID string, promptTokens, completionTokens int) float64 {
	info, ok := KnownModels[modelID]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1e6*info.InputCPM + float64(completionTokens)/1e6*info.OutputCPM
}

// ValidateModelID checks that a model identifier carries a known vendor
// prefix the transport can dispatch on.
func ValidateModelID(modelID string) error {
	vendor, name := SplitModel(modelID)
	if name == "" {
		return fmt.Errorf("model identifier %q has no model name", modelID)
	}
	switch vendor {
	case VendorAnthropic, VendorOpenAI, VendorGoogle, VendorOllama:
		return nil
	default:
		return fmt.Errorf("model identifier %q has unknown vendor %q", modelID, vendor)
	}
}
