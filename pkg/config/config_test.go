package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitModel(t *testing.T) {
	tests := []struct {
		modelID string
		vendor  string
		name    string
	}{
		{"anthropic/claude-opus-4-5", "anthropic", "claude-opus-4-5"},
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"ollama/llama3.3", "ollama", "llama3.3"},
		{"bare-model", "unknown", "bare-model"},
		{"google/models/gemini", "google", "models/gemini"},
	}
	for _, tt := range tests {
		vendor, name := SplitModel(tt.modelID)
		assert.Equal(t, tt.vendor, vendor, tt.modelID)
		assert.Equal(t, tt.name, name, tt.modelID)
	}
}

func TestValidateModelID(t *testing.T) {
	assert.NoError(t, ValidateModelID(ModelClaudeSonnet4))
	assert.NoError(t, ValidateModelID(ModelLlama33))
	assert.Error(t, ValidateModelID("mistralai/mistral-large"), "unknown vendor")
	assert.Error(t, ValidateModelID("anthropic/"), "missing model name")
	assert.Error(t, ValidateModelID("freestanding"), "no vendor prefix")
}

func TestEstimateCostUSD(t *testing.T) {
	cost := EstimateCostUSD(ModelGPT4o, 1_000_000, 1_000_000)
	assert.InDelta(t, 12.5, cost, 1e-9) // 2.5 input + 10.0 output

	assert.Zero(t, EstimateCostUSD("ollama/unknown-model", 1000, 1000))
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, DefaultModel, cfg.DefaultModel)
	assert.Equal(t, DefaultTriageModel, cfg.TriageModel)
	assert.Equal(t, DefaultJudgeModel, cfg.JudgeModel)
	assert.Equal(t, DefaultOllamaHost, cfg.Transport.OllamaHost)
	assert.Equal(t, 120*time.Second, cfg.Transport.RequestTimeout)
	assert.Equal(t, "auto", cfg.Routing.Strategy)
	assert.Equal(t, 2, cfg.Routing.MaxPerVendor)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conclave.yaml")
	body := `
default_model: anthropic/claude-opus-4-5
observability: true
routing:
  strategy: diversity
  max_per_vendor: 1
  pool:
    - anthropic/claude-sonnet-4-5
    - openai/gpt-4o
transport:
  ollama_host: http://ollama.internal:11434
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-opus-4-5", cfg.DefaultModel)
	assert.True(t, cfg.Observability)
	assert.Equal(t, "diversity", cfg.Routing.Strategy)
	assert.Equal(t, 1, cfg.Routing.MaxPerVendor)
	assert.Len(t, cfg.Routing.Pool, 2)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Transport.OllamaHost)
	// Unset fields still normalized.
	assert.Equal(t, DefaultJudgeModel, cfg.JudgeModel)
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()
	cfg.Transport.AnthropicAPIKey = "sk-test"
	cfg.Routing.Strategy = "lottery"
	assert.Error(t, cfg.Validate())

	cfg.Routing.Strategy = "specialized"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RequiresCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()
	// Normalize may have resolved keys from the environment; clear them so
	// only the defaulted Ollama host remains.
	cfg.Transport.AnthropicAPIKey = ""
	cfg.Transport.OpenAIAPIKey = ""
	cfg.Transport.GoogleAPIKey = ""
	assert.Error(t, cfg.Validate(), "a defaulted ollama host is not a credential")

	cfg = &Config{}
	cfg.Transport.OllamaHost = "http://ollama.internal:11434"
	cfg.Normalize()
	cfg.Transport.AnthropicAPIKey = ""
	cfg.Transport.OpenAIAPIKey = ""
	cfg.Transport.GoogleAPIKey = ""
	assert.NoError(t, cfg.Validate(), "an explicitly configured ollama host suffices")
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{
		EnvAnthropicKey: "sk-ant-test",
		EnvOpenAIKey:    "sk-oai-test",
	}

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", secrets))
	require.True(t, SecretsFileExists(dir))

	got, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, secrets, got)

	_, err = DecryptSecretsFile(dir, "wrong-password")
	assert.Error(t, err)
}

func TestGetSecret_Precedence(t *testing.T) {
	SetDecryptedSecrets(map[string]string{"CONCLAVE_TEST_SECRET": "from-file"})
	defer SetDecryptedSecrets(nil)
	t.Setenv("CONCLAVE_TEST_SECRET", "from-env")

	val, err := GetSecret("CONCLAVE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-file", val, "secrets file wins over environment")

	SetDecryptedSecrets(nil)
	val, err = GetSecret("CONCLAVE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", val)
}
