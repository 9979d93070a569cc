package llm

import (
	"fmt"
	"strings"

	"github.com/pagetutor/pagetutor/internal/config"
)

// GetBuiltInProviderNames lists the provider names NewProviderByName accepts.
func GetBuiltInProviderNames() []string {
	return []string{"anthropic", "openai", "gemini", "ollama", "lmstudio", "openai-compat", "echo"}
}

// ParseProviderModel parses "provider:model" or just "provider" from a flag value.
// Returns (provider, model, error). Model will be empty if not specified.
func ParseProviderModel(s string) (string, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	provider := strings.TrimSpace(parts[0])
	model := ""
	if len(parts) == 2 {
		model = strings.TrimSpace(parts[1])
	}

	for _, name := range GetBuiltInProviderNames() {
		if provider == name {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("unknown provider: %s (want one of %s)", provider, strings.Join(GetBuiltInProviderNames(), ", "))
}

// NewProvider creates the configured default provider.
// Providers are wrapped with automatic retry for rate limits (429) and transient errors.
func NewProvider(cfg *config.Config) (Provider, error) {
	return NewProviderByName(cfg, cfg.Provider)
}

// NewProviderByName creates a provider by name using that provider's
// section of the config.
func NewProviderByName(cfg *config.Config, name string) (Provider, error) {
	provider, err := newProviderInternal(cfg, name)
	if err != nil {
		return nil, err
	}
	if name == "echo" {
		return provider, nil
	}
	return WrapWithRetry(provider, DefaultRetryConfig()), nil
}

func newProviderInternal(cfg *config.Config, name string) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "gemini":
		return NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "ollama":
		return NewOpenAICompatProvider(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, cfg.Ollama.Model, "Ollama")
	case "lmstudio":
		return NewOpenAICompatProvider(cfg.LMStudio.BaseURL, cfg.LMStudio.APIKey, cfg.LMStudio.Model, "LM Studio")
	case "openai-compat":
		return NewOpenAICompatProvider(cfg.OpenAICompat.BaseURL, cfg.OpenAICompat.APIKey, cfg.OpenAICompat.Model, "OpenAI-compatible")
	case "echo":
		return NewEchoProvider(), nil
	case "":
		return nil, fmt.Errorf("no provider configured")
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
