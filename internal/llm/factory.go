package llm

import (
	"fmt"
	"os"
)

// Provider names accepted by NewProvider.
const (
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Options selects and configures a provider. An empty APIKey is read
// from the provider's environment variable.
type Options struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	// RequestsPerMinute wraps the provider in a rate limiter when > 0.
	RequestsPerMinute int
}

// APIKeyEnvVar returns the environment variable holding the API key for
// a provider, or "" when the provider needs none.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderGoogle:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// NewProvider creates the provider named by opts.Provider. Hosted
// providers without a key fail with an error wrapping ErrNoAPIKey.
func NewProvider(opts Options) (Provider, error) {
	apiKey := opts.APIKey
	if env := APIKeyEnvVar(opts.Provider); apiKey == "" && env != "" {
		apiKey = os.Getenv(env)
		if apiKey == "" && opts.Provider == ProviderGoogle {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
	}

	var p Provider
	switch opts.Provider {
	case ProviderGoogle:
		if apiKey == "" {
			return nil, fmt.Errorf("google: set GEMINI_API_KEY: %w", ErrNoAPIKey)
		}
		p = NewGoogleProvider(apiKey, opts.Model, opts.BaseURL)

	case ProviderOpenAI:
		// Local OpenAI-compatible servers usually take no key.
		if apiKey == "" && opts.BaseURL == "" {
			return nil, fmt.Errorf("openai: set OPENAI_API_KEY: %w", ErrNoAPIKey)
		}
		p = NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL)

	case ProviderOpenRouter:
		if apiKey == "" {
			return nil, fmt.Errorf("openrouter: set OPENROUTER_API_KEY: %w", ErrNoAPIKey)
		}
		p = NewOpenRouterProvider(apiKey, opts.Model)

	case ProviderOllama:
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		p = NewOllamaProvider(host, opts.Model)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}
