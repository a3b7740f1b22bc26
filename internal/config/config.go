package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/Acid-base/researcher/internal/llm"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: RESEARCHER_INDEX__PATH sets index.path.
const EnvPrefix = "RESEARCHER_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RESEARCHER_*). A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps RESEARCHER_LLM__MAX_TOKENS to llm.max_tokens.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validLLMProviders is the set of recognized llm.provider values.
var validLLMProviders = map[ProviderType]bool{
	ProviderGoogle:     true,
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderOllama:     true,
	ProviderNone:       true,
}

// validEmbeddingProviders is the set of recognized embeddings.provider values.
var validEmbeddingProviders = map[ProviderType]bool{
	ProviderHashing: true,
	ProviderOpenAI:  true,
	ProviderGoogle:  true,
	ProviderOllama:  true,
}

// Validate checks that the configuration contains valid values. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !validLLMProviders[c.LLM.Provider] {
		add("invalid llm.provider %q: must be one of google, openai, openrouter, ollama, none", c.LLM.Provider)
	} else if c.LLM.Provider != ProviderNone && c.LLM.Model == "" {
		add("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 {
		add("llm.max_tokens must be non-negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		add("llm.requests_per_minute must be non-negative")
	}

	if !validEmbeddingProviders[c.Embeddings.Provider] {
		add("invalid embeddings.provider %q: must be one of hashing, openai, google, ollama", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions < 0 {
		add("embeddings.dimensions must be non-negative")
	}

	for _, pattern := range c.Search.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			add("invalid search.exclude pattern %q", pattern)
		}
	}
	if c.Search.TimeoutSeconds < 0 {
		add("search.timeout_seconds must be non-negative")
	}

	if c.Fetch.TimeoutSeconds <= 0 || c.Fetch.TimeoutSeconds > 10 {
		add("fetch.timeout_seconds must be between 1 and 10")
	}
	if c.Fetch.Concurrency < 1 {
		add("fetch.concurrency must be at least 1")
	}
	if c.Fetch.RatePerSecond < 0 {
		add("fetch.rate_per_second must be non-negative")
	}

	if c.Chunking.Size <= 0 {
		add("chunking.size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		add("chunking.overlap must be non-negative and smaller than chunking.size")
	}

	if c.Index.Path == "" {
		add("index.path is required")
	}
	if c.Archive.Dir == "" {
		add("archive.dir is required")
	}
	if c.Archive.DBPath == "" {
		add("archive.db_path is required")
	}

	if c.Research.RetrieveLimit <= 0 || c.Research.GenerateLimit <= 0 || c.Research.MaxURLs <= 0 {
		add("research limits must be positive")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port must be between 0 and 65535")
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		add("server.request_timeout_seconds must be non-negative")
	}

	return errors.Join(errs...)
}

// LLMEnabled reports whether report generation is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != ProviderNone && c.LLM.Provider != ""
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	return llm.APIKeyEnvVar(string(provider))
}
