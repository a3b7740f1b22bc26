package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderGoogle, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, ProviderHashing, cfg.Embeddings.Provider)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSeconds)
	assert.Equal(t, "general,science", cfg.Search.Categories)
	assert.Equal(t, 15, cfg.Research.GenerateLimit)
	assert.Equal(t, 10, cfg.Research.MaxURLs)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	original := DefaultConfig()
	original.LLM.Provider = ProviderOpenAI
	original.LLM.Model = "gpt-4o"
	original.Search.Exclude = []string{"**.pinterest.com/**"}
	original.Chunking.Size = 800
	original.Chunking.Overlap = 80
	original.Index.Path = "custom/index.gob.gz"
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: ollama\n  model: mistral\nchunking:\n  size: 500\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "data/reports", cfg.Archive.Dir)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RESEARCHER_INDEX__PATH", "/tmp/idx.gob.gz")
	t.Setenv("RESEARCHER_LLM__PROVIDER", "openrouter")
	t.Setenv("RESEARCHER_CHUNKING__OVERLAP", "50")
	t.Setenv("RESEARCHER_SERVER__ALLOW_ALL_ORIGINS", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/idx.gob.gz", cfg.Index.Path)
	assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.True(t, cfg.Server.AllowAllOrigins)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.max_tokens", envKey("RESEARCHER_LLM__MAX_TOKENS"))
	assert.Equal(t, "index.path", envKey("RESEARCHER_INDEX__PATH"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"llm disabled", func(c *Config) { c.LLM.Provider = ProviderNone; c.LLM.Model = "" }, ""},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "anthropic" }, "invalid llm.provider"},
		{"missing model", func(c *Config) { c.LLM.Model = "" }, "llm.model is required"},
		{"bad temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"unknown embedder", func(c *Config) { c.Embeddings.Provider = "bert" }, "invalid embeddings.provider"},
		{"overlap not below size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunking.overlap"},
		{"zero size", func(c *Config) { c.Chunking.Size = 0 }, "chunking.size"},
		{"fetch timeout over cap", func(c *Config) { c.Fetch.TimeoutSeconds = 30 }, "fetch.timeout_seconds"},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, "fetch.concurrency"},
		{"bad glob", func(c *Config) { c.Search.Exclude = []string{"[unclosed"} }, "search.exclude"},
		{"empty index path", func(c *Config) { c.Index.Path = "" }, "index.path"},
		{"zero limit", func(c *Config) { c.Research.MaxURLs = 0 }, "research limits"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.Path = ""
	cfg.Archive.Dir = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.path")
	assert.Contains(t, err.Error(), "archive.dir")
}

func TestAPIKeyEnvVar(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", APIKeyEnvVar(ProviderGoogle))
	assert.Equal(t, "OPENAI_API_KEY", APIKeyEnvVar(ProviderOpenAI))
	assert.Equal(t, "OPENROUTER_API_KEY", APIKeyEnvVar(ProviderOpenRouter))
	assert.Empty(t, APIKeyEnvVar(ProviderOllama))
	assert.Empty(t, APIKeyEnvVar(ProviderHashing))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
	assert.Nil(t, splitAndTrim(""))
}
