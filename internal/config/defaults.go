package config

import (
	"github.com/Acid-base/researcher/internal/archive"
	"github.com/Acid-base/researcher/internal/chunker"
	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/report"
	"github.com/Acid-base/researcher/internal/research"
	"github.com/Acid-base/researcher/internal/search"
)

// FileName is the default config file in the working directory.
const FileName = ".researcher.yml"

// defaultModels maps each LLM provider to its default model.
var defaultModels = map[ProviderType]string{
	ProviderGoogle:     "gemini-2.0-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
	ProviderOllama:     "llama3",
}

// DefaultModel returns the default model for an LLM provider, or "".
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderGoogle,
			Model:       defaultModels[ProviderGoogle],
			Temperature: report.DefaultTemperature,
			MaxTokens:   report.DefaultMaxTokens,
		},
		Embeddings: EmbeddingConfig{
			Provider: ProviderHashing,
		},
		Search: SearchConfig{
			Categories:     search.DefaultCategories,
			Language:       search.DefaultLanguage,
			TimeoutSeconds: 30,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 10,
			Concurrency:    4,
			MaxBodyBytes:   32 << 20,
		},
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultSize,
			Overlap: chunker.DefaultOverlap,
		},
		Index: IndexConfig{
			Path: index.DefaultPath,
		},
		Archive: ArchiveConfig{
			Dir:    archive.DefaultDir,
			DBPath: "data/researcher.db",
		},
		Research: ResearchConfig{
			RetrieveLimit: research.DefaultRetrieveLimit,
			GenerateLimit: research.DefaultGenerateLimit,
			MaxURLs:       research.DefaultMaxURLs,
		},
		Server: ServerConfig{
			Host:                  "0.0.0.0",
			Port:                  5000,
			RequestTimeoutSeconds: 300,
		},
		Metrics: MetricsConfig{
			ServiceName:     "researcher",
			IntervalSeconds: 30,
		},
	}
}
