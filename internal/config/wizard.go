package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to researcher! Let's configure your research pipeline.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Report model provider.
	providers := []string{"google", "openai", "openrouter", "ollama", "none"}
	providerPrompt := promptui.Select{
		Label: "Select the LLM provider for reports",
		Items: providers,
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LLM.Provider = ProviderType(providerStr)

	// 2. Model.
	if cfg.LLMEnabled() {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: DefaultModel(cfg.LLM.Provider),
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.LLM.Model = strings.TrimSpace(model)
	} else {
		cfg.LLM.Model = ""
	}

	// 3. Embeddings.
	embeddingPrompt := promptui.Select{
		Label: "Select the embedding model",
		Items: []string{
			"hashing: offline, no API key",
			"openai: text-embedding-3-small",
			"google: text-embedding-004",
			"ollama: local all-minilm",
		},
	}
	embeddingIdx, _, err := embeddingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding selection: %w", err)
	}
	cfg.Embeddings.Provider = []ProviderType{ProviderHashing, ProviderOpenAI, ProviderGoogle, ProviderOllama}[embeddingIdx]

	// 4. Search.
	searchPrompt := promptui.Prompt{
		Label:   "SearXNG URL (blank to use SEARXNG_HOST)",
		Default: os.Getenv("SEARXNG_HOST"),
	}
	searchURL, err := searchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("search url: %w", err)
	}
	cfg.Search.BaseURL = strings.TrimSpace(searchURL)

	excludePrompt := promptui.Prompt{
		Label:   "Excluded result URL globs (comma-separated, blank for none)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.Search.Exclude = splitAndTrim(excludeStr)

	// 5. Chunking.
	sizePrompt := promptui.Prompt{
		Label:    "Chunk size in characters",
		Default:  strconv.Itoa(cfg.Chunking.Size),
		Validate: positiveInt,
	}
	sizeStr, err := sizePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("chunk size: %w", err)
	}
	cfg.Chunking.Size, _ = strconv.Atoi(strings.TrimSpace(sizeStr))
	if cfg.Chunking.Overlap >= cfg.Chunking.Size {
		cfg.Chunking.Overlap = cfg.Chunking.Size / 10
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Check for API keys.
	for _, p := range []ProviderType{cfg.LLM.Provider, cfg.Embeddings.Provider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running researcher.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and drops empty items.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
