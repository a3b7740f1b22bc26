package embeddings

import "fmt"

// Provider names accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderGoogle  = "google"
)

// Options selects and configures an embedder.
type Options struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// New builds the embedder named by opts.Provider. An empty provider
// selects the offline hashing embedder.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "", ProviderHashing:
		return NewHashingEmbedder(opts.Dimensions), nil
	case ProviderOpenAI:
		if opts.APIKey == "" && opts.BaseURL == "" {
			return nil, fmt.Errorf("openai embeddings need an API key")
		}
		model := OpenAIModel(opts.Model)
		if model == "" {
			model = ModelTextEmbedding3Small
		}
		return NewOpenAIEmbedder(opts.APIKey, model, opts.BaseURL), nil
	case ProviderOllama:
		model, dims := opts.Model, opts.Dimensions
		if model == "" {
			model = "all-minilm"
		}
		if dims <= 0 {
			dims = DefaultHashingDimensions
		}
		return NewOllamaEmbedder(model, dims, opts.BaseURL), nil
	case ProviderGoogle:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google embeddings need an API key")
		}
		model := GoogleModel(opts.Model)
		if model == "" {
			model = ModelTextEmbedding004
		}
		return NewGoogleEmbedder(opts.APIKey, model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}
