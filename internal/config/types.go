package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderGoogle     ProviderType = "google"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
	// ProviderNone disables report generation.
	ProviderNone ProviderType = "none"
	// ProviderHashing is the offline embedding model.
	ProviderHashing ProviderType = "hashing"
)

// Config is the top-level researcher configuration, corresponding to
// .researcher.yml.
type Config struct {
	LLM        LLMConfig       `yaml:"llm" koanf:"llm"`
	Embeddings EmbeddingConfig `yaml:"embeddings" koanf:"embeddings"`
	Search     SearchConfig    `yaml:"search" koanf:"search"`
	Fetch      FetchConfig     `yaml:"fetch" koanf:"fetch"`
	Extract    ExtractConfig   `yaml:"extract" koanf:"extract"`
	Chunking   ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Index      IndexConfig     `yaml:"index" koanf:"index"`
	Archive    ArchiveConfig   `yaml:"archive" koanf:"archive"`
	Research   ResearchConfig  `yaml:"research" koanf:"research"`
	Server     ServerConfig    `yaml:"server" koanf:"server"`
	Metrics    MetricsConfig   `yaml:"metrics" koanf:"metrics"`
}

// LLMConfig selects the report-writing model. The API key comes from the
// provider's environment variable, never from the file.
type LLMConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	BaseURL           string       `yaml:"base_url,omitempty" koanf:"base_url"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EmbeddingConfig selects the embedding model used by the index.
type EmbeddingConfig struct {
	Provider   ProviderType `yaml:"provider" koanf:"provider"`
	Model      string       `yaml:"model,omitempty" koanf:"model"`
	BaseURL    string       `yaml:"base_url,omitempty" koanf:"base_url"`
	Dimensions int          `yaml:"dimensions,omitempty" koanf:"dimensions"`
}

// SearchConfig configures the SearXNG client.
type SearchConfig struct {
	BaseURL        string   `yaml:"base_url,omitempty" koanf:"base_url"`
	Categories     string   `yaml:"categories" koanf:"categories"`
	Language       string   `yaml:"language" koanf:"language"`
	Exclude        []string `yaml:"exclude,omitempty" koanf:"exclude"`
	TimeoutSeconds int      `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	Concurrency    int     `yaml:"concurrency" koanf:"concurrency"`
	RatePerSecond  float64 `yaml:"rate_per_second" koanf:"rate_per_second"`
	UserAgent      string  `yaml:"user_agent,omitempty" koanf:"user_agent"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" koanf:"max_body_bytes"`
}

// ExtractConfig configures text extraction.
type ExtractConfig struct {
	Readability bool `yaml:"readability" koanf:"readability"`
}

// ChunkingConfig sets chunk size and overlap in runes.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// IndexConfig locates the index archive.
type IndexConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// ArchiveConfig locates saved reports and the SQLite catalogue.
type ArchiveConfig struct {
	Dir    string `yaml:"dir" koanf:"dir"`
	DBPath string `yaml:"db_path" koanf:"db_path"`
}

// ResearchConfig holds per-operation limits.
type ResearchConfig struct {
	RetrieveLimit int `yaml:"retrieve_limit" koanf:"retrieve_limit"`
	GenerateLimit int `yaml:"generate_limit" koanf:"generate_limit"`
	MaxURLs       int `yaml:"max_urls" koanf:"max_urls"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host                  string `yaml:"host" koanf:"host"`
	Port                  int    `yaml:"port" koanf:"port"`
	AllowAllOrigins       bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
}

// MetricsConfig configures OTLP metric export. An empty endpoint disables
// export.
type MetricsConfig struct {
	OTLPEndpoint    string `yaml:"otlp_endpoint,omitempty" koanf:"otlp_endpoint"`
	ServiceName     string `yaml:"service_name" koanf:"service_name"`
	IntervalSeconds int    `yaml:"interval_seconds" koanf:"interval_seconds"`
}
