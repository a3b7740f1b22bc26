package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Acid-base/researcher/internal/archive"
	"github.com/Acid-base/researcher/internal/audit"
	"github.com/Acid-base/researcher/internal/chunker"
	"github.com/Acid-base/researcher/internal/config"
	"github.com/Acid-base/researcher/internal/db"
	"github.com/Acid-base/researcher/internal/embeddings"
	"github.com/Acid-base/researcher/internal/extract"
	"github.com/Acid-base/researcher/internal/fetcher"
	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/llm"
	"github.com/Acid-base/researcher/internal/metrics"
	"github.com/Acid-base/researcher/internal/report"
	"github.com/Acid-base/researcher/internal/research"
	"github.com/Acid-base/researcher/internal/search"
)

// app holds everything a command needs once the config is loaded.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *db.DB
	svc        *research.Service
	reports    *archive.Store
	ingestions *audit.Store

	shutdownMetrics func(context.Context) error
}

// openApp loads the config and wires the research service with its
// stores. Callers must Close the result.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	mp, shutdown, err := metrics.Setup(ctx, metrics.Config{
		Endpoint:    cfg.Metrics.OTLPEndpoint,
		ServiceName: cfg.Metrics.ServiceName,
		Interval:    seconds(cfg.Metrics.IntervalSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("setting up metrics: %w", err)
	}
	inst, err := metrics.New(mp)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, shutdownMetrics: shutdown}
	if err := a.wire(ctx, inst); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, inst *metrics.Instruments) error {
	cfg, logger := a.cfg, a.logger

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	idx, err := index.Open(ctx, index.Options{
		Path:     cfg.Index.Path,
		Embedder: embedder,
		Logger:   logger,
		Metrics:  inst,
	})
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	synth := report.NewSynthesizer(provider, report.Options{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
		Metrics:     inst,
	})

	searcher, err := search.New(search.Options{
		BaseURL:    cfg.Search.BaseURL,
		Categories: cfg.Search.Categories,
		Language:   cfg.Search.Language,
		Exclude:    cfg.Search.Exclude,
		Timeout:    seconds(cfg.Search.TimeoutSeconds),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating search client: %w", err)
	}

	a.db, err = db.Open(cfg.Archive.DBPath)
	if err != nil {
		return err
	}
	a.reports = archive.NewStore(a.db, cfg.Archive.Dir, logger)
	a.ingestions = audit.NewStore(a.db)

	a.svc, err = research.New(research.Options{
		Fetcher: fetcher.New(fetcher.Options{
			Timeout:       seconds(cfg.Fetch.TimeoutSeconds),
			UserAgent:     cfg.Fetch.UserAgent,
			Concurrency:   cfg.Fetch.Concurrency,
			RatePerSecond: cfg.Fetch.RatePerSecond,
			MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
			Logger:        logger,
			Metrics:       inst,
		}),
		Extractor: extract.New(extract.Options{
			Readability: cfg.Extract.Readability,
			Logger:      logger,
			Metrics:     inst,
		}),
		Index:       idx,
		Synthesizer: synth,
		Search:      searcher,
		Archive:     a.reports,
		Ingestions:  a.ingestions,
		Splitter:    chunker.Splitter{Size: cfg.Chunking.Size, Overlap: cfg.Chunking.Overlap},

		RetrieveLimit: cfg.Research.RetrieveLimit,
		GenerateLimit: cfg.Research.GenerateLimit,
		MaxURLs:       cfg.Research.MaxURLs,
		Logger:        logger,
	})
	return err
}

// Close releases the database and flushes metrics.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
	if a.shutdownMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownMetrics(ctx); err != nil {
			a.logger.Warn("flushing metrics", "error", err)
		}
	}
}

// createEmbedderFromConfig creates the embedder used by the index. The
// API key comes from the provider's environment variable.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	var apiKey string
	if env := config.APIKeyEnvVar(cfg.Embeddings.Provider); env != "" {
		apiKey = os.Getenv(env)
	}
	return embeddings.New(embeddings.Options{
		Provider:   string(cfg.Embeddings.Provider),
		Model:      cfg.Embeddings.Model,
		BaseURL:    cfg.Embeddings.BaseURL,
		APIKey:     apiKey,
		Dimensions: cfg.Embeddings.Dimensions,
	})
}

// createLLMProviderFromConfig creates the report model. A disabled
// provider or a missing API key yields a nil provider; commands that need
// one then fail with report.ErrNoProvider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	if !cfg.LLMEnabled() {
		return nil, nil
	}
	p, err := llm.NewProvider(llm.Options{
		Provider:          string(cfg.LLM.Provider),
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
	if errors.Is(err, llm.ErrNoAPIKey) {
		slog.Warn("report generation disabled", "error", err)
		return nil, nil
	}
	return p, err
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `researcher init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
