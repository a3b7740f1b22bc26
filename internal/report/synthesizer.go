package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/llm"
	"github.com/Acid-base/researcher/internal/metrics"
)

var (
	// ErrNoProvider means no language model is configured.
	ErrNoProvider = errors.New("no language model provider configured")
	// ErrNoContext means retrieval returned nothing to write about.
	ErrNoContext = errors.New("no relevant information found; process some URLs first")
)

const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4096
)

// Report is a generated report with its sources.
type Report struct {
	Query         string     `json:"query"`
	Content       string     `json:"report"`
	Citations     []Citation `json:"citations"`
	Provider      string     `json:"provider,omitempty"`
	Model         string     `json:"model,omitempty"`
	InputTokens   int        `json:"input_tokens,omitempty"`
	OutputTokens  int        `json:"output_tokens,omitempty"`
	EstimatedCost float64    `json:"estimated_cost_usd,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// Options configures a Synthesizer.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
	Metrics     *metrics.Instruments
}

// Synthesizer asks a language model to write a report over retrieved
// chunks.
type Synthesizer struct {
	provider llm.Provider
	opts     Options
	logger   *slog.Logger
}

// NewSynthesizer creates a Synthesizer. provider may be nil, in which
// case Generate fails with ErrNoProvider.
func NewSynthesizer(provider llm.Provider, opts Options) *Synthesizer {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{provider: provider, opts: opts, logger: logger}
}

// Available reports whether a provider is configured.
func (s *Synthesizer) Available() bool {
	return s.provider != nil
}

// Generate writes a report for query over results using tmpl (empty for
// the default template).
func (s *Synthesizer) Generate(ctx context.Context, query string, results []index.Result, tmpl string) (*Report, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	if len(results) == 0 {
		return nil, ErrNoContext
	}

	prompt, err := BuildPrompt(tmpl, FormatContext(results))
	if err != nil {
		return nil, err
	}

	req := llm.Prompt(SystemPrompt, prompt)
	req.Model = s.opts.Model
	req.Temperature = s.opts.Temperature
	req.MaxTokens = s.opts.MaxTokens

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate report for %q with %s: %w", query, s.provider.Name(), err)
	}
	if resp.Content == "" {
		return nil, fmt.Errorf("generate report for %q: %s returned an empty report", query, s.provider.Name())
	}

	in, out := resp.InputTokens, resp.OutputTokens
	if in == 0 && out == 0 {
		in, out = llm.EstimateTokens(SystemPrompt+prompt), llm.EstimateTokens(resp.Content)
	}
	model := resp.Model
	if model == "" {
		model = s.opts.Model
	}

	rep := &Report{
		Query:         query,
		Content:       resp.Content,
		Citations:     Citations(results),
		Provider:      s.provider.Name(),
		Model:         model,
		InputTokens:   in,
		OutputTokens:  out,
		EstimatedCost: llm.EstimateCost(model, in, out),
		GeneratedAt:   time.Now().UTC(),
	}

	s.opts.Metrics.ReportGenerated(ctx, rep.Provider)
	s.logger.Info("report generated",
		"query", query,
		"sources", len(results),
		"provider", rep.Provider,
		"model", model,
		"input_tokens", in,
		"output_tokens", out,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return rep, nil
}
