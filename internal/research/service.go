// Package research ties the ingestion pipeline, the index and report
// synthesis into the operations exposed by the CLI, the HTTP API and the
// MCP server.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Acid-base/researcher/internal/archive"
	"github.com/Acid-base/researcher/internal/audit"
	"github.com/Acid-base/researcher/internal/chunker"
	"github.com/Acid-base/researcher/internal/extract"
	"github.com/Acid-base/researcher/internal/fetcher"
	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/normalize"
	"github.com/Acid-base/researcher/internal/report"
	"github.com/Acid-base/researcher/internal/search"
)

const (
	DefaultRetrieveLimit = 10
	DefaultGenerateLimit = 15
	DefaultMaxURLs       = 10
)

var (
	// ErrNoSearch means no search provider is configured.
	ErrNoSearch = errors.New("no search provider configured")
	// ErrNoURLs means a process request carried no usable URL.
	ErrNoURLs = errors.New("at least one URL is required")
	// ErrNoResults means the search returned no URLs to process.
	ErrNoResults = errors.New("no search results found")
	// ErrEmptyQuery means a query parameter was missing.
	ErrEmptyQuery = errors.New("query is required")
)

// Searcher finds candidate source URLs for a topic.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Options wires a Service. Search, Archive and Ingestions are optional.
type Options struct {
	Fetcher     *fetcher.Fetcher
	Extractor   *extract.Extractor
	Index       *index.Manager
	Synthesizer *report.Synthesizer
	Search      Searcher
	Archive     *archive.Store
	Ingestions  *audit.Store
	Splitter    chunker.Splitter

	// Limits default to DefaultRetrieveLimit, DefaultGenerateLimit and
	// DefaultMaxURLs when zero.
	RetrieveLimit int
	GenerateLimit int
	MaxURLs       int
	Logger        *slog.Logger
}

// Service runs research operations.
type Service struct {
	fetcher    *fetcher.Fetcher
	extractor  *extract.Extractor
	index      *index.Manager
	synth      *report.Synthesizer
	search     Searcher
	archive    *archive.Store
	ingestions *audit.Store
	splitter   chunker.Splitter
	limits     limits
	logger     *slog.Logger
}

type limits struct {
	retrieve int
	generate int
	maxURLs  int
}

// New creates a Service. Fetcher, Extractor and Synthesizer get defaults
// when nil; Index is required.
func New(opts Options) (*Service, error) {
	if opts.Index == nil {
		return nil, errors.New("research: index is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetcher.New(fetcher.Options{Logger: logger})
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.New(extract.Options{Logger: logger})
	}
	if opts.Synthesizer == nil {
		opts.Synthesizer = report.NewSynthesizer(nil, report.Options{Logger: logger})
	}
	if opts.Splitter.Size <= 0 {
		opts.Splitter = chunker.Default()
	}
	lim := limits{
		retrieve: orDefault(opts.RetrieveLimit, DefaultRetrieveLimit),
		generate: orDefault(opts.GenerateLimit, DefaultGenerateLimit),
		maxURLs:  orDefault(opts.MaxURLs, DefaultMaxURLs),
	}
	return &Service{
		fetcher:    opts.Fetcher,
		extractor:  opts.Extractor,
		index:      opts.Index,
		synth:      opts.Synthesizer,
		search:     opts.Search,
		archive:    opts.Archive,
		ingestions: opts.Ingestions,
		splitter:   opts.Splitter,
		limits:     lim,
		logger:     logger,
	}, nil
}

// Search queries the configured search provider.
func (s *Service) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if s.search == nil {
		return nil, ErrNoSearch
	}
	s.logger.Info("searching", "query", req.Query)
	return s.search.Search(ctx, req)
}

// Skipped is a URL that contributed no chunks, with the reason.
type Skipped struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ProcessResult summarizes one ingestion batch.
type ProcessResult struct {
	ProcessedURLs int        `json:"processed_urls"`
	IndexedURLs   int        `json:"indexed_urls"`
	Chunks        int        `json:"indexed_chunks"`
	Skipped       []Skipped  `json:"skipped"`
	IndexInfo     index.Info `json:"index_info"`
}

// pendingSource is one successfully extracted URL awaiting indexing.
type pendingSource struct {
	doc    extract.SourceDocument
	chunks int
}

// Process fetches, extracts, cleans and chunks every URL and indexes all
// resulting chunks as one batch. Per-URL failures land in Skipped and
// never abort the batch; an indexing failure fails the whole call.
func (s *Service) Process(ctx context.Context, urls []string, query string, onProgress fetcher.ProgressFunc) (*ProcessResult, error) {
	urls = dedupe(urls)
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	s.logger.Info("processing urls", "count", len(urls), "query", query)

	result := &ProcessResult{ProcessedURLs: len(urls), Skipped: []Skipped{}}
	var records []index.Record
	var pending []pendingSource

	for _, res := range s.fetcher.FetchAll(ctx, urls, onProgress) {
		doc, err := s.extractor.Extract(ctx, res)
		if err != nil {
			s.skip(ctx, result, res.URL, query, string(res.SourceType), err.Error())
			continue
		}
		text := normalize.CleanParagraphs(doc.RawText)
		recs := Records(doc, text, query, s.splitter.Size, s.splitter.Overlap)
		if len(recs) == 0 {
			s.skip(ctx, result, res.URL, query, string(doc.SourceType), "no text left after cleaning")
			continue
		}
		records = append(records, recs...)
		pending = append(pending, pendingSource{doc: doc, chunks: len(recs)})
	}

	n, err := s.index.IndexDocuments(ctx, records)
	if err != nil {
		for _, p := range pending {
			s.logIngestion(ctx, audit.Entry{
				URL:        p.doc.URL,
				Query:      query,
				Status:     audit.StatusSkipped,
				Reason:     err.Error(),
				SourceType: string(p.doc.SourceType),
				Title:      p.doc.Title,
			})
		}
		return nil, fmt.Errorf("index %d chunks from %d urls: %w", len(records), len(pending), err)
	}

	for _, p := range pending {
		s.logIngestion(ctx, audit.Entry{
			URL:        p.doc.URL,
			Query:      query,
			Status:     audit.StatusIndexed,
			SourceType: string(p.doc.SourceType),
			Title:      p.doc.Title,
			Chunks:     p.chunks,
		})
	}

	result.IndexedURLs = len(pending)
	result.Chunks = n
	result.IndexInfo = s.index.Info()
	s.logger.Info("processing complete",
		"urls", result.ProcessedURLs,
		"indexed_urls", result.IndexedURLs,
		"chunks", n,
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (s *Service) skip(ctx context.Context, result *ProcessResult, url, query, sourceType, reason string) {
	s.logger.Warn("skipping url", "url", url, "reason", reason)
	result.Skipped = append(result.Skipped, Skipped{URL: url, Reason: reason})
	s.logIngestion(ctx, audit.Entry{
		URL:        url,
		Query:      query,
		Status:     audit.StatusSkipped,
		Reason:     reason,
		SourceType: sourceType,
	})
}

func (s *Service) logIngestion(ctx context.Context, e audit.Entry) {
	if s.ingestions == nil {
		return
	}
	if err := s.ingestions.Log(ctx, e); err != nil {
		s.logger.Warn("recording ingestion failed", "url", e.URL, "error", err)
	}
}

// Retrieve returns up to limit chunks relevant to query. An empty index
// gives an empty slice; a failed index query is returned as an error.
func (s *Service) Retrieve(ctx context.Context, query string, limit int) ([]index.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.limits.retrieve
	}
	out := s.index.Query(ctx, query, limit)
	switch out.Status {
	case index.StatusFailed:
		return nil, fmt.Errorf("retrieve: %w", out.Err)
	case index.StatusEmpty:
		return []index.Result{}, nil
	}
	return out.Results, nil
}

// GenerateRequest asks for a report over the indexed content.
type GenerateRequest struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit,omitempty"`
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// GenerateResult is a generated report with its archive location.
type GenerateResult struct {
	Query       string            `json:"query"`
	Report      string            `json:"report"`
	Citations   []string          `json:"citations"`
	Sources     []report.Citation `json:"sources"`
	SourceCount int               `json:"source_count"`
	Provider    string            `json:"provider,omitempty"`
	Model       string            `json:"model,omitempty"`
	ReportID    string            `json:"report_id,omitempty"`
	SavedTo     string            `json:"saved_to,omitempty"`
}

// Generate retrieves context for the query and asks the language model
// for a cited report, then archives it. Archiving failures are logged and
// leave SavedTo empty.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if !s.synth.Available() {
		return nil, report.ErrNoProvider
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.limits.generate
	}

	out := s.index.Query(ctx, req.Query, limit)
	switch out.Status {
	case index.StatusFailed:
		return nil, fmt.Errorf("retrieve context for %q: %w", req.Query, out.Err)
	case index.StatusEmpty:
		return nil, report.ErrNoContext
	}

	rep, err := s.synth.Generate(ctx, req.Query, out.Results, req.PromptTemplate)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		Query:       rep.Query,
		Report:      rep.Content,
		Citations:   report.FormatCitations(rep.Citations),
		Sources:     rep.Citations,
		SourceCount: len(rep.Citations),
		Provider:    rep.Provider,
		Model:       rep.Model,
	}
	if s.archive != nil {
		rec, err := s.archive.Save(ctx, rep)
		if err != nil {
			s.logger.Error("saving report failed", "query", req.Query, "error", err)
		} else {
			result.ReportID = rec.ID
			result.SavedTo = rec.FilePath
		}
	}
	return result, nil
}

// WorkflowRequest runs search, ingestion and generation in one call.
type WorkflowRequest struct {
	Query          string `json:"query"`
	MaxURLs        int    `json:"max_urls,omitempty"`
	Categories     string `json:"categories,omitempty"`
	Engines        string `json:"engines,omitempty"`
	Language       string `json:"language,omitempty"`
	TimeRange      string `json:"time_range,omitempty"`
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// WorkflowResult is the generated report plus ingestion accounting.
type WorkflowResult struct {
	GenerateResult
	URLsProcessed int       `json:"urls_processed"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Skipped       []Skipped `json:"skipped"`
}

// Workflow searches for the query, ingests the top MaxURLs results and
// generates a report over the top generate-limit chunks. Provider
// availability is checked before any network work.
func (s *Service) Workflow(ctx context.Context, req WorkflowRequest, onProgress fetcher.ProgressFunc) (*WorkflowResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if !s.synth.Available() {
		return nil, report.ErrNoProvider
	}
	maxURLs := req.MaxURLs
	if maxURLs <= 0 {
		maxURLs = s.limits.maxURLs
	}
	s.logger.Info("starting research workflow", "query", req.Query, "max_urls", maxURLs)

	resp, err := s.Search(ctx, search.Request{
		Query:      req.Query,
		Categories: req.Categories,
		Engines:    req.Engines,
		Language:   req.Language,
		TimeRange:  req.TimeRange,
	})
	if err != nil {
		return nil, err
	}
	urls := resp.URLs(maxURLs)
	if len(urls) == 0 {
		return nil, ErrNoResults
	}

	processed, err := s.Process(ctx, urls, req.Query, onProgress)
	if err != nil {
		return nil, err
	}

	gen, err := s.Generate(ctx, GenerateRequest{
		Query:          req.Query,
		PromptTemplate: req.PromptTemplate,
	})
	if err != nil {
		return nil, err
	}
	return &WorkflowResult{
		GenerateResult: *gen,
		URLsProcessed:  len(urls),
		ChunksIndexed:  processed.Chunks,
		Skipped:        processed.Skipped,
	}, nil
}

// IndexInfo describes the index.
func (s *Service) IndexInfo() index.Info {
	return s.index.Info()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
