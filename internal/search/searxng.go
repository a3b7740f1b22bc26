// Package search queries a SearXNG instance for candidate source URLs.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	DefaultBaseURL    = "http://searxng:8080"
	DefaultCategories = "general,science"
	DefaultLanguage   = "en"

	defaultTimeout = 15 * time.Second
)

// Request is one search. Empty fields fall back to the client defaults;
// Engines and TimeRange are only sent when set.
type Request struct {
	Query      string `json:"query"`
	Categories string `json:"categories,omitempty"`
	Engines    string `json:"engines,omitempty"`
	Language   string `json:"language,omitempty"`
	TimeRange  string `json:"time_range,omitempty"`
}

// Result is one SearXNG hit.
type Result struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content,omitempty"`
	Engine        string  `json:"engine,omitempty"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"publishedDate,omitempty"`
}

// Response is the decoded SearXNG JSON answer after exclusion filtering.
type Response struct {
	Query           string   `json:"query"`
	NumberOfResults int      `json:"number_of_results"`
	Results         []Result `json:"results"`
	Suggestions     []string `json:"suggestions,omitempty"`
	// Excluded counts results dropped by exclusion globs.
	Excluded int `json:"excluded,omitempty"`
}

// URLs returns up to max distinct, non-empty result URLs in rank order.
// max <= 0 means no limit.
func (r *Response) URLs(max int) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, res := range r.Results {
		if res.URL == "" || seen[res.URL] {
			continue
		}
		seen[res.URL] = true
		out = append(out, res.URL)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// Options configures a Client.
type Options struct {
	// BaseURL defaults to $SEARXNG_HOST, then DefaultBaseURL.
	BaseURL    string
	Categories string
	Language   string
	// Exclude holds doublestar globs matched against "host/path" of each
	// result URL, e.g. "*.pinterest.com/**".
	Exclude []string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// Client talks to the SearXNG JSON API.
type Client struct {
	baseURL    string
	categories string
	language   string
	exclude    []string
	http       *http.Client
	logger     *slog.Logger
}

// New creates a Client. It fails on an invalid exclusion glob.
func New(opts Options) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = os.Getenv("SEARXNG_HOST")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	c := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		categories: opts.Categories,
		language:   opts.Language,
		exclude:    opts.Exclude,
		http:       opts.Client,
		logger:     opts.Logger,
	}
	if c.categories == "" {
		c.categories = DefaultCategories
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// BaseURL returns the instance the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs a query and drops excluded results.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search: empty query")
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("format", "json")
	params.Set("categories", firstNonEmpty(req.Categories, c.categories))
	params.Set("language", firstNonEmpty(req.Language, c.language))
	if req.Engines != "" {
		params.Set("engines", req.Engines)
	}
	if req.TimeRange != "" {
		params.Set("time_range", req.TimeRange)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searxng request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("searxng returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode searxng response: %w", err)
	}

	kept := out.Results[:0]
	for _, r := range out.Results {
		if c.excluded(r.URL) {
			out.Excluded++
			continue
		}
		kept = append(kept, r)
	}
	out.Results = kept

	c.logger.Debug("search complete", "query", req.Query, "results", len(out.Results), "excluded", out.Excluded)
	return &out, nil
}

func (c *Client) excluded(raw string) bool {
	if len(c.exclude) == 0 {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	target := strings.ToLower(u.Hostname()) + u.EscapedPath()
	for _, p := range c.exclude {
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
