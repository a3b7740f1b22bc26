// Package fetcher downloads web pages and PDF documents for ingestion.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/Acid-base/researcher/internal/metrics"
)

const (
	// MaxTimeout caps the per-request timeout.
	MaxTimeout = 10 * time.Second

	// DefaultUserAgent mimics a desktop browser to avoid trivial bot blocking.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultConcurrency  = 4
	defaultMaxBodyBytes = 32 << 20
)

// SourceType identifies how fetched bytes must be parsed.
type SourceType string

const (
	SourceHTML SourceType = "html"
	SourcePDF  SourceType = "pdf"
)

// DetectType classifies a URL by its path suffix. Only a ".pdf" suffix
// (case-insensitive) selects PDF parsing; everything else is HTML.
func DetectType(rawURL string) SourceType {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	if strings.HasSuffix(strings.ToLower(p), ".pdf") {
		return SourcePDF
	}
	return SourceHTML
}

// Options configures a Fetcher.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	Concurrency   int
	RatePerSecond float64 // 0 disables rate limiting
	MaxBodyBytes  int64
	Client        *http.Client
	Logger        *slog.Logger
	Metrics       *metrics.Instruments
}

// Result is the outcome of fetching one URL. A failed fetch carries a
// non-nil Err and an empty Body; callers skip it.
type Result struct {
	URL         string
	SourceType  SourceType
	Body        []byte
	ContentType string
	StatusCode  int
	RetrievedAt time.Time
	Err         error
}

// OK reports whether the fetch produced content.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Body) > 0
}

// ProgressFunc is called after each URL in FetchAll completes.
type ProgressFunc func(done, total int, url string)

// Fetcher retrieves URLs with a bounded timeout and a browser identity.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	concurrency int
	maxBody     int64
	limiter     *rate.Limiter
	logger      *slog.Logger
	metrics     *metrics.Instruments
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	client = withTimeout(client, timeout)

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Fetcher{
		client:      client,
		userAgent:   ua,
		concurrency: concurrency,
		maxBody:     maxBody,
		limiter:     limiter,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// withTimeout returns a shallow copy of c with the given timeout so a
// caller-supplied client is never mutated.
func withTimeout(c *http.Client, timeout time.Duration) *http.Client {
	cp := *c
	if cp.Timeout <= 0 || cp.Timeout > timeout {
		cp.Timeout = timeout
	}
	return &cp
}

// Fetch downloads a single URL. It never returns an error directly; any
// failure is logged and recorded in Result.Err.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	res := Result{URL: rawURL, SourceType: DetectType(rawURL)}

	err := f.do(ctx, &res)
	res.RetrievedAt = time.Now().UTC()
	if err != nil {
		res.Err = err
		res.Body = nil
		f.logger.Warn("fetch failed", "url", rawURL, "error", err)
		f.metrics.FetchDone(ctx, string(res.SourceType), true, string(kindOf(err)))
		return res
	}
	f.logger.Debug("fetched", "url", rawURL, "bytes", len(res.Body), "type", res.SourceType)
	f.metrics.FetchDone(ctx, string(res.SourceType), false, "")
	return res
}

func (f *Fetcher) do(ctx context.Context, res *Result) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return &Error{URL: res.URL, Kind: KindNetwork, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return &Error{URL: res.URL, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	if res.SourceType == SourcePDF {
		req.Header.Set("Accept", "application/pdf,*/*;q=0.8")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return classify(res.URL, err)
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.ContentType = resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{URL: res.URL, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return classify(res.URL, err)
	}
	if len(body) == 0 {
		return &Error{URL: res.URL, Kind: KindEmpty}
	}
	res.Body = body
	return nil
}

// FetchAll fetches urls with bounded concurrency. Results are returned in
// input order; a failed URL never aborts the batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, onProgress ProgressFunc) []Result {
	total := len(urls)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	sem := make(chan struct{}, f.concurrency)
	var processed int64
	var progressMu sync.Mutex
	report := func(u string) {
		n := atomic.AddInt64(&processed, 1)
		if onProgress != nil {
			progressMu.Lock()
			onProgress(int(n), total, u)
			progressMu.Unlock()
		}
	}

	var wg sync.WaitGroup
	for i, u := range urls {
		select {
		case <-ctx.Done():
			results[i] = Result{URL: u, SourceType: DetectType(u), RetrievedAt: time.Now().UTC(),
				Err: &Error{URL: u, Kind: KindNetwork, Err: ctx.Err()}}
			report(u)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = f.Fetch(ctx, u)
			report(u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindTimeout ErrorKind = "timeout"
	KindStatus  ErrorKind = "status"
	KindEmpty   ErrorKind = "empty"
)

// Error describes a failed fetch.
type Error struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case KindEmpty:
		return fmt.Sprintf("fetch %s: empty body", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func classify(u string, err error) error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{URL: u, Kind: kind, Err: err}
}

func kindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}
