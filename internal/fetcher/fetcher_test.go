package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acid-base/researcher/internal/metrics"
	"github.com/Acid-base/researcher/internal/metrics/metricstest"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		url  string
		want SourceType
	}{
		{"https://example.com/paper.pdf", SourcePDF},
		{"https://example.com/PAPER.PDF", SourcePDF},
		{"https://example.com/paper.pdf?download=1", SourcePDF},
		{"https://example.com/paper", SourceHTML},
		{"https://example.com/pdf", SourceHTML},
		{"https://example.com/viewer?file=x.pdf", SourceHTML},
		{"not a url.pdf", SourcePDF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectType(tt.url), tt.url)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><title>ok</title><body>" + r.UserAgent() + "</body></html>"))
	})
	mux.HandleFunc("/doc.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchHTML(t *testing.T) {
	srv := newTestServer(t)
	f := New(Options{})

	before := time.Now().UTC()
	res := f.Fetch(context.Background(), srv.URL+"/page")
	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, SourceHTML, res.SourceType)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(res.Body), "Chrome/")
	assert.False(t, res.RetrievedAt.Before(before))
}

func TestFetchPDF(t *testing.T) {
	srv := newTestServer(t)
	res := New(Options{}).Fetch(context.Background(), srv.URL+"/doc.pdf")
	require.True(t, res.OK())
	assert.Equal(t, SourcePDF, res.SourceType)
	assert.Equal(t, "application/pdf", res.ContentType)
}

func TestFetchFailuresAreCaptured(t *testing.T) {
	srv := newTestServer(t)
	rec := metricstest.New(t)
	f := New(Options{Timeout: 200 * time.Millisecond, Metrics: rec.Instruments})
	ctx := context.Background()

	tests := []struct {
		path string
		kind ErrorKind
	}{
		{"/missing", KindStatus},
		{"/empty", KindEmpty},
		{"/slow", KindTimeout},
	}
	for _, tt := range tests {
		res := f.Fetch(ctx, srv.URL+tt.path)
		assert.False(t, res.OK(), tt.path)
		assert.Empty(t, res.Body, tt.path)

		var fe *Error
		require.True(t, errors.As(res.Err, &fe), tt.path)
		assert.Equal(t, tt.kind, fe.Kind, tt.path)
		assert.Contains(t, fe.Error(), srv.URL+tt.path)
	}

	res := f.Fetch(ctx, "http://127.0.0.1:1/unreachable")
	assert.False(t, res.OK())

	assert.EqualValues(t, 4, rec.Counter(t, metrics.NameFetchRequests))
	assert.EqualValues(t, 4, rec.Counter(t, metrics.NameFetchFailures))
}

func TestTimeoutIsCapped(t *testing.T) {
	f := New(Options{Timeout: time.Hour})
	assert.Equal(t, MaxTimeout, f.client.Timeout)

	custom := &http.Client{Timeout: time.Minute}
	f = New(Options{Client: custom, Timeout: 3 * time.Second})
	assert.Equal(t, 3*time.Second, f.client.Timeout)
	assert.Equal(t, time.Minute, custom.Timeout, "caller client must not be mutated")
}

func TestFetchAllPreservesOrderAndSkipsFailures(t *testing.T) {
	srv := newTestServer(t)
	f := New(Options{Concurrency: 3})

	urls := []string{
		srv.URL + "/page",
		srv.URL + "/missing",
		srv.URL + "/doc.pdf",
		srv.URL + "/empty",
		srv.URL + "/page",
	}

	var mu sync.Mutex
	var calls []int
	results := f.FetchAll(context.Background(), urls, func(done, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(urls), total)
		calls = append(calls, done)
	})

	require.Len(t, results, len(urls))
	for i, r := range results {
		assert.Equal(t, urls[i], r.URL)
	}
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	assert.False(t, results[3].OK())
	assert.True(t, results[4].OK())
	assert.Len(t, calls, len(urls))
}

func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(Options{Concurrency: 1}).FetchAll(ctx, []string{"http://a.invalid/x", "http://b.invalid/y"}, nil)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.OK())
		assert.Error(t, r.Err)
	}
}

func TestFetchAllEmpty(t *testing.T) {
	assert.Empty(t, New(Options{}).FetchAll(context.Background(), nil, nil))
}

func TestRateLimiterApplied(t *testing.T) {
	srv := newTestServer(t)
	f := New(Options{RatePerSecond: 20})
	require.NotNil(t, f.limiter)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.True(t, f.Fetch(context.Background(), srv.URL+"/page").OK())
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
