package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searxngBody = `{
  "query": "solar power",
  "number_of_results": 4,
  "results": [
    {"url": "https://en.wikipedia.org/wiki/Solar_power", "title": "Solar power", "content": "Solar power is...", "engine": "wikipedia", "score": 9.5},
    {"url": "https://www.pinterest.com/pin/123", "title": "Pretty panels", "engine": "bing"},
    {"url": "", "title": "broken"},
    {"url": "https://arxiv.org/pdf/2101.00001.pdf", "title": "A paper", "engine": "arxiv"},
    {"url": "https://en.wikipedia.org/wiki/Solar_power", "title": "duplicate"}
  ],
  "suggestions": ["solar energy"]
}`

func newSearxng(t *testing.T, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searxngBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchSendsDefaults(t *testing.T) {
	srv := newSearxng(t, func(r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "solar power", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, DefaultCategories, q.Get("categories"))
		assert.Equal(t, DefaultLanguage, q.Get("language"))
		assert.False(t, q.Has("engines"))
		assert.False(t, q.Has("time_range"))
	})

	c, err := New(Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	resp, err := c.Search(context.Background(), Request{Query: "solar power"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 5)
	assert.Equal(t, []string{"solar energy"}, resp.Suggestions)
}

func TestSearchOverrides(t *testing.T) {
	srv := newSearxng(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "it", q.Get("categories"))
		assert.Equal(t, "de", q.Get("language"))
		assert.Equal(t, "arxiv,wikipedia", q.Get("engines"))
		assert.Equal(t, "year", q.Get("time_range"))
	})

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), Request{
		Query: "x", Categories: "it", Language: "de", Engines: "arxiv,wikipedia", TimeRange: "year",
	})
	require.NoError(t, err)
}

func TestSearchExcludesAndURLs(t *testing.T) {
	srv := newSearxng(t, nil)
	c, err := New(Options{BaseURL: srv.URL, Exclude: []string{"*.pinterest.com/**"}})
	require.NoError(t, err)

	resp, err := c.Search(context.Background(), Request{Query: "solar"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Excluded)

	assert.Equal(t, []string{
		"https://en.wikipedia.org/wiki/Solar_power",
		"https://arxiv.org/pdf/2101.00001.pdf",
	}, resp.URLs(10))
	assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Solar_power"}, resp.URLs(1))
	assert.Len(t, resp.URLs(0), 2)
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), Request{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = c.Search(context.Background(), Request{Query: "  "})
	assert.Error(t, err)
}

func TestNewRejectsBadGlob(t *testing.T) {
	_, err := New(Options{Exclude: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestBaseURLFromEnvironment(t *testing.T) {
	t.Setenv("SEARXNG_HOST", "http://search.internal:8888")
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://search.internal:8888", c.BaseURL())

	t.Setenv("SEARXNG_HOST", "")
	c, err = New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestEmptyResponseURLs(t *testing.T) {
	assert.Equal(t, []string{}, (&Response{}).URLs(5))
}
