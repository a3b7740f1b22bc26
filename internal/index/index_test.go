package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acid-base/researcher/internal/embeddings"
	"github.com/Acid-base/researcher/internal/metrics"
	"github.com/Acid-base/researcher/internal/metrics/metricstest"
)

// switchEmbedder wraps the hashing embedder and fails while broken is set.
type switchEmbedder struct {
	inner  *embeddings.HashingEmbedder
	broken atomic.Bool
}

func newSwitchEmbedder() *switchEmbedder {
	return &switchEmbedder{inner: embeddings.NewHashingEmbedder(128)}
}

func (s *switchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.broken.Load() {
		return nil, errors.New("embedding backend unavailable")
	}
	return s.inner.Embed(ctx, texts)
}
func (s *switchEmbedder) Dimensions() int { return s.inner.Dimensions() }
func (s *switchEmbedder) Name() string    { return "switch" }

func openTest(t *testing.T, path string, e embeddings.Embedder) *Manager {
	t.Helper()
	m, err := Open(context.Background(), Options{Path: path, Embedder: e})
	require.NoError(t, err)
	return m
}

func records(url, title string, texts ...string) []Record {
	out := make([]Record, len(texts))
	for i, text := range texts {
		out[i] = Record{Text: text, Metadata: Metadata{
			URL:           url,
			Title:         title,
			SourceType:    "html",
			RetrievedAt:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			OriginalQuery: "renewable energy",
			ChunkIndex:    i + 1,
			TotalChunks:   len(texts),
		}}
	}
	return out
}

func ids(results []Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	sort.Ints(out)
	return out
}

func TestEmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob.gz")
	m := openTest(t, path, embeddings.NewHashingEmbedder(0))

	assert.Equal(t, []Result{}, m.Retrieve(context.Background(), "anything", 5))
	assert.Equal(t, StatusEmpty, m.Query(context.Background(), "anything", 5).Status)

	n, err := m.IndexDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	info := m.Info()
	assert.False(t, info.IndexExists)
	assert.Zero(t, info.DocumentCount)
	assert.Equal(t, 1, info.NextID)
	assert.Equal(t, "hashing-384", info.ModelName)
	assert.Equal(t, path, info.IndexPath)
	assert.Empty(t, info.LoadError)
}

func TestIDsAreMonotonicAcrossCallsAndRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.gob.gz")
	e := embeddings.NewHashingEmbedder(64)

	m := openTest(t, path, e)
	n, err := m.IndexDocuments(ctx, records("https://a.example", "A", "alpha one", "alpha two"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = m.IndexDocuments(ctx, records("https://b.example", "B", "beta one", "beta two", "beta three"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(m.Retrieve(ctx, "alpha beta", 10)))
	require.FileExists(t, path)

	reopened := openTest(t, path, e)
	info := reopened.Info()
	assert.True(t, info.IndexExists)
	assert.Equal(t, 5, info.DocumentCount)
	assert.Equal(t, 6, info.NextID)

	_, err = reopened.IndexDocuments(ctx, records("https://c.example", "C", "gamma"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(reopened.Retrieve(ctx, "alpha beta gamma", 10)))
}

func TestRetrieveRanksMatchingSourceFirst(t *testing.T) {
	ctx := context.Background()
	m := openTest(t, filepath.Join(t.TempDir(), "index.gob.gz"), embeddings.NewHashingEmbedder(0))

	_, err := m.IndexDocuments(ctx, records("https://solar.example/basics", "Solar Basics",
		"Solar panels convert sunlight into electricity using photovoltaic cells.",
		"Installation costs for rooftop systems have fallen sharply."))
	require.NoError(t, err)
	_, err = m.IndexDocuments(ctx, records("https://bread.example/guide", "Baking Guide",
		"Bread dough needs flour, water, yeast and time to rise."))
	require.NoError(t, err)

	results := m.Retrieve(ctx, "photovoltaic cells convert sunlight", 3)
	require.Len(t, results, 3)
	top := results[0]
	assert.Equal(t, "https://solar.example/basics", top.Metadata.URL)
	assert.Equal(t, "Solar Basics", top.Metadata.Title)
	assert.Equal(t, 1, top.Metadata.ChunkIndex)
	assert.Equal(t, 2, top.Metadata.TotalChunks)
	assert.Equal(t, "renewable energy", top.Metadata.OriginalQuery)
	assert.True(t, top.Metadata.RetrievedAt.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
	for _, r := range results[1:] {
		assert.Greater(t, top.Score, r.Score)
	}

	assert.Len(t, m.Retrieve(ctx, "sunlight", 1), 1)
	assert.Empty(t, m.Retrieve(ctx, "sunlight", 0))
}

func TestCorruptArchiveRecoversEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.gob.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a gob archive"), 0o644))

	rec := metricstest.New(t)
	m, err := Open(context.Background(), Options{Path: path, Embedder: embeddings.NewHashingEmbedder(0), Metrics: rec.Instruments})
	require.NoError(t, err)

	info := m.Info()
	assert.NotEmpty(t, info.LoadError)
	assert.Zero(t, info.DocumentCount)
	assert.False(t, info.IndexExists)
	assert.FileExists(t, path+".corrupt")
	assert.EqualValues(t, 1, rec.Counter(t, metrics.NameIndexLoadFailures))

	n, err := m.IndexDocuments(context.Background(), records("https://a.example", "A", "fresh start"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, m.Info().IndexExists)
}

func TestEmbeddingFailureConsumesNoIDs(t *testing.T) {
	ctx := context.Background()
	e := newSwitchEmbedder()
	m := openTest(t, filepath.Join(t.TempDir(), "index.gob.gz"), e)

	_, err := m.IndexDocuments(ctx, records("https://a.example", "A", "one"))
	require.NoError(t, err)

	e.broken.Store(true)
	n, err := m.IndexDocuments(ctx, records("https://b.example", "B", "two", "three"))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, m.Info().NextID)
	assert.Equal(t, 1, m.Info().DocumentCount)

	e.broken.Store(false)
	_, err = m.IndexDocuments(ctx, records("https://b.example", "B", "two"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(m.Retrieve(ctx, "one two", 5)))
}

func TestQueryFailureIsDistinguishable(t *testing.T) {
	ctx := context.Background()
	rec := metricstest.New(t)
	e := newSwitchEmbedder()
	m, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "i.gob.gz"), Embedder: e, Metrics: rec.Instruments})
	require.NoError(t, err)

	_, err = m.IndexDocuments(ctx, records("https://a.example", "A", "wind turbines"))
	require.NoError(t, err)

	e.broken.Store(true)
	out := m.Query(ctx, "wind", 3)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
	assert.Equal(t, []Result{}, m.Retrieve(ctx, "wind", 3))
	assert.EqualValues(t, 2, rec.Counter(t, metrics.NameRetrievalFailures))
}

func TestConcurrentWritersGetUniqueIDs(t *testing.T) {
	ctx := context.Background()
	m := openTest(t, filepath.Join(t.TempDir(), "index.gob.gz"), embeddings.NewHashingEmbedder(32))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.IndexDocuments(ctx, records("https://w.example", "W", "shared words", "more shared words"))
			assert.NoError(t, err)
			m.Retrieve(ctx, "shared", 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, ids(m.Retrieve(ctx, "shared words", 100)))
	assert.Equal(t, 9, m.Info().NextID)
}

func TestPersistIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.gob.gz")
	m := openTest(t, path, embeddings.NewHashingEmbedder(16))

	require.NoError(t, m.Persist(context.Background()))
	require.FileExists(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
}

func TestOpenRequiresEmbedder(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "x")})
	assert.Error(t, err)
}
