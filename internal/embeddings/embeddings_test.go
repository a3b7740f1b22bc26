package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashingEmbedder(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, DefaultHashingDimensions, e.Dimensions())
	assert.Equal(t, "hashing-384", e.Name())

	vecs, err := e.Embed(context.Background(), []string{
		"Solar panels convert sunlight into electricity.",
		"Solar panels convert sunlight into electricity.",
		"Photovoltaic solar panels generate electricity from sunlight.",
		"The recipe needs flour, butter and sugar.",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 5)

	for _, v := range vecs {
		require.Len(t, v, DefaultHashingDimensions)
		var n float64
		for _, x := range v {
			n += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(n), 1e-5)
	}

	assert.Equal(t, vecs[0], vecs[1])
	assert.Greater(t, cosine(vecs[0], vecs[2]), cosine(vecs[0], vecs[3]))
}

func TestHashingIgnoresCaseAndStopwords(t *testing.T) {
	e := NewHashingEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"The SOLAR panel", "solar panel"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
}

func TestHashingHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashingEmbedder(8).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToChromemFunc(t *testing.T) {
	e := NewHashingEmbedder(16)
	fn := ToChromemFunc(e)

	got, err := fn(context.Background(), "wind turbines")
	require.NoError(t, err)
	want, _ := e.Embed(context.Background(), []string{"wind turbines"})
	assert.Equal(t, want[0], got)
}

func TestOllamaEmbedderBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		resp := ollamaEmbedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("all-minilm", 2, srv.URL+"/")
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vecs)
	assert.Equal(t, "ollama/all-minilm", e.Name())
}

func TestOllamaEmbedderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("missing", 2, srv.URL).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.0,1.0]},
			{"object":"embedding","index":0,"embedding":[1.0,0.0]}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", ModelTextEmbedding3Small, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, 1536, e.Dimensions())
}

func TestGoogleEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/text-embedding-004:embedContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Write([]byte(`{"embedding":{"values":[0.5,0.5]}}`))
	}))
	defer srv.Close()

	e := NewGoogleEmbedder("k", ModelTextEmbedding004, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 768, e.Dimensions())
}

func TestNew(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &HashingEmbedder{}, e)

	e, err = New(Options{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "ollama/all-minilm", e.Name())

	_, err = New(Options{Provider: ProviderOpenAI})
	assert.Error(t, err)

	_, err = New(Options{Provider: "word2vec"})
	assert.Error(t, err)
}
