package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acid-base/researcher/internal/archive"
	"github.com/Acid-base/researcher/internal/audit"
	"github.com/Acid-base/researcher/internal/db"
	"github.com/Acid-base/researcher/internal/embeddings"
	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/research"
)

func newServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	dir := t.TempDir()

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	idx, err := index.Open(context.Background(), index.Options{
		Path:     filepath.Join(dir, "index.gob.gz"),
		Embedder: embeddings.NewHashingEmbedder(0),
	})
	require.NoError(t, err)
	svc, err := research.New(research.Options{Index: idx})
	require.NoError(t, err)

	return New(cfg, svc, archive.NewStore(database, filepath.Join(dir, "reports"), nil), audit.NewStore(database), nil)
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t, Config{})

	w, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRootStatus(t *testing.T) {
	srv := newServer(t, Config{Version: "1.2.3"})

	w, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Name, body["name"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestMountsFeatureRoutes(t *testing.T) {
	srv := newServer(t, Config{})

	w, body := get(t, srv, "/index-info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body["status"])

	w, body = get(t, srv, "/reports")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "reports")

	w, _ = get(t, srv, "/reports/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = get(t, srv, "/ingestions")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalStoresNotMounted(t *testing.T) {
	srv := New(Config{}, nil, nil, nil, nil)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newServer(t, Config{AllowAll: true})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAddr(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1", Port: 5000}, nil, nil, nil, nil)
	assert.Equal(t, "127.0.0.1:5000", srv.Addr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
