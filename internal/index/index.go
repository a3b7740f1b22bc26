// Package index owns the persistent similarity index: it assigns chunk
// ids, embeds and stores chunks, answers top-k queries and persists the
// whole state to a single archive file.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Acid-base/researcher/internal/embeddings"
	"github.com/Acid-base/researcher/internal/metrics"
)

const (
	chunksCollection = "chunks"
	stateCollection  = "index_state"
	stateDocID       = "state"

	// DefaultPath is where the archive lives unless configured otherwise.
	DefaultPath = "data/index/research.gob.gz"
)

// Options configures a Manager.
type Options struct {
	Path     string
	Embedder embeddings.Embedder
	Logger   *slog.Logger
	Metrics  *metrics.Instruments
}

// Info describes the index for status endpoints.
type Info struct {
	IndexExists   bool   `json:"index_exists"`
	DocumentCount int    `json:"document_count"`
	NextID        int    `json:"next_id"`
	IndexPath     string `json:"index_path"`
	ModelName     string `json:"model_name"`
	LoadError     string `json:"load_error,omitempty"`
}

// Status classifies a query outcome.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Outcome is the result of Query. Err is set only for StatusFailed.
type Outcome struct {
	Status  Status
	Results []Result
	Err     error
}

// Manager is the single owner of the index. Writers serialize on mu;
// readers share it.
type Manager struct {
	path     string
	embedder embeddings.Embedder
	ef       chromem.EmbeddingFunc
	logger   *slog.Logger
	metrics  *metrics.Instruments

	mu        sync.RWMutex
	db        *chromem.DB
	chunks    *chromem.Collection
	state     *chromem.Collection
	nextID    int
	docCount  int
	loadError error
}

// Open loads the archive at opts.Path when it exists. A load failure is
// logged, counted and reported through Info().LoadError; the unreadable
// archive is moved to "<path>.corrupt" and the manager starts empty. Open only fails when the in-memory collections cannot be
// created.
func Open(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Embedder == nil {
		return nil, errors.New("index: embedder is required")
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Manager{
		path:     opts.Path,
		embedder: opts.Embedder,
		ef:       embeddings.ToChromemFunc(opts.Embedder),
		logger:   logger,
		metrics:  opts.Metrics,
		nextID:   1,
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := m.load(); err != nil {
			m.loadError = err
			m.metrics.IndexLoadFailed(ctx)
			aside := m.path + ".corrupt"
			if rerr := os.Rename(m.path, aside); rerr != nil {
				aside = ""
			}
			logger.Warn("index load failed, starting with an empty index",
				"path", m.path, "moved_to", aside, "error", err)
		} else {
			logger.Info("index loaded", "path", m.path, "documents", m.docCount, "next_id", m.nextID)
			return m, nil
		}
	}

	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

// reset installs a fresh, empty in-memory database.
func (m *Manager) reset() error {
	db := chromem.NewDB()
	chunks, err := db.GetOrCreateCollection(chunksCollection, nil, m.ef)
	if err != nil {
		return fmt.Errorf("create chunks collection: %w", err)
	}
	state, err := db.GetOrCreateCollection(stateCollection, nil, m.ef)
	if err != nil {
		return fmt.Errorf("create state collection: %w", err)
	}
	m.db, m.chunks, m.state = db, chunks, state
	m.nextID, m.docCount = 1, 0
	return nil
}

// IndexDocuments embeds, stores and persists a batch. The whole batch is
// embedded before any id is assigned, so an embedding failure leaves the
// index and its id counter untouched. A persist failure is logged and the
// count is still returned.
func (m *Manager) IndexDocuments(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(records), err)
	}
	if len(vectors) != len(records) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(records))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	first := m.nextID
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(first + i),
			Content:   r.Text,
			Metadata:  metadataToMap(r.Metadata),
			Embedding: vectors[i],
		}
	}

	// Ids are consumed even if the insert fails part way, so a retry can
	// never overwrite a partially inserted chunk.
	m.nextID = first + len(records)
	if err := m.chunks.AddDocuments(ctx, docs, 1); err != nil {
		m.docCount = m.chunks.Count()
		return 0, fmt.Errorf("insert %d chunks: %w", len(records), err)
	}
	m.docCount += len(records)
	if err := m.saveState(ctx); err != nil {
		return 0, err
	}

	m.metrics.ChunksIndexed(ctx, len(records))
	m.logger.Info("indexed chunks", "count", len(records), "first_id", first, "last_id", m.nextID-1)

	if err := m.persistLocked(); err != nil {
		m.logger.Error("index persist failed", "path", m.path, "error", err)
		m.metrics.PersistFailed(ctx)
	}
	return len(records), nil
}

// Query returns up to limit results ranked by descending score.
func (m *Manager) Query(ctx context.Context, query string, limit int) Outcome {
	start := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	count := m.chunks.Count()
	if count == 0 || limit <= 0 {
		return Outcome{Status: StatusEmpty}
	}

	res, err := m.chunks.Query(ctx, query, min(limit, count), nil, nil)
	m.metrics.RetrievalDone(ctx, time.Since(start), err != nil)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("query %q: %w", query, err)}
	}

	results := make([]Result, 0, len(res))
	for _, r := range res {
		id, _ := strconv.Atoi(r.ID)
		results = append(results, Result{
			ID:       id,
			Text:     r.Content,
			Metadata: mapToMetadata(r.Metadata),
			Score:    r.Similarity,
		})
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if len(results) == 0 {
		return Outcome{Status: StatusEmpty}
	}
	return Outcome{Status: StatusOK, Results: results}
}

// Retrieve is Query for callers that only want results. Failures are
// logged and yield an empty slice.
func (m *Manager) Retrieve(ctx context.Context, query string, limit int) []Result {
	out := m.Query(ctx, query, limit)
	if out.Status == StatusFailed {
		m.logger.Error("retrieval failed", "query", query, "error", out.Err)
		return []Result{}
	}
	if out.Results == nil {
		return []Result{}
	}
	return out.Results
}

// Info reports index statistics.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		DocumentCount: m.docCount,
		NextID:        m.nextID,
		IndexPath:     m.path,
		ModelName:     m.embedder.Name(),
	}
	if _, err := os.Stat(m.path); err == nil {
		info.IndexExists = true
	}
	if m.loadError != nil {
		info.LoadError = m.loadError.Error()
	}
	return info
}
