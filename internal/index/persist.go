package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// Persist writes the whole index to its archive path.
func (m *Manager) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistLocked(); err != nil {
		m.metrics.PersistFailed(ctx)
		return err
	}
	return nil
}

// persistLocked exports to a temp file next to the archive and renames it
// into place, so readers of the path never see a partial file. Callers
// hold mu.
func (m *Manager) persistLocked() error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(m.path))
	compress := strings.HasSuffix(m.path, ".gz")
	if err := m.db.ExportToFile(tmp, compress, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export index: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace index archive: %w", err)
	}
	return nil
}

// load replaces the in-memory state with the archive contents.
func (m *Manager) load() error {
	db := chromem.NewDB()
	if err := db.ImportFromFile(m.path, ""); err != nil {
		return fmt.Errorf("import %s: %w", m.path, err)
	}

	chunks := db.GetCollection(chunksCollection, m.ef)
	if chunks == nil {
		return fmt.Errorf("archive %s has no %q collection", m.path, chunksCollection)
	}
	state, err := db.GetOrCreateCollection(stateCollection, nil, m.ef)
	if err != nil {
		return fmt.Errorf("open state collection: %w", err)
	}

	nextID, docCount := 1, chunks.Count()
	if doc, err := state.GetByID(context.Background(), stateDocID); err == nil {
		if v, err := strconv.Atoi(doc.Metadata["next_id"]); err == nil {
			nextID = v
		}
		if v, err := strconv.Atoi(doc.Metadata["document_count"]); err == nil {
			docCount = v
		}
	}
	// An archive written without the counter still yields fresh ids.
	if nextID <= docCount {
		nextID = docCount + 1
	}

	m.db, m.chunks, m.state = db, chunks, state
	m.nextID, m.docCount = nextID, docCount
	return nil
}

// saveState stores the counters in the state collection so they are
// exported with the chunks. Callers hold mu.
func (m *Manager) saveState(ctx context.Context) error {
	doc := chromem.Document{
		ID:        stateDocID,
		Content:   stateDocID,
		Embedding: []float32{1},
		Metadata: map[string]string{
			"next_id":        strconv.Itoa(m.nextID),
			"document_count": strconv.Itoa(m.docCount),
		},
	}
	if err := m.state.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("save index counters: %w", err)
	}
	return nil
}
