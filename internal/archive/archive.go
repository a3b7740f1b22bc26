// Package archive keeps every generated report as a JSON file and as a
// row in the SQLite reports table.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Acid-base/researcher/internal/db"
	"github.com/Acid-base/researcher/internal/report"
)

// DefaultDir is where report files are written unless configured.
const DefaultDir = "data/reports"

const (
	fileTimeLayout = "20060102_150405"
	maxQueryInName = 50
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("report not found")

// Record is an archived report.
type Record struct {
	ID           string            `json:"id"`
	Query        string            `json:"query"`
	CreatedAt    time.Time         `json:"created_at"`
	FilePath     string            `json:"file_path"`
	Provider     string            `json:"provider,omitempty"`
	Model        string            `json:"model,omitempty"`
	SourceCount  int               `json:"source_count"`
	InputTokens  int               `json:"input_tokens,omitempty"`
	OutputTokens int               `json:"output_tokens,omitempty"`
	Content      string            `json:"report,omitempty"`
	Citations    []report.Citation `json:"citations,omitempty"`
}

// Report converts the record back into a report for rendering.
func (r *Record) Report() *report.Report {
	return &report.Report{
		Query:        r.Query,
		Content:      r.Content,
		Citations:    r.Citations,
		Provider:     r.Provider,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		GeneratedAt:  r.CreatedAt,
	}
}

// fileBody is the layout of a report JSON file.
type fileBody struct {
	ID        string            `json:"id"`
	Query     string            `json:"query"`
	Timestamp string            `json:"timestamp"`
	Report    string            `json:"report"`
	Citations []report.Citation `json:"citations"`
}

// Store writes and reads archived reports.
type Store struct {
	db     *db.DB
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store writing files under dir.
func NewStore(database *db.DB, dir string, logger *slog.Logger) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: database, dir: dir, logger: logger, now: time.Now}
}

// Save writes the report file and records it. The file is written first;
// a failed insert leaves the file in place and returns the error.
func (s *Store) Save(ctx context.Context, rep *report.Report) (*Record, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	created := s.now()
	rec := &Record{
		ID:           uuid.New().String(),
		Query:        rep.Query,
		CreatedAt:    created.UTC(),
		Provider:     rep.Provider,
		Model:        rep.Model,
		SourceCount:  len(rep.Citations),
		InputTokens:  rep.InputTokens,
		OutputTokens: rep.OutputTokens,
		Content:      rep.Content,
		Citations:    rep.Citations,
	}

	data, err := json.MarshalIndent(fileBody{
		ID:        rec.ID,
		Query:     rep.Query,
		Timestamp: created.Format(fileTimeLayout),
		Report:    rep.Content,
		Citations: nonNil(rep.Citations),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	path, err := s.writeFile(created, rep.Query, data)
	if err != nil {
		return nil, err
	}
	rec.FilePath = path

	citations, err := json.Marshal(nonNil(rep.Citations))
	if err != nil {
		return nil, fmt.Errorf("encode citations: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, query, created_at, file_path, provider, model,
			source_count, input_tokens, output_tokens, content, citations
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.CreatedAt.Format(time.DateTime), rec.FilePath,
		rec.Provider, rec.Model, rec.SourceCount, rec.InputTokens, rec.OutputTokens,
		rec.Content, string(citations),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting report: %w", err)
	}

	s.logger.Info("report archived", "id", rec.ID, "path", rec.FilePath)
	return rec, nil
}

// writeFile creates a new file named after the time and query, adding a
// numeric suffix when a report with the same name already exists.
func (s *Store) writeFile(created time.Time, query string, data []byte) (string, error) {
	base := created.Format(fileTimeLayout) + "_" + SafeName(query)
	for i := 1; ; i++ {
		name := base + ".json"
		if i > 1 {
			name = fmt.Sprintf("%s_%d.json", base, i)
		}
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write report file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write report file: %w", err)
		}
		return path, nil
	}
}

// List returns the newest reports first, without content or citations.
// limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, query, created_at, file_path, provider, model, source_count, input_tokens, output_tokens
		FROM reports ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r  Record
			ts string
		)
		if err := rows.Scan(&r.ID, &r.Query, &ts, &r.FilePath, &r.Provider, &r.Model,
			&r.SourceCount, &r.InputTokens, &r.OutputTokens); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one report with its content and citations.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var (
		r             Record
		ts, citations string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, query, created_at, file_path, provider, model, source_count,
			   input_tokens, output_tokens, content, citations
		FROM reports WHERE id = ?`, id).Scan(
		&r.ID, &r.Query, &ts, &r.FilePath, &r.Provider, &r.Model, &r.SourceCount,
		&r.InputTokens, &r.OutputTokens, &r.Content, &citations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	r.CreatedAt = parseTime(ts)
	if err := json.Unmarshal([]byte(citations), &r.Citations); err != nil {
		return nil, fmt.Errorf("decoding citations of report %s: %w", id, err)
	}
	return &r, nil
}

// SafeName keeps letters and digits of query, replaces every other rune
// with '_' and truncates to 50 runes.
func SafeName(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if n == maxQueryInName {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}

func parseTime(ts string) time.Time {
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, ts)
	return t
}

func nonNil(c []report.Citation) []report.Citation {
	if c == nil {
		return []report.Citation{}
	}
	return c
}
