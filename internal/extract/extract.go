// Package extract converts fetched HTML and PDF bytes into plain text
// plus source metadata.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Acid-base/researcher/internal/fetcher"
	"github.com/Acid-base/researcher/internal/metrics"
)

const (
	UntitledHTML = "Untitled"
	UntitledPDF  = "Untitled PDF"
)

// ErrNoContent is returned when a document yields no text.
var ErrNoContent = errors.New("no content extracted")

// SourceDocument is one fetched and extracted unit, before cleaning.
type SourceDocument struct {
	URL         string
	SourceType  fetcher.SourceType
	Title       string
	RetrievedAt time.Time
	RawText     string
}

// Options configures an Extractor.
type Options struct {
	// Readability extracts the main article content of HTML pages and
	// falls back to the DOM walk when it finds nothing.
	Readability bool
	// FlatText joins all HTML text with single spaces. When false, block
	// elements are separated by blank lines so paragraphs survive.
	FlatText bool
	Logger   *slog.Logger
	Metrics  *metrics.Instruments
}

// Extractor dispatches fetched content to the HTML or PDF path.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract converts a successful fetch result into a SourceDocument.
// RetrievedAt is taken from the fetch time.
func (e *Extractor) Extract(ctx context.Context, res fetcher.Result) (SourceDocument, error) {
	if !res.OK() {
		if res.Err != nil {
			return SourceDocument{}, fmt.Errorf("extract %s: %w", res.URL, res.Err)
		}
		return SourceDocument{}, fmt.Errorf("extract %s: %w", res.URL, ErrNoContent)
	}

	doc := SourceDocument{
		URL:         res.URL,
		SourceType:  res.SourceType,
		RetrievedAt: res.RetrievedAt,
	}

	switch res.SourceType {
	case fetcher.SourcePDF:
		text, err := PDF(res.Body)
		if err != nil {
			return SourceDocument{}, fmt.Errorf("extract pdf %s: %w", res.URL, err)
		}
		doc.Title = PDFTitle(res.URL)
		doc.RawText = text
	default:
		title, text, err := HTML(res.Body, !e.opts.FlatText)
		if err != nil {
			return SourceDocument{}, fmt.Errorf("extract html %s: %w", res.URL, err)
		}
		if e.opts.Readability {
			if article, ok := Readable(res.Body, res.URL); ok {
				text = article
			} else {
				e.logger.Debug("readability found no article, using dom text", "url", res.URL)
			}
		}
		doc.Title = title
		doc.RawText = text
	}

	if strings.TrimSpace(doc.RawText) == "" {
		return SourceDocument{}, fmt.Errorf("extract %s: %w", res.URL, ErrNoContent)
	}
	e.opts.Metrics.DocumentExtracted(ctx, string(doc.SourceType))
	return doc, nil
}
