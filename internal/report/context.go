// Package report turns retrieved chunks into a cited research report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Acid-base/researcher/internal/index"
)

// Citation identifies the source behind one numbered context block.
type Citation struct {
	ID          int       `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	RetrievedAt time.Time `json:"retrieval_date,omitzero"`
	SourceType  string    `json:"source_type"`
}

// FormatContext numbers the results from 1 in order, one block per
// result, the same numbering Citations uses.
func FormatContext(results []index.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		source := r.Metadata.URL
		if source == "" {
			source = fmt.Sprintf("Source %d", i+1)
		}
		blocks[i] = fmt.Sprintf("Source [%d] - %s:\n%s\n", i+1, source, r.Text)
	}
	return strings.Join(blocks, "\n")
}

// Citations lists one citation per result, aligned with FormatContext.
func Citations(results []index.Result) []Citation {
	out := make([]Citation, len(results))
	for i, r := range results {
		c := Citation{
			ID:          i + 1,
			URL:         r.Metadata.URL,
			Title:       r.Metadata.Title,
			RetrievedAt: r.Metadata.RetrievedAt,
			SourceType:  r.Metadata.SourceType,
		}
		if c.Title == "" {
			c.Title = fmt.Sprintf("Source %d", i+1)
		}
		if c.SourceType == "" {
			c.SourceType = "unknown"
		}
		out[i] = c
	}
	return out
}

// FormatCitations renders citations as "[id] title, URL: url, Retrieved
// on: date" lines, omitting empty parts.
func FormatCitations(citations []Citation) []string {
	out := make([]string, len(citations))
	for i, c := range citations {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		line := fmt.Sprintf("[%d] %s", c.ID, title)
		if c.URL != "" {
			line += ", URL: " + c.URL
		}
		if !c.RetrievedAt.IsZero() {
			line += ", Retrieved on: " + c.RetrievedAt.Format(time.DateOnly)
		}
		out[i] = line
	}
	return out
}
