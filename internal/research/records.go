package research

import (
	"github.com/Acid-base/researcher/internal/chunker"
	"github.com/Acid-base/researcher/internal/extract"
	"github.com/Acid-base/researcher/internal/index"
)

// Records chunks the cleaned text of doc and attaches the source metadata
// to every chunk. ChunkIndex is 1-based.
func Records(doc extract.SourceDocument, text, query string, size, overlap int) []index.Record {
	chunks := chunker.Chunk(text, size, overlap)
	records := make([]index.Record, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, index.Record{
			Text: c,
			Metadata: index.Metadata{
				URL:           doc.URL,
				Title:         doc.Title,
				SourceType:    string(doc.SourceType),
				RetrievedAt:   doc.RetrievedAt,
				OriginalQuery: query,
				ChunkIndex:    i + 1,
				TotalChunks:   len(chunks),
			},
		})
	}
	return records
}
