package index

import (
	"strconv"
	"time"
)

// Metadata travels with every chunk from ingestion to retrieval.
type Metadata struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	SourceType    string    `json:"source_type"`
	RetrievedAt   time.Time `json:"retrieved_at"`
	OriginalQuery string    `json:"original_query,omitempty"`
	ChunkIndex    int       `json:"chunk_index"`
	TotalChunks   int       `json:"total_chunks"`
}

// Record is one chunk handed to the index.
type Record struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Result is one ranked retrieval hit. Score is an opaque ranking signal
// where higher means more relevant.
type Result struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score"`
}

func metadataToMap(m Metadata) map[string]string {
	md := map[string]string{
		"url":          m.URL,
		"title":        m.Title,
		"source_type":  m.SourceType,
		"chunk_index":  strconv.Itoa(m.ChunkIndex),
		"total_chunks": strconv.Itoa(m.TotalChunks),
	}
	if !m.RetrievedAt.IsZero() {
		md["retrieved_at"] = m.RetrievedAt.UTC().Format(time.RFC3339)
	}
	if m.OriginalQuery != "" {
		md["original_query"] = m.OriginalQuery
	}
	return md
}

func mapToMetadata(m map[string]string) Metadata {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	totalChunks, _ := strconv.Atoi(m["total_chunks"])
	retrievedAt, _ := time.Parse(time.RFC3339, m["retrieved_at"])

	return Metadata{
		URL:           m["url"],
		Title:         m["title"],
		SourceType:    m["source_type"],
		RetrievedAt:   retrievedAt,
		OriginalQuery: m["original_query"],
		ChunkIndex:    chunkIndex,
		TotalChunks:   totalChunks,
	}
}
