// Package audit records the outcome of every URL the pipeline tried to
// ingest, so skipped sources stay diagnosable after the response is gone.
package audit

import "time"

// Status is the ingestion outcome of one URL.
type Status string

const (
	StatusIndexed Status = "indexed"
	StatusSkipped Status = "skipped"
)

// Entry is a single ingestion record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url"`
	Query      string    `json:"query,omitempty"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	SourceType string    `json:"source_type,omitempty"`
	Title      string    `json:"title,omitempty"`
	Chunks     int       `json:"chunks"`
}
