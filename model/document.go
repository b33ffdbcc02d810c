package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document's progress through Stage B.
type DocumentStatus string

const (
	DocumentUploaded DocumentStatus = "UPLOADED"
	DocumentProcessed DocumentStatus = "PROCESSED"
	DocumentFailed    DocumentStatus = "FAILED"
)

// Document is one ingested file. Content is never stored on the struct that
// persists — it is a transient carrier used only while passing extracted
// text down to Stage B, mirroring the teacher's model.Document.Content.
type Document struct {
	ID         uuid.UUID      `json:"document_id"`
	ProjectID  uuid.UUID      `json:"project_id"`
	Filename   string         `json:"filename"`
	SizeBytes  int64          `json:"size_bytes"`
	PageCount  int            `json:"page_count"`
	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploaded_at"`

	// Text is the extracted plain-text content fetched from the document text
	// provider (§6). Never persisted as a column.
	Text string `json:"-"`
}
