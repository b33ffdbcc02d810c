package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Chunk is a text segment of a Document used as the unit of embedding and
// citation. (document_id, chunk_index) is unique; chunk_index is
// non-negative and monotonic within a document.
type Chunk struct {
	ID         uuid.UUID       `json:"chunk_id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	DocumentID uuid.UUID       `json:"document_id"`
	ChunkIndex int             `json:"chunk_index"`
	Text       string          `json:"text"`
	Embedding  pgvector.Vector `json:"embedding"`
	CreatedAt  time.Time       `json:"created_at"`
}
