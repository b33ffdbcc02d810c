package model

import (
	"time"

	"github.com/google/uuid"
)

// Project is the top-level tenant boundary. It owns every Document, Schema,
// Node, Edge and Chunk created under it.
type Project struct {
	ID        uuid.UUID `json:"project_id"`
	Name      string    `json:"project_name"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
