package model

import (
	"time"

	"github.com/google/uuid"
)

// Edge is a directed graph relationship governed by an EDGE-type Schema.
// Source and target must exist and share Edge's ProjectID.
type Edge struct {
	ID               uuid.UUID      `json:"edge_id"`
	ProjectID        uuid.UUID      `json:"project_id"`
	SchemaID         uuid.UUID      `json:"schema_id"`
	SourceNodeID     uuid.UUID      `json:"source_node_id"`
	TargetNodeID     uuid.UUID      `json:"target_node_id"`
	StructuredData   StructuredData `json:"structured_data"`
	UnstructuredData Metadata       `json:"unstructured_data,omitempty"`
	Metadata         Metadata       `json:"metadata,omitempty"`
	MirrorState      MirrorState    `json:"mirror_state"`
	CreatedAt        time.Time      `json:"created_at"`
}
