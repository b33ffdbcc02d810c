package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// MirrorState reports the node/edge's replication status into the native
// graph store. The relational store is always the source of truth; this
// column never blocks a read or write against it.
type MirrorState string

const (
	MirrorNone     MirrorState = "NONE"
	MirrorOK       MirrorState = "OK"
	MirrorPending  MirrorState = "PENDING"
	MirrorDisabled MirrorState = "DISABLED"
)

// Node is a graph vertex instance governed by a NODE-type Schema.
type Node struct {
	ID               uuid.UUID       `json:"node_id"`
	ProjectID        uuid.UUID       `json:"project_id"`
	SchemaID         uuid.UUID       `json:"schema_id"`
	StructuredData   StructuredData  `json:"structured_data"`
	UnstructuredData Metadata        `json:"unstructured_data,omitempty"`
	Vector           *pgvector.Vector `json:"vector,omitempty"`
	Metadata         Metadata        `json:"metadata,omitempty"`
	MirrorState      MirrorState     `json:"mirror_state"`
	CreatedAt        time.Time       `json:"created_at"`
}
