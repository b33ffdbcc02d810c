package model

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// EntityType distinguishes a Schema that governs Nodes from one that
// governs Edges.
type EntityType string

const (
	EntityTypeNode EntityType = "NODE"
	EntityTypeEdge EntityType = "EDGE"
)

// AttributeConstraints are optional, data-type-dependent bounds checked by
// validator.Var at node/edge creation time. Zero values mean "unset" except
// where the field is a pointer.
type AttributeConstraints struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
}

// AttributeDef is one entry of a Schema's ordered structured_attributes
// list.
type AttributeDef struct {
	Name        string                `json:"name"`
	DataType    AttributeDataType     `json:"data_type"`
	Required    bool                  `json:"required"`
	Constraints *AttributeConstraints `json:"constraints,omitempty"`
}

// Schema is a versioned type definition for Nodes (entity_type=NODE) or
// Edges (entity_type=EDGE). (schema_name, version) is unique per project;
// at most one is_active=true row exists per (project, schema_name).
type Schema struct {
	ID                   uuid.UUID      `json:"schema_id"`
	ProjectID            uuid.UUID      `json:"project_id"`
	SchemaName           string         `json:"schema_name"`
	EntityType           EntityType     `json:"entity_type"`
	Version              *semver.Version `json:"-"`
	VersionString        string         `json:"version"`
	Description          string         `json:"description,omitempty"`
	StructuredAttributes []AttributeDef `json:"structured_attributes"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
}

// RequiredAttributes returns the subset of StructuredAttributes with
// Required set, in declaration order.
func (s *Schema) RequiredAttributes() []AttributeDef {
	out := make([]AttributeDef, 0, len(s.StructuredAttributes))
	for _, a := range s.StructuredAttributes {
		if a.Required {
			out = append(out, a)
		}
	}
	return out
}

// AttributeByName looks up a declared attribute by name, returning ok=false
// if the schema has no such attribute.
func (s *Schema) AttributeByName(name string) (AttributeDef, bool) {
	for _, a := range s.StructuredAttributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeDef{}, false
}
