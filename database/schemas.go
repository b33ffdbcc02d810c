package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
)

// SchemasDBHandler handles schema-related database operations.
type SchemasDBHandler struct {
	db *helper.Database
}

// NewSchemasDBHandler creates a new schemas database handler.
func NewSchemasDBHandler(db *helper.Database, force bool) (*SchemasDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &SchemasDBHandler{db: db}

	if err := loadSql.LoadSchemasSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load schemas sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_schemas();`); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized SchemasDBHandler")

	return h, nil
}

func scanSchema(row interface{ Scan(dest ...interface{}) error }) (*model.Schema, error) {
	s := &model.Schema{}
	var attrsJSON []byte
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.SchemaName, &s.EntityType, &s.VersionString,
		&s.Description, &attrsJSON, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, &s.StructuredAttributes); err != nil {
			return nil, fmt.Errorf("unmarshal structured_attributes: %w", err)
		}
	}

	v, err := semver.NewVersion(s.VersionString)
	if err != nil {
		return nil, fmt.Errorf("stored schema has invalid semver %q: %w", s.VersionString, err)
	}
	s.Version = v

	return s, nil
}

// CreateSchema validates version as semver, enforces (schema_name, version)
// uniqueness, and deactivates the prior active version of the same
// schema_name when is_active=true. EDGE schema_name values must already be
// normalized to UPPER_SNAKE_CASE by the caller (induce package does this).
func (h *SchemasDBHandler) CreateSchema(s *model.Schema) (*model.Schema, error) {
	if _, err := semver.NewVersion(s.VersionString); err != nil {
		return nil, helper.NewKindError("create schema", helper.ErrSemverFormat, err)
	}

	attrsJSON, err := json.Marshal(s.StructuredAttributes)
	if err != nil {
		return nil, helper.NewError("marshal structured_attributes", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_schema($1, $2, $3, $4, $5, $6, $7)`,
		s.ProjectID, s.SchemaName, string(s.EntityType), s.VersionString,
		s.Description, attrsJSON, s.IsActive,
	)

	out, err := scanSchema(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, helper.NewKindError("create schema", helper.ErrConflict, err)
		}
		return nil, helper.NewKindError("create schema", helper.ErrStorageUnavailable, err)
	}

	return out, nil
}

// SelectSchema fetches a schema by ID.
func (h *SchemasDBHandler) SelectSchema(id uuid.UUID) (*model.Schema, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_schema($1)`, id)

	s, err := scanSchema(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("select schema", helper.ErrSchemaNotFound, err)
		}
		return nil, helper.NewError("select schema", err)
	}
	return s, nil
}

// GetSchema returns the active version of schemaName if version is empty,
// else the exact (schemaName, version) row.
func (h *SchemasDBHandler) GetSchema(projectID uuid.UUID, schemaName, version string) (*model.Schema, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_schema_by_name($1, $2, $3)`,
		projectID, schemaName, version,
	)

	s, err := scanSchema(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("get schema", helper.ErrSchemaNotFound,
				fmt.Errorf("schema %q (version %q) not found", schemaName, version))
		}
		return nil, helper.NewError("get schema", err)
	}
	return s, nil
}

// ListSchemas returns every schema matching entityType (pass "" for both
// NODE and EDGE) and activeOnly, ordered by (schema_name, semver
// descending) as spec.md requires — the database layer orders by
// (schema_name, created_at) and this method re-sorts by true semver order.
func (h *SchemasDBHandler) ListSchemas(projectID uuid.UUID, entityType model.EntityType, activeOnly bool) ([]*model.Schema, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_schemas($1, $2, $3)`,
		projectID, string(entityType), activeOnly,
	)
	if err != nil {
		return nil, helper.NewError("list schemas", err)
	}
	defer rows.Close()

	var out []*model.Schema
	for rows.Next() {
		s, err := scanSchema(rows)
		if err != nil {
			return nil, helper.NewError("scan schema", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("list schemas", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SchemaName != out[j].SchemaName {
			return out[i].SchemaName < out[j].SchemaName
		}
		return out[i].Version.GreaterThan(out[j].Version)
	})

	return out, nil
}

// DeleteSchema removes a schema. Callers must first verify no live
// Nodes/Edges reference it (SchemaInUseError) — enforced by the caller,
// typically the constructor's cleanup path, since the check spans both the
// nodes and edges tables.
func (h *SchemasDBHandler) DeleteSchema(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_schema($1)`, id)
	if err != nil {
		return helper.NewKindError("delete schema", helper.ErrStorageUnavailable, err)
	}
	return nil
}
