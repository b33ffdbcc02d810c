package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
	"github.com/pgvector/pgvector-go"
)

// NodesDBHandler handles node-related database operations.
type NodesDBHandler struct {
	db      *helper.Database
	schemas *SchemasDBHandler
}

// NewNodesDBHandler creates a new nodes database handler. embeddingDim
// fixes the dimension of the vector column for the lifetime of the
// deployment.
func NewNodesDBHandler(db *helper.Database, schemas *SchemasDBHandler, embeddingDim int, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &NodesDBHandler{db: db, schemas: schemas}

	if err := loadSql.LoadNodesSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_nodes($1);`, embeddingDim); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized NodesDBHandler")

	return h, nil
}

func scanNode(row interface{ Scan(dest ...interface{}) error }) (*model.Node, error) {
	n := &model.Node{}
	var structuredJSON, unstructuredJSON, metadataJSON []byte
	var vec *pgvector.Vector

	err := row.Scan(
		&n.ID, &n.ProjectID, &n.SchemaID, new(string), &structuredJSON,
		&unstructuredJSON, &vec, &metadataJSON, &n.MirrorState, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Vector = vec

	if len(structuredJSON) > 0 {
		var sd model.StructuredData
		if err := sd.Scan(structuredJSON); err != nil {
			return nil, fmt.Errorf("scan structured_data: %w", err)
		}
		n.StructuredData = sd
	}
	if len(unstructuredJSON) > 0 {
		var m model.Metadata
		if err := m.Scan(unstructuredJSON); err != nil {
			return nil, fmt.Errorf("scan unstructured_data: %w", err)
		}
		n.UnstructuredData = m
	}
	if len(metadataJSON) > 0 {
		var m model.Metadata
		if err := m.Scan(metadataJSON); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		n.Metadata = m
	}

	return n, nil
}

// CreateNode validates structuredData against the resolved schema and
// inserts the node. vector may be nil. canonicalKey, if non-empty, is used
// by Stage B for node deduplication via the (schema_id, canonical_key)
// unique index; pass "" when the caller doesn't need dedup (ad hoc API
// writes).
func (h *NodesDBHandler) CreateNode(projectID, schemaID uuid.UUID, canonicalKey string, structuredData, unstructuredData map[string]interface{}, vector []float32, metadata model.Metadata) (*model.Node, error) {
	schema, err := h.schemas.SelectSchema(schemaID)
	if err != nil {
		return nil, err
	}
	if schema.EntityType != model.EntityTypeNode {
		return nil, helper.NewKindError("create node", helper.ErrSchemaValidation,
			fmt.Errorf("schema %q is not a NODE schema", schema.SchemaName))
	}

	validated, err := ValidateStructuredData(schema, structuredData)
	if err != nil {
		return nil, err
	}

	structuredJSON, err := json.Marshal(flattenStructured(validated))
	if err != nil {
		return nil, helper.NewError("marshal structured_data", err)
	}

	var vecParam interface{}
	if len(vector) > 0 {
		v := pgvector.NewVector(vector)
		vecParam = &v
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_node($1, $2, $3, $4, $5, $6, $7)`,
		projectID, schemaID, canonicalKey, structuredJSON,
		model.Metadata(unstructuredData), vecParam, metadata,
	)

	n, err := scanNode(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, helper.NewKindError("create node", helper.ErrConflict, err)
		}
		return nil, helper.NewKindError("create node", helper.ErrStorageUnavailable, err)
	}
	n.StructuredData = validated

	return n, nil
}

// SelectNode fetches a node by ID.
func (h *NodesDBHandler) SelectNode(id uuid.UUID) (*model.Node, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_node($1)`, id)

	n, err := scanNode(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("select node", helper.ErrNodeNotFound, err)
		}
		return nil, helper.NewError("select node", err)
	}
	return n, nil
}

// SelectNodeByCanonicalKey looks up an existing node by (schema_id,
// canonical_key), used by Stage B's create-or-upsert step. Returns
// (nil, nil) when no such node exists.
func (h *NodesDBHandler) SelectNodeByCanonicalKey(schemaID uuid.UUID, canonicalKey string) (*model.Node, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_node_by_canonical_key($1, $2)`, schemaID, canonicalKey)

	n, err := scanNode(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, helper.NewError("select node by canonical key", err)
	}
	return n, nil
}

// SelectNodesPendingMirror returns up to limit nodes of projectID awaiting
// graph mirror drain.
func (h *NodesDBHandler) SelectNodesPendingMirror(projectID uuid.UUID, limit int) ([]*model.Node, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_nodes_pending_mirror($1, $2)`, projectID, limit)
	if err != nil {
		return nil, helper.NewError("select nodes pending mirror", err)
	}
	defer rows.Close()

	var out []*model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, helper.NewError("scan node", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SelectNodesByProject returns up to limit nodes of projectID, optionally
// restricted to one schema. schemaID may be uuid.Nil to match any schema.
// Backs the retrieval agent's relational tool, which filters the returned
// nodes' structured_data in application code.
func (h *NodesDBHandler) SelectNodesByProject(projectID, schemaID uuid.UUID, limit int) ([]*model.Node, error) {
	var schemaParam interface{}
	if schemaID != uuid.Nil {
		schemaParam = schemaID
	}

	rows, err := h.db.Instance.Query(`SELECT * FROM select_nodes_by_project($1, $2, $3)`, projectID, schemaParam, limit)
	if err != nil {
		return nil, helper.NewError("select nodes by project", err)
	}
	defer rows.Close()

	var out []*model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, helper.NewError("scan node", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNodeMirrorState transitions a node's mirror_state (NONE→PENDING→OK,
// or to DISABLED).
func (h *NodesDBHandler) UpdateNodeMirrorState(id uuid.UUID, state model.MirrorState) error {
	_, err := h.db.Instance.Exec(`SELECT update_node_mirror_state($1, $2)`, id, string(state))
	if err != nil {
		return helper.NewKindError("update node mirror state", helper.ErrStorageUnavailable, err)
	}
	return nil
}

// AppendAlternateValue records a conflicting attribute value discovered
// during canonicalization under unstructured_data.alternate_values, per
// step 5's "first write wins, subsequent values appended" rule.
func (h *NodesDBHandler) AppendAlternateValue(id uuid.UUID, current model.Metadata, attrName string, value interface{}) error {
	alt, _ := current["alternate_values"].(map[string]interface{})
	if alt == nil {
		alt = map[string]interface{}{}
	}
	values, _ := alt[attrName].([]interface{})
	alt[attrName] = append(values, value)

	updated := model.Metadata{}
	for k, v := range current {
		updated[k] = v
	}
	updated["alternate_values"] = alt

	_, err := h.db.Instance.Exec(`SELECT update_node_unstructured_data($1, $2)`, id, updated)
	if err != nil {
		return helper.NewKindError("append alternate value", helper.ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteNode removes a node. Callers must first verify it is not
// referenced by any live Edge.
func (h *NodesDBHandler) DeleteNode(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_node($1)`, id)
	if err != nil {
		return helper.NewKindError("delete node", helper.ErrStorageUnavailable, err)
	}
	return nil
}

func flattenStructured(d model.StructuredData) map[string]interface{} {
	out := make(map[string]interface{}, len(d))
	for k, v := range d {
		out[k] = v.Raw()
	}
	return out
}
