package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
	"github.com/lib/pq"
)

// EdgesDBHandler handles edge-related database operations.
type EdgesDBHandler struct {
	db      *helper.Database
	schemas *SchemasDBHandler
	nodes   *NodesDBHandler
}

// NewEdgesDBHandler creates a new edges database handler.
func NewEdgesDBHandler(db *helper.Database, schemas *SchemasDBHandler, nodes *NodesDBHandler, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &EdgesDBHandler{db: db, schemas: schemas, nodes: nodes}

	if err := loadSql.LoadEdgesSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_edges();`); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized EdgesDBHandler")

	return h, nil
}

func scanEdge(row interface{ Scan(dest ...interface{}) error }) (*model.Edge, error) {
	e := &model.Edge{}
	var structuredJSON, unstructuredJSON, metadataJSON []byte

	err := row.Scan(
		&e.ID, &e.ProjectID, &e.SchemaID, &e.SourceNodeID, &e.TargetNodeID,
		&structuredJSON, &unstructuredJSON, &metadataJSON, &e.MirrorState, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(structuredJSON) > 0 {
		var sd model.StructuredData
		if err := sd.Scan(structuredJSON); err != nil {
			return nil, fmt.Errorf("scan structured_data: %w", err)
		}
		e.StructuredData = sd
	}
	if len(unstructuredJSON) > 0 {
		var m model.Metadata
		if err := m.Scan(unstructuredJSON); err != nil {
			return nil, fmt.Errorf("scan unstructured_data: %w", err)
		}
		e.UnstructuredData = m
	}
	if len(metadataJSON) > 0 {
		var m model.Metadata
		if err := m.Scan(metadataJSON); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		e.Metadata = m
	}

	return e, nil
}

// CreateEdge validates structuredData, fails NodeNotFoundError if either
// endpoint is missing or belongs to a different project, and inserts the
// edge. Co-occurrence edges are deduplicated by (source_id, schema_id,
// target_id): if the edge already exists, the existing row is returned
// without error.
func (h *EdgesDBHandler) CreateEdge(projectID, schemaID, sourceID, targetID uuid.UUID, structuredData map[string]interface{}, unstructuredData map[string]interface{}, metadata model.Metadata) (*model.Edge, error) {
	schema, err := h.schemas.SelectSchema(schemaID)
	if err != nil {
		return nil, err
	}
	if schema.EntityType != model.EntityTypeEdge {
		return nil, helper.NewKindError("create edge", helper.ErrSchemaValidation,
			fmt.Errorf("schema %q is not an EDGE schema", schema.SchemaName))
	}

	source, err := h.nodes.SelectNode(sourceID)
	if err != nil {
		return nil, helper.NewKindError("create edge", helper.ErrNodeNotFound, fmt.Errorf("source node: %w", err))
	}
	target, err := h.nodes.SelectNode(targetID)
	if err != nil {
		return nil, helper.NewKindError("create edge", helper.ErrNodeNotFound, fmt.Errorf("target node: %w", err))
	}
	if source.ProjectID != projectID || target.ProjectID != projectID {
		return nil, helper.NewKindError("create edge", helper.ErrNodeNotFound,
			fmt.Errorf("source/target node does not belong to project %s", projectID))
	}

	validated, err := ValidateStructuredData(schema, structuredData)
	if err != nil {
		return nil, err
	}

	structuredJSON, err := json.Marshal(flattenStructured(validated))
	if err != nil {
		return nil, helper.NewError("marshal structured_data", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4, $5, $6, $7)`,
		projectID, schemaID, sourceID, targetID, structuredJSON,
		model.Metadata(unstructuredData), metadata,
	)

	e, err := scanEdge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			// ON CONFLICT DO NOTHING: the co-occurrence edge already exists.
			return h.SelectEdgeByEndpoints(sourceID, schemaID, targetID)
		}
		return nil, helper.NewKindError("create edge", helper.ErrStorageUnavailable, err)
	}
	e.StructuredData = validated

	return e, nil
}

// SelectEdge fetches an edge by ID.
func (h *EdgesDBHandler) SelectEdge(id uuid.UUID) (*model.Edge, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_edge($1)`, id)

	e, err := scanEdge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("select edge", helper.ErrNodeNotFound, err)
		}
		return nil, helper.NewError("select edge", err)
	}
	return e, nil
}

// SelectEdgeByEndpoints fetches the edge matching (source, schema,
// target), used for co-occurrence edge deduplication.
func (h *EdgesDBHandler) SelectEdgeByEndpoints(source, schema, target uuid.UUID) (*model.Edge, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_edge_by_endpoints($1, $2, $3)`, source, schema, target)

	e, err := scanEdge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, helper.NewError("select edge by endpoints", err)
	}
	return e, nil
}

// SelectEdgesByProject returns up to limit edges of projectID, optionally
// restricted to one schema. schemaID may be uuid.Nil to match any schema.
// Backs the retrieval agent's relational tool when the plan filters edges
// rather than nodes.
func (h *EdgesDBHandler) SelectEdgesByProject(projectID, schemaID uuid.UUID, limit int) ([]*model.Edge, error) {
	var schemaParam interface{}
	if schemaID != uuid.Nil {
		schemaParam = schemaID
	}

	rows, err := h.db.Instance.Query(`SELECT * FROM select_edges_by_project($1, $2, $3)`, projectID, schemaParam, limit)
	if err != nil {
		return nil, helper.NewError("select edges by project", err)
	}
	defer rows.Close()

	var out []*model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, helper.NewError("scan edge", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SelectEdgesByNodes returns every edge of projectID touching any of
// nodeIDs as source or target. An empty nodeIDs returns nil without
// querying.
func (h *EdgesDBHandler) SelectEdgesByNodes(projectID uuid.UUID, nodeIDs []uuid.UUID) ([]*model.Edge, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	rows, err := h.db.Instance.Query(`SELECT * FROM select_edges_by_nodes($1, $2)`, projectID, pq.Array(nodeIDs))
	if err != nil {
		return nil, helper.NewError("select edges by nodes", err)
	}
	defer rows.Close()

	var out []*model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, helper.NewError("scan edge", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SelectEdgesPendingMirror returns up to limit edges of projectID awaiting
// graph mirror drain.
func (h *EdgesDBHandler) SelectEdgesPendingMirror(projectID uuid.UUID, limit int) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_edges_pending_mirror($1, $2)`, projectID, limit)
	if err != nil {
		return nil, helper.NewError("select edges pending mirror", err)
	}
	defer rows.Close()

	var out []*model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, helper.NewError("scan edge", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEdgeMirrorState transitions an edge's mirror_state.
func (h *EdgesDBHandler) UpdateEdgeMirrorState(id uuid.UUID, state model.MirrorState) error {
	_, err := h.db.Instance.Exec(`SELECT update_edge_mirror_state($1, $2)`, id, string(state))
	if err != nil {
		return helper.NewKindError("update edge mirror state", helper.ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteEdge removes an edge.
func (h *EdgesDBHandler) DeleteEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_edge($1)`, id)
	if err != nil {
		return helper.NewKindError("delete edge", helper.ErrStorageUnavailable, err)
	}
	return nil
}
