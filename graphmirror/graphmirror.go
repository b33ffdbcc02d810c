// Package graphmirror maintains the core's native graph store (§6):
// an eventually-consistent, one-way mirror of nodes and edges out of the
// relational source of truth, queried for BFS traversal by the retrieval
// agent's graph tool. This is the redesign spec.md §9 calls for: "no
// native graph traversal inside the relational store."
package graphmirror

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Direction constrains which edge orientations a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
	DirectionBoth     Direction = "BOTH"
)

// DefaultMaxHops is the graph tool's default traversal depth (spec.md
// §4.5).
const DefaultMaxHops = 2

// TraversalResult is one node reached during a BFS, paired with its hop
// distance from the start set.
type TraversalResult struct {
	NodeID   uuid.UUID
	Distance int
}

// GraphStore is the native graph store contract: idempotent upsert of
// mirrored nodes/edges, drain of pending rows, and BFS traversal.
// schemaIDs restricts BFS to relationships mirrored from those edge
// schemas (empty means any relationship type); mirrored edges all share
// the RELATES_TO label and are distinguished by their schema_id property,
// not by a per-schema relationship label.
type GraphStore interface {
	UpsertNode(ctx context.Context, node *model.Node) error
	UpsertEdge(ctx context.Context, edge *model.Edge) error
	DrainProject(ctx context.Context, projectID uuid.UUID) error
	BFS(ctx context.Context, startIDs []uuid.UUID, schemaIDs []uuid.UUID, direction Direction, maxHops int) ([]TraversalResult, error)
	Close(ctx context.Context) error
}

// Neo4jStore is the default GraphStore, backed by neo4j-go-driver/v5.
type Neo4jStore struct {
	driver  neo4j.DriverWithContext
	nodes   *database.NodesDBHandler
	edges   *database.EdgesDBHandler
}

// NewNeo4jStore connects to uri with basic auth and returns a GraphStore
// that mirrors nodes.db/edges.db into Neo4j.
func NewNeo4jStore(uri, username, password string, nodes *database.NodesDBHandler, edges *database.EdgesDBHandler) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, helper.NewKindError("create graph store", helper.ErrGraphMirror, err)
	}

	return &Neo4jStore{driver: driver, nodes: nodes, edges: edges}, nil
}

// UpsertNode MERGEs a node by ID, idempotently overwriting its schema and
// structured_data properties.
func (s *Neo4jStore) UpsertNode(ctx context.Context, node *model.Node) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	props := flattenStructuredValues(node.StructuredData)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx,
			`MERGE (n:Entity {node_id: $id})
			 SET n.schema_id = $schema_id, n.project_id = $project_id, n += $props`,
			map[string]any{
				"id":         node.ID.String(),
				"schema_id":  node.SchemaID.String(),
				"project_id": node.ProjectID.String(),
				"props":      props,
			},
		)
	})
	if err != nil {
		return helper.NewKindError("upsert node", helper.ErrGraphMirror, err)
	}
	return nil
}

// UpsertEdge MERGEs a directed RELATES_TO relationship between two
// mirrored nodes, tagged with the originating schema ID so the graph tool
// can filter by relationship type.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, edge *model.Edge) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx,
			`MATCH (a:Entity {node_id: $source}), (b:Entity {node_id: $target})
			 MERGE (a)-[r:RELATES_TO {schema_id: $schema_id}]->(b)`,
			map[string]any{
				"source":    edge.SourceNodeID.String(),
				"target":    edge.TargetNodeID.String(),
				"schema_id": edge.SchemaID.String(),
			},
		)
	})
	if err != nil {
		return helper.NewKindError("upsert edge", helper.ErrGraphMirror, err)
	}
	return nil
}

// DrainProject mirrors every PENDING node/edge of projectID into Neo4j and
// marks them OK, or leaves them PENDING on failure for the next drain
// cycle — mirror failures never block the relational write path.
func (s *Neo4jStore) DrainProject(ctx context.Context, projectID uuid.UUID) error {
	const batchLimit = 500

	pendingNodes, err := s.nodes.SelectNodesPendingMirror(projectID, batchLimit)
	if err != nil {
		return helper.NewError("drain project", err)
	}
	for _, node := range pendingNodes {
		if err := s.UpsertNode(ctx, node); err != nil {
			continue
		}
		_ = s.nodes.UpdateNodeMirrorState(node.ID, model.MirrorOK)
	}

	pendingEdges, err := s.edges.SelectEdgesPendingMirror(projectID, batchLimit)
	if err != nil {
		return helper.NewError("drain project", err)
	}
	for _, edge := range pendingEdges {
		if err := s.UpsertEdge(ctx, edge); err != nil {
			continue
		}
		_ = s.edges.UpdateEdgeMirrorState(edge.ID, model.MirrorOK)
	}

	return nil
}

// BFS performs breadth-first search from startIDs, generalizing the
// teacher's in-memory queue/visited-set BFS (core/graph/traversal.go) to a
// single Cypher variable-length-path query evaluated by the graph store
// itself. Every mirrored edge carries the single RELATES_TO label tagged
// with its originating schema_id (UpsertEdge), so schemaIDs is applied as
// a per-relationship property filter across the path rather than as a
// Cypher relationship-type label.
func (s *Neo4jStore) BFS(ctx context.Context, startIDs []uuid.UUID, schemaIDs []uuid.UUID, direction Direction, maxHops int) ([]TraversalResult, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	startStrs := make([]string, len(startIDs))
	for i, id := range startIDs {
		startStrs[i] = id.String()
	}

	schemaStrs := make([]string, len(schemaIDs))
	for i, id := range schemaIDs {
		schemaStrs[i] = id.String()
	}

	pattern := directionPattern(direction, maxHops)
	query := `MATCH (s:Entity) WHERE s.node_id IN $startIDs
		MATCH p = (s)` + pattern + `(reached:Entity)
		WHERE size($schemaIDs) = 0 OR ALL(r IN relationships(p) WHERE r.schema_id IN $schemaIDs)
		RETURN DISTINCT reached.node_id AS node_id, min(length(p)) AS distance`

	results, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"startIDs": startStrs, "schemaIDs": schemaStrs})
		if err != nil {
			return nil, err
		}

		var out []TraversalResult
		for records.Next(ctx) {
			record := records.Record()
			idStr, _ := record.Get("node_id")
			distance, _ := record.Get("distance")

			nodeID, err := uuid.Parse(idStr.(string))
			if err != nil {
				continue
			}
			out = append(out, TraversalResult{NodeID: nodeID, Distance: int(distance.(int64))})
		}
		return out, records.Err()
	})
	if err != nil {
		return nil, helper.NewKindError("graph bfs", helper.ErrGraphMirror, err)
	}

	return results.([]TraversalResult), nil
}

func directionPattern(direction Direction, maxHops int) string {
	hopRange := "*1.." + itoa(maxHops)

	switch direction {
	case DirectionIncoming:
		return "<-[" + hopRange + "]-"
	case DirectionBoth:
		return "-[" + hopRange + "]-"
	default:
		return "-[" + hopRange + "]->"
	}
}

func itoa(n int) string {
	if n <= 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Close releases the underlying driver, shutting down its connection pool.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func flattenStructuredValues(data model.StructuredData) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v.Raw()
	}
	return out
}

// StartDrainLoop runs DrainProject for projectID on interval until ctx is
// cancelled, implementing the background drain task of §6
// (GRAPH_MIRROR_DRAIN_INTERVAL_SECONDS). Errors are swallowed per-tick;
// pending rows simply wait for the next tick.
func StartDrainLoop(ctx context.Context, store GraphStore, projectID uuid.UUID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = store.DrainProject(ctx, projectID)
		}
	}
}
