package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/graphmirror"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
)

// GraphArgs is the graph tool's typed argument shape: a start set of node
// IDs, the edge schema names to follow (empty means any relationship), a
// direction, and a traversal depth.
type GraphArgs struct {
	StartNodeIDs   []uuid.UUID
	EdgeSchemaNames []string
	Direction      graphmirror.Direction
	MaxHops        int
}

// runGraphTool runs a BFS from args.StartNodeIDs against the native graph
// store and scores each reached node by inverse hop distance
// (1 / (1 + distance)), so directly connected nodes outrank ones several
// hops away. EdgeSchemaNames are resolved to schema IDs before reaching the
// graph store, since mirrored relationships carry schema_id, not a
// per-schema Cypher label.
func (a *Agent) runGraphTool(ctx context.Context, projectID uuid.UUID, rawArgs interface{}) ([]model.RankedItem, error) {
	args, _ := rawArgs.(GraphArgs)
	if len(args.StartNodeIDs) == 0 {
		return nil, nil
	}

	direction := args.Direction
	if direction == "" {
		direction = graphmirror.DirectionBoth
	}
	maxHops := args.MaxHops
	if maxHops <= 0 {
		maxHops = graphmirror.DefaultMaxHops
	}

	var schemaIDs []uuid.UUID
	if len(args.EdgeSchemaNames) > 0 {
		edgeSchemas, err := a.schemas.ListSchemas(projectID, model.EntityTypeEdge, true)
		if err != nil {
			return nil, helper.NewError("graph tool: list edge schemas", err)
		}
		schemaIDs = resolveSchemaIDs(edgeSchemas, args.EdgeSchemaNames)
	}

	reached, err := a.mirror.BFS(ctx, args.StartNodeIDs, schemaIDs, direction, maxHops)
	if err != nil {
		return nil, helper.NewKindError("graph tool", helper.ErrGraphMirror, err)
	}

	var out []model.RankedItem
	for _, r := range reached {
		node, err := a.nodes.SelectNode(r.NodeID)
		if err != nil {
			continue
		}

		score := 1.0 / float64(1+r.Distance)
		out = append(out, model.RankedItem{
			ID:         node.ID,
			Kind:       "node",
			CreatedAt:  node.CreatedAt,
			ToolScores: map[model.ToolName]float64{model.ToolGraph: score},
			Score:      score,
			Payload:    node,
		})
	}

	return out, nil
}

func resolveSchemaIDs(schemas []*model.Schema, names []string) []uuid.UUID {
	var out []uuid.UUID
	for _, name := range names {
		for _, s := range schemas {
			if strings.EqualFold(s.SchemaName, name) {
				out = append(out, s.ID)
				break
			}
		}
	}
	return out
}
