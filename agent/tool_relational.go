package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
)

// FilterOp is a comparison the relational tool supports over one
// structured_data attribute. It never accepts a raw query string: every
// predicate names an attribute, an operator, and a typed value, so the
// tool can be driven purely by the intent classifier's structured args.
type FilterOp string

const (
	FilterEquals   FilterOp = "EQUALS"
	FilterContains FilterOp = "CONTAINS"
)

// Filter is one structured predicate of a RelationalArgs filter tree.
type Filter struct {
	Attribute string
	Op        FilterOp
	Value     interface{}
}

// EntityKind selects which relation the relational tool filters:
// nodes or edges. Documents carry no structured_data and are matched by
// filename/metadata elsewhere; this tool is scoped to the two schema-
// governed entities.
type EntityKind string

const (
	EntityKindNode EntityKind = "node"
	EntityKindEdge EntityKind = "edge"
)

// RelationalArgs is the relational tool's typed argument shape, the
// tool_args payload a QueryPlan.ToolCall carries for Tool == ToolRelational.
type RelationalArgs struct {
	EntityKind EntityKind
	SchemaName string
	Filters    []Filter
	Limit      int
}

const defaultRelationalLimit = 200

// runRelationalTool scores each entity of args.SchemaName (or every entity
// of the project, if SchemaName is empty) against args.Filters: 1.0 for an
// exact match on every filter, 0.5 for a partial (CONTAINS) match, 0 (and
// thus dropped) otherwise.
func (a *Agent) runRelationalTool(ctx context.Context, projectID uuid.UUID, rawArgs interface{}, nodeSchemas []*model.Schema) ([]model.RankedItem, error) {
	args, _ := rawArgs.(RelationalArgs)

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRelationalLimit
	}

	if args.EntityKind == EntityKindEdge {
		return a.runRelationalEdgeFilter(ctx, projectID, args, limit)
	}

	var schemaID uuid.UUID
	if args.SchemaName != "" {
		for _, s := range nodeSchemas {
			if strings.EqualFold(s.SchemaName, args.SchemaName) {
				schemaID = s.ID
				break
			}
		}
	}

	nodes, err := a.nodes.SelectNodesByProject(projectID, schemaID, limit)
	if err != nil {
		return nil, helper.NewError("relational tool", err)
	}

	var out []model.RankedItem
	for _, n := range nodes {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		score, matched := scoreFilters(n.StructuredData, args.Filters)
		if !matched {
			continue
		}

		out = append(out, model.RankedItem{
			ID:         n.ID,
			Kind:       "node",
			CreatedAt:  n.CreatedAt,
			ToolScores: map[model.ToolName]float64{model.ToolRelational: score},
			Score:      score,
			Payload:    n,
		})
	}

	return out, nil
}

func (a *Agent) runRelationalEdgeFilter(ctx context.Context, projectID uuid.UUID, args RelationalArgs, limit int) ([]model.RankedItem, error) {
	var schemaID uuid.UUID
	if args.SchemaName != "" {
		edgeSchemas, err := a.schemas.ListSchemas(projectID, model.EntityTypeEdge, true)
		if err != nil {
			return nil, helper.NewError("relational tool: list edge schemas", err)
		}
		for _, s := range edgeSchemas {
			if strings.EqualFold(s.SchemaName, args.SchemaName) {
				schemaID = s.ID
				break
			}
		}
	}

	edges, err := a.edges.SelectEdgesByProject(projectID, schemaID, limit)
	if err != nil {
		return nil, helper.NewError("relational tool", err)
	}

	var out []model.RankedItem
	for _, e := range edges {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		score, matched := scoreFilters(e.StructuredData, args.Filters)
		if !matched {
			continue
		}

		out = append(out, model.RankedItem{
			ID:         e.ID,
			Kind:       "edge",
			CreatedAt:  e.CreatedAt,
			ToolScores: map[model.ToolName]float64{model.ToolRelational: score},
			Score:      score,
			Payload:    e,
		})
	}

	return out, nil
}

// scoreFilters reports the match score for structuredData against filters:
// 1.0 when every filter is an exact match, 0.5 when at least one filter is
// only a partial (substring) match, 0 (matched=false) when any filter fails
// outright. An empty filter list always matches exactly.
func scoreFilters(data model.StructuredData, filters []Filter) (float64, bool) {
	if len(filters) == 0 {
		return 1.0, true
	}

	partial := false
	for _, f := range filters {
		value, ok := data[f.Attribute]
		if !ok {
			return 0, false
		}
		raw := value.Raw()

		switch f.Op {
		case FilterEquals:
			if raw != f.Value {
				return 0, false
			}
		case FilterContains:
			rawStr, rawOk := raw.(string)
			valStr, valOk := f.Value.(string)
			if !rawOk || !valOk {
				return 0, false
			}
			if rawStr == valStr {
				continue
			}
			if !strings.Contains(strings.ToLower(rawStr), strings.ToLower(valStr)) {
				return 0, false
			}
			partial = true
		default:
			return 0, false
		}
	}

	if partial {
		return 0.5, true
	}
	return 1.0, true
}
