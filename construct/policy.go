package construct

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/model"
)

// RelationPolicy resolves which edge schema (if any) to create between two
// co-occurring canonical entities, keyed by their node schema names. This
// is the "relationship extraction policy (spec-level, not code-level)" of
// spec.md §4.4 step 7, made swappable per Open Question decision 1.
type RelationPolicy struct {
	edgeSchemaByPair map[string]uuid.UUID
}

// DefaultRelationPolicy returns an empty policy; callers populate it via
// Register, or build one with BuildRelationPolicyFromSchemas, and hand it
// to the constructor through Constructor.WithRelationPolicy. The
// constructor does not derive a policy from the project's schemas itself,
// so with this default no co-occurrence edges are created.
func DefaultRelationPolicy() RelationPolicy {
	return RelationPolicy{edgeSchemaByPair: map[string]uuid.UUID{}}
}

// Register declares that co-occurrence of sourceSchema and targetSchema
// should create an edge of edgeSchemaID.
func (p *RelationPolicy) Register(sourceSchema, targetSchema string, edgeSchemaID uuid.UUID) {
	p.edgeSchemaByPair[pairKey(sourceSchema, targetSchema)] = edgeSchemaID
}

// Resolve looks up the edge schema for an ordered (source, target) schema
// name pair.
func (p RelationPolicy) Resolve(sourceSchema, targetSchema string) (uuid.UUID, bool) {
	id, ok := p.edgeSchemaByPair[pairKey(sourceSchema, targetSchema)]
	return id, ok
}

func pairKey(source, target string) string {
	return strings.ToLower(source) + "->" + strings.ToLower(target)
}

// BuildRelationPolicyFromSchemas derives a RelationPolicy from a project's
// active edge schemas, reading each edge schema's declared endpoint types
// out of its Description field as "source_schema:target_schema" (the
// simplest representation that survives the induce package's schema
// persistence without a dedicated column). Edge schemas with no
// recognizable endpoint declaration are skipped.
func BuildRelationPolicyFromSchemas(edgeSchemas []*model.Schema) RelationPolicy {
	policy := DefaultRelationPolicy()

	for _, s := range edgeSchemas {
		source, target, ok := parseEndpointDeclaration(s.Description)
		if !ok {
			continue
		}
		policy.Register(source, target, s.ID)
	}

	return policy
}

func parseEndpointDeclaration(description string) (source, target string, ok bool) {
	parts := strings.SplitN(description, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	source = strings.TrimSpace(parts[0])
	target = strings.TrimSpace(parts[1])
	if source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}
