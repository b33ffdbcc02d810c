package induce

import (
	"testing"

	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstBalancedObject(t *testing.T) {
	t.Run("extracts object ignoring surrounding prose", func(t *testing.T) {
		text := `Sure, here you go:\n{"nodes": [], "edges": [], "summary": "ok"}\nHope that helps.`
		obj, ok := firstBalancedObject(text)
		require.True(t, ok)
		assert.Equal(t, `{"nodes": [], "edges": [], "summary": "ok"}`, obj)
	})

	t.Run("handles braces inside string literals", func(t *testing.T) {
		text := `{"summary": "a {weird} value"}`
		obj, ok := firstBalancedObject(text)
		require.True(t, ok)
		assert.Equal(t, text, obj)
	})

	t.Run("returns false when no object present", func(t *testing.T) {
		_, ok := firstBalancedObject("no json here")
		assert.False(t, ok)
	})
}

func TestExtractProposal(t *testing.T) {
	text := `{"nodes": [{"schema_name": "Person", "entity_type": "NODE", "structured_attributes": [{"name": "name", "data_type": "string", "required": true}]}], "edges": [], "summary": "one node"}`
	raw, err := extractProposal(text)
	require.NoError(t, err)
	assert.Len(t, raw.Nodes, 1)
	assert.Equal(t, "one node", raw.Summary)
}

func TestToUpperSnakeCase(t *testing.T) {
	assert.Equal(t, "WORKS_AT", toUpperSnakeCase("works at"))
	assert.Equal(t, "WORKS_AT", toUpperSnakeCase("worksAt"))
	assert.Equal(t, "WORKS_AT", toUpperSnakeCase("Works-At"))
	assert.Equal(t, "WORKS_AT", toUpperSnakeCase("WORKS_AT"))
}

func TestValidateProposalRejectsInvalidDataType(t *testing.T) {
	raw := rawProposal{
		Nodes: []rawSchema{
			{SchemaName: "Thing", EntityType: "NODE", StructuredAttributes: []rawAttribute{
				{Name: "x", DataType: "not-a-type"},
			}},
		},
	}
	schemas, rejected := validateProposal(raw)
	assert.Empty(t, schemas)
	require.Len(t, rejected, 1)
	assert.Equal(t, "Thing", rejected[0].SchemaName)
}

func TestValidateProposalNormalizesEdgeNames(t *testing.T) {
	raw := rawProposal{
		Edges: []rawSchema{
			{SchemaName: "works at", EntityType: "EDGE"},
		},
	}
	schemas, rejected := validateProposal(raw)
	require.Empty(t, rejected)
	require.Len(t, schemas, 1)
	assert.Equal(t, "WORKS_AT", schemas[0].SchemaName)
	assert.Equal(t, model.EntityTypeEdge, schemas[0].EntityType)
}

func TestValidateProposalRejectsMinMaxInverted(t *testing.T) {
	badMin, badMax := 10.0, 5.0
	raw := rawProposal{
		Nodes: []rawSchema{
			{SchemaName: "Thing", EntityType: "NODE", StructuredAttributes: []rawAttribute{
				{Name: "count", DataType: "integer", Constraints: &model.AttributeConstraints{Min: &badMin, Max: &badMax}},
			}},
		},
	}
	schemas, rejected := validateProposal(raw)
	assert.Empty(t, schemas)
	require.Len(t, rejected, 1)
}

func TestSelectSnippets(t *testing.T) {
	text := "p1\n\np2\n\np3\n\np4\n\np5\n\np6"
	snippets := selectSnippets(text, 5)
	assert.Len(t, snippets, 5)
	assert.Equal(t, "p1", snippets[0])
}

func TestBuiltinProposalNeverFails(t *testing.T) {
	raw := builtinProposal()
	schemas, rejected := validateProposal(raw)
	assert.Empty(t, rejected)
	assert.Len(t, schemas, 4)
}
