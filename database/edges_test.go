package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgesCreateSelectAndProjectScan(t *testing.T) {
	database := initDB(t)

	projectsHandler, err := NewProjectsDBHandler(database, true)
	require.NoError(t, err)
	schemasHandler, err := NewSchemasDBHandler(database, true)
	require.NoError(t, err)
	nodesHandler, err := NewNodesDBHandler(database, schemasHandler, 4, true)
	require.NoError(t, err)
	h, err := NewEdgesDBHandler(database, schemasHandler, nodesHandler, true)
	require.NoError(t, err)

	project, err := projectsHandler.CreateProject("edges-proj", model.Metadata{})
	require.NoError(t, err)

	personSchema, err := schemasHandler.CreateSchema(&model.Schema{
		ProjectID: project.ID, SchemaName: "PERSON", EntityType: model.EntityTypeNode,
		VersionString: "1.0.0", IsActive: true,
	})
	require.NoError(t, err)

	worksAtSchema, err := schemasHandler.CreateSchema(&model.Schema{
		ProjectID: project.ID, SchemaName: "WORKS_AT", EntityType: model.EntityTypeEdge,
		VersionString: "1.0.0", IsActive: true,
		StructuredAttributes: []model.AttributeDef{
			{Name: "role", DataType: model.DataTypeString, Required: false},
		},
	})
	require.NoError(t, err)

	alice, err := nodesHandler.CreateNode(project.ID, personSchema.ID, "alice",
		map[string]interface{}{}, nil, nil, model.Metadata{})
	require.NoError(t, err)
	northwind, err := nodesHandler.CreateNode(project.ID, personSchema.ID, "northwind",
		map[string]interface{}{}, nil, nil, model.Metadata{})
	require.NoError(t, err)

	t.Run("create and select", func(t *testing.T) {
		e, err := h.CreateEdge(project.ID, worksAtSchema.ID, alice.ID, northwind.ID,
			map[string]interface{}{"role": "engineer"}, nil, model.Metadata{})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, "engineer", e.StructuredData["role"].Raw())

		fetched, err := h.SelectEdge(e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ID, fetched.ID)
	})

	t.Run("co-occurrence edges deduplicate by endpoints and schema", func(t *testing.T) {
		first, err := h.CreateEdge(project.ID, worksAtSchema.ID, alice.ID, northwind.ID,
			map[string]interface{}{"role": "duplicate-check"}, nil, model.Metadata{})
		require.NoError(t, err)

		again, err := h.CreateEdge(project.ID, worksAtSchema.ID, alice.ID, northwind.ID,
			map[string]interface{}{"role": "duplicate-check"}, nil, model.Metadata{})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("endpoint outside the project is rejected", func(t *testing.T) {
		otherProject, err := projectsHandler.CreateProject("other-proj", model.Metadata{})
		require.NoError(t, err)
		foreignNode, err := nodesHandler.CreateNode(otherProject.ID, personSchema.ID, "foreign",
			map[string]interface{}{}, nil, nil, model.Metadata{})
		require.NoError(t, err)

		_, err = h.CreateEdge(project.ID, worksAtSchema.ID, alice.ID, foreignNode.ID,
			map[string]interface{}{}, nil, model.Metadata{})
		require.Error(t, err)
		assert.True(t, helper.IsKind(err, helper.ErrNodeNotFound))
	})

	t.Run("select edges by project, optionally scoped to a schema", func(t *testing.T) {
		edges, err := h.SelectEdgesByProject(project.ID, worksAtSchema.ID, 100)
		require.NoError(t, err)
		assert.NotEmpty(t, edges)
		for _, e := range edges {
			assert.Equal(t, worksAtSchema.ID, e.SchemaID)
		}

		anySchema, err := h.SelectEdgesByProject(project.ID, uuid.Nil, 100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(anySchema), len(edges))
	})

	t.Run("select edges touching a node set", func(t *testing.T) {
		edges, err := h.SelectEdgesByNodes(project.ID, []uuid.UUID{alice.ID})
		require.NoError(t, err)
		assert.NotEmpty(t, edges)
		for _, e := range edges {
			assert.True(t, e.SourceNodeID == alice.ID || e.TargetNodeID == alice.ID)
		}

		empty, err := h.SelectEdgesByNodes(project.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, empty)
	})
}
