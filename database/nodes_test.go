package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodesCreateSelectAndProjectScan(t *testing.T) {
	database := initDB(t)

	projectsHandler, err := NewProjectsDBHandler(database, true)
	require.NoError(t, err)
	schemasHandler, err := NewSchemasDBHandler(database, true)
	require.NoError(t, err)
	h, err := NewNodesDBHandler(database, schemasHandler, 4, true)
	require.NoError(t, err)

	project, err := projectsHandler.CreateProject("nodes-proj", model.Metadata{})
	require.NoError(t, err)

	personSchema, err := schemasHandler.CreateSchema(&model.Schema{
		ProjectID:     project.ID,
		SchemaName:    "PERSON",
		EntityType:    model.EntityTypeNode,
		VersionString: "1.0.0",
		StructuredAttributes: []model.AttributeDef{
			{Name: "full_name", DataType: model.DataTypeString, Required: true},
		},
		IsActive: true,
	})
	require.NoError(t, err)

	orgSchema, err := schemasHandler.CreateSchema(&model.Schema{
		ProjectID:     project.ID,
		SchemaName:    "ORGANIZATION",
		EntityType:    model.EntityTypeNode,
		VersionString: "1.0.0",
		StructuredAttributes: []model.AttributeDef{
			{Name: "name", DataType: model.DataTypeString, Required: true},
		},
		IsActive: true,
	})
	require.NoError(t, err)

	t.Run("create and select", func(t *testing.T) {
		n, err := h.CreateNode(project.ID, personSchema.ID, "alice-chen",
			map[string]interface{}{"full_name": "Alice Chen"}, nil,
			[]float32{0.1, 0.2, 0.3, 0.4}, model.Metadata{})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, n.ID)
		assert.Equal(t, "Alice Chen", n.StructuredData["full_name"].Raw())

		fetched, err := h.SelectNode(n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, fetched.ID)
	})

	t.Run("schema of the wrong entity type is rejected", func(t *testing.T) {
		edgeSchema, err := schemasHandler.CreateSchema(&model.Schema{
			ProjectID:     project.ID,
			SchemaName:    "WORKS_AT",
			EntityType:    model.EntityTypeEdge,
			VersionString: "1.0.0",
			IsActive:      true,
		})
		require.NoError(t, err)

		_, err = h.CreateNode(project.ID, edgeSchema.ID, "",
			map[string]interface{}{}, nil, nil, model.Metadata{})
		require.Error(t, err)
		assert.True(t, helper.IsKind(err, helper.ErrSchemaValidation))
	})

	t.Run("select nodes by project, optionally scoped to a schema", func(t *testing.T) {
		_, err := h.CreateNode(project.ID, personSchema.ID, "bob-okafor",
			map[string]interface{}{"full_name": "Bob Okafor"}, nil, nil, model.Metadata{})
		require.NoError(t, err)

		_, err = h.CreateNode(project.ID, orgSchema.ID, "northwind-labs",
			map[string]interface{}{"name": "Northwind Labs"}, nil, nil, model.Metadata{})
		require.NoError(t, err)

		all, err := h.SelectNodesByProject(project.ID, uuid.Nil, 100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)

		onlyPeople, err := h.SelectNodesByProject(project.ID, personSchema.ID, 100)
		require.NoError(t, err)
		for _, n := range onlyPeople {
			assert.Equal(t, personSchema.ID, n.SchemaID)
		}

		onlyOrgs, err := h.SelectNodesByProject(project.ID, orgSchema.ID, 100)
		require.NoError(t, err)
		for _, n := range onlyOrgs {
			assert.Equal(t, orgSchema.ID, n.SchemaID)
		}
	})

	t.Run("select missing node", func(t *testing.T) {
		_, err := h.SelectNode(uuid.New())
		assert.True(t, helper.IsKind(err, helper.ErrNodeNotFound))
	})
}
