package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasCreateSelectList(t *testing.T) {
	database := initDB(t)

	projectsHandler, err := NewProjectsDBHandler(database, true)
	require.NoError(t, err)
	h, err := NewSchemasDBHandler(database, true)
	require.NoError(t, err)

	project, err := projectsHandler.CreateProject("schemas-proj", model.Metadata{})
	require.NoError(t, err)

	personSchema := &model.Schema{
		ProjectID:   project.ID,
		SchemaName:  "PERSON",
		EntityType:  model.EntityTypeNode,
		VersionString: "1.0.0",
		StructuredAttributes: []model.AttributeDef{
			{Name: "full_name", DataType: model.DataTypeString, Required: true},
			{Name: "age", DataType: model.DataTypeInteger, Required: false},
		},
		IsActive: true,
	}

	t.Run("create and select", func(t *testing.T) {
		created, err := h.CreateSchema(personSchema)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)
		assert.True(t, created.IsActive)
		assert.Len(t, created.StructuredAttributes, 2)

		fetched, err := h.SelectSchema(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.SchemaName, fetched.SchemaName)
	})

	t.Run("invalid semver rejected", func(t *testing.T) {
		bad := &model.Schema{
			ProjectID:     project.ID,
			SchemaName:    "BAD_VERSION",
			EntityType:    model.EntityTypeNode,
			VersionString: "not-a-version",
		}
		_, err := h.CreateSchema(bad)
		require.Error(t, err)
		assert.True(t, helper.IsKind(err, helper.ErrSemverFormat))
	})

	t.Run("new active version deactivates the prior one", func(t *testing.T) {
		base := &model.Schema{
			ProjectID:     project.ID,
			SchemaName:    "ORGANIZATION",
			EntityType:    model.EntityTypeNode,
			VersionString: "1.0.0",
			IsActive:      true,
		}
		v1, err := h.CreateSchema(base)
		require.NoError(t, err)

		v2 := &model.Schema{
			ProjectID:     project.ID,
			SchemaName:    "ORGANIZATION",
			EntityType:    model.EntityTypeNode,
			VersionString: "2.0.0",
			IsActive:      true,
		}
		_, err = h.CreateSchema(v2)
		require.NoError(t, err)

		reloadedV1, err := h.SelectSchema(v1.ID)
		require.NoError(t, err)
		assert.False(t, reloadedV1.IsActive)
	})

	t.Run("list active schemas filters by entity type", func(t *testing.T) {
		edgeSchema := &model.Schema{
			ProjectID:     project.ID,
			SchemaName:    "WORKS_AT",
			EntityType:    model.EntityTypeEdge,
			VersionString: "1.0.0",
			IsActive:      true,
		}
		_, err := h.CreateSchema(edgeSchema)
		require.NoError(t, err)

		nodeSchemas, err := h.ListSchemas(project.ID, model.EntityTypeNode, true)
		require.NoError(t, err)
		for _, s := range nodeSchemas {
			assert.Equal(t, model.EntityTypeNode, s.EntityType)
		}

		edgeSchemas, err := h.ListSchemas(project.ID, model.EntityTypeEdge, true)
		require.NoError(t, err)
		require.NotEmpty(t, edgeSchemas)
		for _, s := range edgeSchemas {
			assert.Equal(t, model.EntityTypeEdge, s.EntityType)
		}
	})
}
