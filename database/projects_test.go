package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectsNewProjectsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("valid", func(t *testing.T) {
		h, err := NewProjectsDBHandler(database, true)
		require.NoError(t, err)
		require.NotNil(t, h)
	})

	t.Run("nil database", func(t *testing.T) {
		_, err := NewProjectsDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestProjectsCreateSelectDelete(t *testing.T) {
	database := initDB(t)

	h, err := NewProjectsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("create and select", func(t *testing.T) {
		p, err := h.CreateProject("acme", model.Metadata{"tier": "pro"})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, "acme", p.Name)

		fetched, err := h.SelectProject(p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, fetched.ID)
		assert.Equal(t, "pro", fetched.Metadata["tier"])
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		_, err := h.CreateProject("duplicate-me", model.Metadata{})
		require.NoError(t, err)

		_, err = h.CreateProject("duplicate-me", model.Metadata{})
		require.Error(t, err)
		assert.True(t, helper.IsKind(err, helper.ErrDuplicateName))
	})

	t.Run("select missing project", func(t *testing.T) {
		_, err := h.SelectProject(uuid.New())
		require.Error(t, err)
		assert.True(t, helper.IsKind(err, helper.ErrProjectNotFound))
	})

	t.Run("delete project", func(t *testing.T) {
		p, err := h.CreateProject("to-delete", model.Metadata{})
		require.NoError(t, err)

		require.NoError(t, h.DeleteProject(p.ID))

		_, err = h.SelectProject(p.ID)
		assert.True(t, helper.IsKind(err, helper.ErrProjectNotFound))
	})
}
