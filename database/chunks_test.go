package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksBulkInsertAndSimilaritySearch(t *testing.T) {
	database := initDB(t)

	projectsHandler, err := NewProjectsDBHandler(database, true)
	require.NoError(t, err)
	documentsHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)
	h, err := NewChunksDBHandler(database, 4, true)
	require.NoError(t, err)

	project, err := projectsHandler.CreateProject("chunks-proj", model.Metadata{})
	require.NoError(t, err)
	doc, err := documentsHandler.CreateDocument(project.ID, "notes.txt", 100, 1)
	require.NoError(t, err)

	texts := []string{"alpha beta", "gamma delta", "epsilon zeta"}
	embeddings := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.9, 0.1, 0, 0},
	}

	t.Run("bulk insert", func(t *testing.T) {
		n, err := h.CreateChunksBulk(project.ID, doc.ID, texts, embeddings)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		count, err := h.CountChunksByDocument(doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("mismatched lengths rejected", func(t *testing.T) {
		_, err := h.CreateChunksBulk(project.ID, doc.ID, texts[:1], embeddings)
		assert.Error(t, err)
	})

	t.Run("chunks ordered by index", func(t *testing.T) {
		chunks, err := h.SelectChunksByDocument(doc.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.ChunkIndex)
		}
	})

	t.Run("similarity search ranks the closest vector first", func(t *testing.T) {
		results, err := h.SimilaritySearch(project.ID, []float32{1, 0, 0, 0}, 2, nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "alpha beta", results[0].Chunk.Text)
	})

	t.Run("similarity search scoped to a document set", func(t *testing.T) {
		otherDoc, err := documentsHandler.CreateDocument(project.ID, "other.txt", 10, 1)
		require.NoError(t, err)
		_, err = h.CreateChunksBulk(project.ID, otherDoc.ID, []string{"unrelated"}, [][]float32{{0, 0, 1, 0}})
		require.NoError(t, err)

		results, err := h.SimilaritySearch(project.ID, []float32{1, 0, 0, 0}, 10, &SimilarityFilter{DocumentIDs: []uuid.UUID{doc.ID}})
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, doc.ID, r.Chunk.DocumentID)
		}
	})
}
