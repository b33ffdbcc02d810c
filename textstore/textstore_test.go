package textstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWriteThenFetchRoundTrips(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	docID := uuid.New()
	require.NoError(t, store.WriteText(docID, "hello world"))

	text, err := store.FetchText(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestFileStoreFetchMissingDocumentIsUnreadable(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.FetchText(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, helper.IsKind(err, helper.ErrDocumentUnreadable))
}

func TestFileStoreFetchRespectsCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	docID := uuid.New()
	require.NoError(t, store.WriteText(docID, "some text"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.FetchText(ctx, docID)
	require.Error(t, err)
	assert.True(t, helper.IsKind(err, helper.ErrCancelled))
}

func TestNewFileStoreCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/path"
	_, err := NewFileStore(dir)
	require.NoError(t, err)

	store2, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store2.WriteText(uuid.New(), "reused dir"))
}
