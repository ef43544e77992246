package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/core/conversation"
)

func testStore(t *testing.T) *TranscriptStore {
	t.Helper()
	return NewTranscriptStore(filepath.Join(t.TempDir(), "transcripts"))
}

func msg(id string, minute int) conversation.Message {
	return conversation.Message{
		ID:         id,
		CreatedAt:  time.Date(2026, 3, 1, 10, minute, 0, 0, time.UTC),
		AuthorType: conversation.AuthorAgent,
		AgentName:  "analyst",
		Type:       conversation.TypeText,
		Content:    "msg " + id,
	}
}

func TestTranscriptStore_SaveAndLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	msgs := []conversation.Message{msg("a", 1), msg("b", 2)}
	require.NoError(t, store.Save(ctx, "proj-1", msgs))

	loaded, err := store.Load(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0].ID)
	assert.Equal(t, "b", loaded[1].ID)
}

func TestTranscriptStore_LoadMissingProject(t *testing.T) {
	store := testStore(t)

	loaded, err := store.Load(context.Background(), "nope")

	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestTranscriptStore_MergeDeduplicates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "proj-1", []conversation.Message{msg("a", 1), msg("b", 2)}))

	merged, err := store.Merge(ctx, "proj-1", []conversation.Message{msg("b", 2), msg("c", 3)})

	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})

	// Merge persists its result.
	loaded, err := store.Load(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestTranscriptStore_MergeIntoEmpty(t *testing.T) {
	store := testStore(t)

	merged, err := store.Merge(context.Background(), "proj-1", []conversation.Message{msg("a", 1)})

	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestTranscriptStore_RetentionKeepsNewest(t *testing.T) {
	store := testStore(t).WithMaxMessages(2)
	ctx := context.Background()

	msgs := []conversation.Message{msg("a", 1), msg("b", 2), msg("c", 3)}
	require.NoError(t, store.Save(ctx, "proj-1", msgs))

	loaded, err := store.Load(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "b", loaded[0].ID)
	assert.Equal(t, "c", loaded[1].ID)
}

func TestTranscriptStore_List(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "proj-b", nil))
	require.NoError(t, store.Save(ctx, "proj-a", nil))

	projects, err := store.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"proj-a", "proj-b"}, projects)
}

func TestTranscriptStore_ListEmptyDir(t *testing.T) {
	store := testStore(t)

	projects, err := store.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestTranscriptStore_Delete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "proj-1", []conversation.Message{msg("a", 1)}))
	require.NoError(t, store.Delete(ctx, "proj-1"))

	loaded, err := store.Load(ctx, "proj-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, "proj-1"))
}

func TestTranscriptStore_CorruptFileErrors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	store := NewTranscriptStore(dir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj-1.json"), []byte("{not json"), 0o644))

	_, err := store.Load(context.Background(), "proj-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse transcript file")
}

func TestTranscriptStore_ProjectIDRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Separators, underscores, and escape characters must all survive a
	// save/list cycle without colliding or mutating.
	ids := []string{"a_b", "org/proj", "pct%20id", "proj-1"}
	for _, id := range ids {
		require.NoError(t, store.Save(ctx, id, []conversation.Message{msg("a", 1)}))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Len(t, loaded, 1, "project %q", id)
	}

	projects, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, projects)
}
