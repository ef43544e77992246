package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/core/config"
	"github.com/parleyhq/parley/internal/core/conversation"
)

func timelineMsg(id string, minute int) conversation.Message {
	return conversation.Message{
		ID:         id,
		CreatedAt:  time.Date(2026, 3, 1, 10, minute, 0, 0, time.UTC),
		AuthorType: conversation.AuthorAgent,
		AgentName:  "analyst",
		Type:       conversation.TypeText,
		Content:    "msg " + id,
	}
}

func testModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	return New(&cfg, Options{ProjectID: "proj-1"})
}

func TestModel_CachedTranscriptSeedsTimeline(t *testing.T) {
	m := testModel(t)

	cached := []conversation.Message{timelineMsg("a", 1), timelineMsg("b", 2)}
	updated, _ := m.Update(cacheLoadedMsg{messages: cached})
	mm := updated.(Model)

	assert.False(t, mm.loading, "a seeded timeline renders immediately")
	require.Len(t, mm.entries, 2)
	assert.Equal(t, "a", mm.entries[0].Message.ID)

	// The first server page dedups against the seed instead of duplicating it.
	page := []conversation.Message{timelineMsg("b", 2), timelineMsg("c", 3)}
	updated, _ = mm.Update(historyLoadedMsg{messages: page, total: 3})
	mm = updated.(Model)

	require.Len(t, mm.entries, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, mm.entries[i].Message.ID)
	}
}

func TestModel_CacheLoadErrorIsIgnored(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(cacheLoadedMsg{err: errors.New("corrupt cache")})
	mm := updated.(Model)

	assert.True(t, mm.loading, "a failed cache read must not hide the loading state")
	assert.Nil(t, mm.err, "cache reads are best effort and never surface errors")
}

func TestModel_FailedOlderFetchClearsLoadingState(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(historyLoadedMsg{messages: []conversation.Message{timelineMsg("a", 1)}, total: 5})
	mm := updated.(Model)

	// User pages into scrollback and requests older history.
	mm.follow.ScrollCompleted()
	mm.follow.OnUserScroll(false)
	mm.follow.BeginLoadingOlder()

	updated, _ = mm.Update(historyLoadedMsg{older: true, err: errors.New("server unavailable")})
	mm = updated.(Model)

	assert.False(t, mm.follow.IsLoadingOlder(), "loading window must close on a failed fetch")
	assert.True(t, mm.follow.UserScrolledUp())
	assert.Error(t, mm.err)

	// Returning to the bottom resumes following.
	mm.follow.OnUserScroll(true)
	assert.False(t, mm.follow.UserScrolledUp())
}
