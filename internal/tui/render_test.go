package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/core/presence"
)

func entryAt(minute int, typ conversation.MessageType, content string) conversation.Entry {
	return conversation.Entry{
		Message: conversation.Message{
			ID:         "m1",
			CreatedAt:  time.Date(2026, 3, 1, 10, minute, 0, 0, time.UTC),
			AuthorType: conversation.AuthorAgent,
			AgentName:  "analyst",
			Type:       typ,
			Content:    content,
		},
	}
}

func TestRenderEntry_Text(t *testing.T) {
	out := renderEntry(entryAt(5, conversation.TypeText, "hello world"), 80, "")

	assert.Contains(t, out, "analyst")
	assert.Contains(t, out, "10:05")
	assert.Contains(t, out, "hello world")
}

func TestRenderEntry_UserAuthor(t *testing.T) {
	e := entryAt(5, conversation.TypeText, "hi")
	e.Message.AuthorType = conversation.AuthorUser
	e.Message.AgentName = ""

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "you")
}

func TestRenderEntry_PendingQuestion(t *testing.T) {
	e := entryAt(5, conversation.TypeAgentQuestion, "Which database?")
	e.Message.Data = &conversation.StructuredData{
		QuestionID: "q-1",
		Options:    []string{"postgres", "sqlite"},
	}

	out := renderEntry(e, 80, "q-1")

	assert.Contains(t, out, "Which database?")
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "awaiting your response")
}

func TestRenderEntry_AnsweredQuestion(t *testing.T) {
	e := entryAt(5, conversation.TypeAgentQuestion, "Which database?")
	e.Message.Data = &conversation.StructuredData{QuestionID: "q-1", Answered: true}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "answered")
	assert.NotContains(t, out, "awaiting")
}

func TestRenderEntry_Batch(t *testing.T) {
	e := entryAt(5, conversation.TypeAgentQuestionBatch, "")
	e.Batch = &conversation.BatchGroup{
		BatchID: "b-1",
		Questions: []conversation.Question{
			{ID: "q-1", Text: "Name?"},
			{ID: "q-2", Text: "Color?", Options: []string{"red", "blue"}},
		},
		Answers: []conversation.Answer{{QuestionID: "q-1", Text: "parley"}},
	}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "2 questions")
	assert.Contains(t, out, "1. Name?")
	assert.Contains(t, out, "2. Color?")
	assert.Contains(t, out, "parley")
	assert.Contains(t, out, "awaiting your responses")
}

func TestRenderEntry_AnsweredBatch(t *testing.T) {
	e := entryAt(5, conversation.TypeAgentQuestionBatch, "")
	e.Batch = &conversation.BatchGroup{
		BatchID:   "b-1",
		Questions: []conversation.Question{{ID: "q-1", Text: "Name?"}},
		Answered:  true,
	}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "answered")
	assert.NotContains(t, out, "awaiting")
}

func TestRenderEntry_Handoff(t *testing.T) {
	e := entryAt(5, conversation.TypeAgentHandoff, "")
	e.Message.Data = &conversation.StructuredData{
		FromAgent: "planner",
		ToAgent:   "builder",
		Reason:    "plan approved",
	}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "handoff: planner -> builder")
	assert.Contains(t, out, "plan approved")
}

func TestRenderEntry_Artifact(t *testing.T) {
	e := entryAt(5, conversation.TypeArtifactCreated, "")
	e.Message.Data = &conversation.StructuredData{
		ArtifactID:    "art-1",
		ArtifactTitle: "Project Brief",
	}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "Project Brief")
	// The hint names the same binding the help line advertises.
	assert.Contains(t, out, "[ctrl+o] preview")
}

func TestRenderEntry_Stories(t *testing.T) {
	e := entryAt(5, conversation.TypeStoriesCreated, "")
	e.Message.Data = &conversation.StructuredData{StoryCount: 7}

	out := renderEntry(e, 80, "")

	assert.Contains(t, out, "created 7 stories")
}

func TestRenderTyping(t *testing.T) {
	now := time.Now()

	assert.Empty(t, renderTyping(nil))

	one := renderTyping([]presence.TypingAgent{
		{AgentName: "analyst", Note: "drafting stories", Since: now},
	})
	assert.Contains(t, one, "analyst is typing")
	assert.Contains(t, one, "drafting stories")

	two := renderTyping([]presence.TypingAgent{
		{AgentName: "analyst", Since: now},
		{AgentName: "planner", Since: now},
	})
	assert.Contains(t, two, "analyst, planner are typing")
}
