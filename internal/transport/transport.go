// Package transport defines the boundary with the project-assistant backend:
// paginated history fetching, the live event stream, and the outbound actions
// the chat surface issues. The reconciliation core consumes these interfaces
// and never touches a connection directly.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when the stream is used before Connect.
	ErrNotConnected = errors.New("stream not connected")
	// ErrServerStatus is returned when the backend answers with a non-2xx
	// status.
	ErrServerStatus = errors.New("unexpected server status")
)

// Page is one page of conversation history. Messages are raw records in
// reverse-chronological order, exactly as the server delivers them; the
// conversation package normalizes and reverses them.
type Page struct {
	Messages   []json.RawMessage `json:"messages"`
	TotalCount int               `json:"total_count"`
}

// EventType tags a live stream event.
type EventType string

const (
	EventMessage     EventType = "message"
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"
	EventAgentStatus EventType = "agent_status"
	EventOwner       EventType = "conversation_owner"
)

// Event is one discrete event from the live subscription. Message is set for
// EventMessage; the presence fields cover the rest.
type Event struct {
	Type      EventType       `json:"type"`
	Message   json.RawMessage `json:"message,omitempty"`
	AgentName string          `json:"agent_name,omitempty"`
	Note      string          `json:"note,omitempty"`
	Status    string          `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// History fetches conversation pages from the backend.
type History interface {
	// FetchPage returns messages created before the given time, newest
	// first. A zero before means "from the newest message".
	FetchPage(ctx context.Context, projectID string, before time.Time, limit int) (Page, error)
}

// Stream yields live events for a project. The returned channel is closed
// when the connection drops; the caller decides whether to reconnect.
type Stream interface {
	Connect(ctx context.Context, projectID string) (<-chan Event, error)
	Close() error
}

// BatchAnswer is one answer inside a batch submission.
type BatchAnswer struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"answer_text,omitempty"`
	Selected   []string `json:"selected_options,omitempty"`
}

// Actions are the outbound calls the chat surface issues. All are
// fire-and-forget for UI purposes: local state updates optimistically and no
// confirmation is awaited for correctness.
type Actions interface {
	SubmitAnswer(ctx context.Context, questionID, text string, selected []string) error
	SubmitBatch(ctx context.Context, batchID string, answers []BatchAnswer) error
	SendMessage(ctx context.Context, projectID, text string) error
}
