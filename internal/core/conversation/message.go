// Package conversation implements the client-side reconciliation pipeline:
// normalizing raw records into messages, merging the paged history with the
// live stream into one timeline, collapsing batch question groups, and
// tracking the single question awaiting a user response.
package conversation

import "time"

// AuthorType identifies who produced a message.
type AuthorType string

const (
	AuthorUser   AuthorType = "user"
	AuthorAgent  AuthorType = "agent"
	AuthorSystem AuthorType = "system"
)

// MessageType distinguishes plain text from structured events.
type MessageType string

const (
	TypeText               MessageType = "text"
	TypeAgentQuestion      MessageType = "agent_question"
	TypeAgentQuestionBatch MessageType = "agent_question_batch"
	TypeAgentHandoff       MessageType = "agent_handoff"
	TypeArtifactCreated    MessageType = "artifact_created"
	TypeStoriesCreated     MessageType = "stories_created"
)

const questionTypeMultipleChoice = "multiple_choice"

// Question is a single question inside a question set.
type Question struct {
	ID            string   `json:"question_id"`
	Text          string   `json:"question_text"`
	Type          string   `json:"question_type,omitempty"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
}

// Answer is a submitted answer to one question.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"answer_text,omitempty"`
	Selected   []string `json:"selected_options,omitempty"`
}

// StructuredData is the type-tagged payload of a structured message. Which
// fields are populated depends on the message type.
type StructuredData struct {
	// agent_question fields
	QuestionID    string   `json:"question_id,omitempty"`
	QuestionType  string   `json:"question_type,omitempty"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
	Answered      bool     `json:"answered,omitempty"`

	// agent_question_batch fields. Questions is populated in the new wire
	// format; BatchIndex orders legacy sibling messages.
	BatchID    string     `json:"batch_id,omitempty"`
	BatchIndex int        `json:"batch_index,omitempty"`
	Questions  []Question `json:"questions,omitempty"`
	Answers    []Answer   `json:"answers,omitempty"`

	// agent_handoff fields
	FromAgent string `json:"from_agent,omitempty"`
	ToAgent   string `json:"to_agent,omitempty"`
	Reason    string `json:"reason,omitempty"`

	// artifact_created / stories_created fields
	ArtifactID    string `json:"artifact_id,omitempty"`
	ArtifactTitle string `json:"artifact_title,omitempty"`
	ArtifactBody  string `json:"artifact_body,omitempty"`
	StoryCount    int    `json:"story_count,omitempty"`
}

// Message is the atomic unit of conversation, canonical across the paged
// history source and the live stream.
type Message struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	AuthorType AuthorType      `json:"author_type"`
	AgentName  string          `json:"agent_name,omitempty"`
	Type       MessageType     `json:"message_type"`
	Content    string          `json:"content,omitempty"`
	Data       *StructuredData `json:"structured_data,omitempty"`
}

// QuestionID returns the question identifier for an agent_question message,
// falling back to the message id when the payload carries none.
func (m *Message) QuestionID() string {
	if m.Data != nil && m.Data.QuestionID != "" {
		return m.Data.QuestionID
	}
	return m.ID
}

// IsUnansweredQuestion reports whether this is an agent_question still
// awaiting an answer.
func (m *Message) IsUnansweredQuestion() bool {
	return m.Type == TypeAgentQuestion && (m.Data == nil || !m.Data.Answered)
}

// IsMultipleChoice reports whether an agent_question offers a fixed option
// set rather than open text.
func (m *Message) IsMultipleChoice() bool {
	return m.Data != nil && (m.Data.QuestionType == questionTypeMultipleChoice || len(m.Data.Options) > 0)
}

// BatchID returns the batch identifier, or empty for non-batch messages.
func (m *Message) BatchID() string {
	if m.Type != TypeAgentQuestionBatch || m.Data == nil {
		return ""
	}
	return m.Data.BatchID
}
