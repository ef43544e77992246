package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{
			name: "valid message",
			raw:  `{"id":"m1","created_at":"2025-06-01T10:00:00Z","author_type":"agent","agent_name":"pm","message_type":"text","content":"hello"}`,
			want: true,
		},
		{
			name: "missing id",
			raw:  `{"created_at":"2025-06-01T10:00:00Z","message_type":"text"}`,
			want: false,
		},
		{
			name: "missing timestamp",
			raw:  `{"id":"m2","message_type":"text"}`,
			want: false,
		},
		{
			name: "undecodable",
			raw:  `{"id":`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(json.RawMessage(tt.raw))
			if tt.want {
				require.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	m := Normalize(json.RawMessage(`{"id":"m1","created_at":"2025-06-01T10:00:00Z"}`))
	require.NotNil(t, m)
	assert.Equal(t, AuthorSystem, m.AuthorType)
	assert.Equal(t, TypeText, m.Type)
}

func TestNormalize_StructuredData(t *testing.T) {
	raw := `{
		"id": "q1",
		"created_at": "2025-06-01T10:00:00Z",
		"author_type": "agent",
		"agent_name": "analyst",
		"message_type": "agent_question",
		"content": "Which platforms?",
		"structured_data": {
			"question_id": "q1",
			"question_type": "multiple_choice",
			"options": ["web", "mobile"],
			"answered": false
		}
	}`

	m := Normalize(json.RawMessage(raw))
	require.NotNil(t, m)
	require.NotNil(t, m.Data)
	assert.Equal(t, TypeAgentQuestion, m.Type)
	assert.True(t, m.IsUnansweredQuestion())
	assert.True(t, m.IsMultipleChoice())
	assert.Equal(t, []string{"web", "mobile"}, m.Data.Options)
}

func TestNormalizePage_ReversesServerOrder(t *testing.T) {
	// History pages arrive newest-first; normalization must flip them so the
	// page is chronological before it reaches the merger.
	rows := []json.RawMessage{
		json.RawMessage(`{"id":"m3","created_at":"2025-06-01T10:02:00Z","message_type":"text","content":"third"}`),
		json.RawMessage(`{"id":"m2","created_at":"2025-06-01T10:01:00Z","message_type":"text","content":"second"}`),
		json.RawMessage(`{"id":"bad"}`),
		json.RawMessage(`{"id":"m1","created_at":"2025-06-01T10:00:00Z","message_type":"text","content":"first"}`),
	}

	page := NormalizePage(rows)
	require.Len(t, page, 3)
	assert.Equal(t, "m1", page[0].ID)
	assert.Equal(t, "m2", page[1].ID)
	assert.Equal(t, "m3", page[2].ID)
}
