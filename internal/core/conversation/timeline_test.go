package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(minute int) time.Time {
	return time.Date(2025, 6, 1, 10, minute, 0, 0, time.UTC)
}

func textMsg(id string, created time.Time) Message {
	return Message{ID: id, CreatedAt: created, AuthorType: AuthorAgent, Type: TypeText, Content: "msg " + id}
}

func questionMsg(id string, created time.Time, answered bool) Message {
	return Message{
		ID:         id,
		CreatedAt:  created,
		AuthorType: AuthorAgent,
		Type:       TypeAgentQuestion,
		Data:       &StructuredData{QuestionID: id, Answered: answered},
	}
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Empty(t, Merge([]Message{}, []Message{}))
}

func TestMerge_Ordering(t *testing.T) {
	history := []Message{textMsg("h2", at(2)), textMsg("h0", at(0))}
	live := []Message{textMsg("l3", at(3)), textMsg("l1", at(1))}

	merged := Merge(history, live)

	require.Len(t, merged, 4)
	for i := 0; i < len(merged)-1; i++ {
		assert.False(t, merged[i+1].CreatedAt.Before(merged[i].CreatedAt),
			"entries %d and %d out of order", i, i+1)
	}
	assert.Equal(t, "h0", merged[0].ID)
	assert.Equal(t, "l3", merged[3].ID)
}

func TestMerge_DedupAcrossSources(t *testing.T) {
	shared := textMsg("dup", at(1))
	history := []Message{textMsg("h", at(0)), shared}
	live := []Message{shared, textMsg("l", at(2))}

	merged := Merge(history, live)

	require.Len(t, merged, 3)
	ids := make(map[string]int)
	for _, m := range merged {
		ids[m.ID]++
	}
	assert.Equal(t, 1, ids["dup"])
}

func TestMerge_Idempotent(t *testing.T) {
	history := []Message{textMsg("a", at(0)), textMsg("b", at(1))}
	live := []Message{textMsg("b", at(1)), textMsg("c", at(2))}

	first := Merge(history, live)
	// Re-merging the merged output with the same inputs changes nothing.
	second := Merge(first, live)

	assert.Equal(t, first, second)
}

func TestMerge_TieBreakStable(t *testing.T) {
	// Same timestamp everywhere: history entries must precede live entries.
	history := []Message{textMsg("h1", at(1)), textMsg("h2", at(1))}
	live := []Message{textMsg("l1", at(1))}

	merged := Merge(history, live)

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"h1", "h2", "l1"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
}

func TestMerge_AnsweredWinsOnDuplicate(t *testing.T) {
	// Scenario C: a stale history row says unanswered, a live event for the
	// same id says answered. The merged timeline must report answered.
	history := []Message{questionMsg("42", at(1), false)}
	live := []Message{questionMsg("42", at(1), true)}

	merged := Merge(history, live)

	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Data)
	assert.True(t, merged[0].Data.Answered)

	// And in the reverse arrival order.
	merged = Merge(live, history)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Data.Answered)
}

func TestMerge_LargeInterleaving(t *testing.T) {
	var history, live []Message
	for i := 0; i < 50; i++ {
		m := textMsg(fmt.Sprintf("m%02d", i), at(i))
		history = append(history, m)
		if i%2 == 0 {
			live = append(live, m) // half the set is delivered by both sources
		}
	}

	merged := Merge(history, live)

	require.Len(t, merged, 50)
	for i, m := range merged {
		assert.Equal(t, fmt.Sprintf("m%02d", i), m.ID)
	}
}
