package conversation

import "sort"

// BatchGroup is a collapsed question set: one logical entry for all messages
// sharing a batch_id, regardless of how many raw messages carried its parts.
type BatchGroup struct {
	BatchID   string     `json:"batch_id"`
	Questions []Question `json:"questions"`
	Answered  bool       `json:"answered"`
	Answers   []Answer   `json:"answers,omitempty"`
}

// Entry is one rendered timeline element: either a plain message or a
// collapsed batch question group anchored at its first constituent.
type Entry struct {
	Message Message
	Batch   *BatchGroup
}

// Collapse folds agent_question_batch constituents into single BatchGroup
// entries, positioned at the timeline index of each group's first-encountered
// constituent. Non-batch messages pass through unchanged. Each distinct
// batch_id contributes exactly one entry per pass.
func Collapse(msgs []Message) []Entry {
	entries := make([]Entry, 0, len(msgs))
	processed := make(map[string]bool)

	for i := range msgs {
		m := msgs[i]
		id := m.BatchID()
		if id == "" {
			entries = append(entries, Entry{Message: m})
			continue
		}
		if processed[id] {
			continue
		}
		processed[id] = true
		entries = append(entries, Entry{
			Message: m,
			Batch:   collapseGroup(msgs, id),
		})
	}
	return entries
}

// collapseGroup builds the question set for one batch_id. If any constituent
// already carries a populated questions array (new wire format) it is used
// verbatim; otherwise the legacy sibling messages are ordered by batch_index
// and their content synthesized into questions. The group is answered if any
// constituent reports answered.
func collapseGroup(msgs []Message, batchID string) *BatchGroup {
	group := &BatchGroup{BatchID: batchID}

	var parts []Message
	for i := range msgs {
		if msgs[i].BatchID() != batchID {
			continue
		}
		m := msgs[i]
		parts = append(parts, m)
		if m.Data.Answered {
			group.Answered = true
		}
		group.Answers = append(group.Answers, m.Data.Answers...)
		if len(group.Questions) == 0 && len(m.Data.Questions) > 0 {
			group.Questions = m.Data.Questions
		}
	}
	if len(group.Questions) > 0 {
		return group
	}

	// Legacy format: each sibling message is one question, ordered by
	// batch_index. The sort is stable so ties keep encounter order.
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Data.BatchIndex < parts[j].Data.BatchIndex
	})
	for _, p := range parts {
		group.Questions = append(group.Questions, Question{
			ID:            p.QuestionID(),
			Text:          p.Content,
			Type:          p.Data.QuestionType,
			Options:       p.Data.Options,
			AllowMultiple: p.Data.AllowMultiple,
		})
	}
	return group
}
