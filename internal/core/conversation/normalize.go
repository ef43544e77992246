package conversation

import "encoding/json"

// Normalize converts a raw record from either the history source or the live
// stream into a canonical Message. It returns nil when the record cannot be
// mapped: undecodable JSON, a missing id, or a missing timestamp. Malformed
// records are dropped, never surfaced as pipeline errors.
func Normalize(raw json.RawMessage) *Message {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	if m.ID == "" || m.CreatedAt.IsZero() {
		return nil
	}
	if m.AuthorType == "" {
		m.AuthorType = AuthorSystem
	}
	if m.Type == "" {
		m.Type = TypeText
	}
	return &m
}

// NormalizePage converts one page of history records. Pages arrive from the
// server in reverse-chronological order; the page is reversed here so that
// within-page ordering is chronological before it reaches the merger. This is
// the boundary contract with the history source, not a merger concern.
func NormalizePage(rows []json.RawMessage) []Message {
	out := make([]Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if m := Normalize(rows[i]); m != nil {
			out = append(out, *m)
		}
	}
	return out
}
