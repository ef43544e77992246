package conversation

// Interaction is the single question currently awaiting the user's answer.
type Interaction struct {
	Message        Message
	MultipleChoice bool
}

// Tracker owns the pending-interaction state machine. The state is either
// none or pending(question); it is re-derived from the merged timeline on
// every change, while the answered transition is applied optimistically the
// moment the user submits.
type Tracker struct {
	current  *Interaction
	notified map[string]bool // question ids that already fired the attention hook
	answered map[string]bool // optimistically answered question ids
	onNew    func(Interaction)
}

// NewTracker creates a tracker. onNew fires when a question becomes pending
// for the first time, at most once per distinct question id; it may be nil.
func NewTracker(onNew func(Interaction)) *Tracker {
	return &Tracker{
		notified: make(map[string]bool),
		answered: make(map[string]bool),
		onNew:    onNew,
	}
}

// Recompute re-derives the pending interaction from the merged timeline.
// Among unanswered agent_question messages the latest created_at wins; a
// newer question supersedes an older one rather than queueing behind it.
func (t *Tracker) Recompute(msgs []Message) {
	var next *Message
	for i := range msgs {
		m := &msgs[i]
		if !m.IsUnansweredQuestion() || t.answered[m.QuestionID()] {
			continue
		}
		// Ties on created_at resolve to the later timeline position.
		if next == nil || !m.CreatedAt.Before(next.CreatedAt) {
			next = m
		}
	}

	if next == nil {
		t.current = nil
		return
	}

	arrived := t.current == nil || t.current.Message.ID != next.ID
	t.current = &Interaction{
		Message:        *next,
		MultipleChoice: next.IsMultipleChoice(),
	}
	if arrived && !t.notified[next.ID] {
		t.notified[next.ID] = true
		if t.onNew != nil {
			t.onNew(*t.current)
		}
	}
}

// Current returns the pending interaction, or nil when there is none.
func (t *Tracker) Current() *Interaction {
	return t.current
}

// MarkAnswered clears the given question optimistically, before any server
// confirmation. The id stays cleared for the life of the tracker because a
// stale history page may keep reporting the question as unanswered; the
// optimistic clear is authoritative until the timeline reflects answered.
func (t *Tracker) MarkAnswered(questionID string) {
	t.answered[questionID] = true
	if t.current != nil && t.current.Message.QuestionID() == questionID {
		t.current = nil
	}
}

// BlocksComposition reports whether free-text composition must be blocked:
// a pending multiple-choice question. Open-text questions are answered by
// typing in the main composer, so they never block it.
func (t *Tracker) BlocksComposition() bool {
	return t.current != nil && t.current.MultipleChoice
}
