// Package presence tracks ephemeral agent state: who is typing, who owns the
// conversation, and per-agent status. None of it is derived from the message
// timeline and none of it is persisted; a reconnect starts from empty state.
package presence

import (
	"sort"
	"time"

	"github.com/parleyhq/parley/pkg/kv"
)

// Status is an agent lifecycle status.
type Status string

const (
	StatusActive    Status = "active"
	StatusThinking  Status = "thinking"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
)

// TypingAgent is one active typing indicator.
type TypingAgent struct {
	AgentName string
	Note      string
	Since     time.Time
}

// Owner is the agent currently driving the conversation.
type Owner struct {
	AgentName string
	Status    Status
}

// AgentStatus is the last reported status for one agent.
type AgentStatus struct {
	Status     Status
	LastUpdate time.Time
}

// Snapshot is a point-in-time copy of presence state for the render layer.
type Snapshot struct {
	Typing   []TypingAgent
	Owner    *Owner
	Statuses map[string]AgentStatus
}

// Aggregator applies presence events independently and immediately. It is
// session-scoped: one instance per connection, reset wholesale on reconnect.
type Aggregator struct {
	typing   *kv.Store[string, TypingAgent]
	statuses *kv.Store[string, AgentStatus]
	owner    *kv.Store[struct{}, Owner]
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		typing:   kv.New[string, TypingAgent](),
		statuses: kv.New[string, AgentStatus](),
		owner:    kv.New[struct{}, Owner](),
	}
}

// StartTyping adds or refreshes a typing indicator for the agent. Indicators
// are keyed by agent identity so concurrent typers render distinct entries.
func (a *Aggregator) StartTyping(agent, note string, at time.Time) {
	if agent == "" {
		return
	}
	a.typing.Set(agent, TypingAgent{AgentName: agent, Note: note, Since: at})
}

// StopTyping removes the agent's typing indicator. Stopping an agent that
// never started is a no-op.
func (a *Aggregator) StopTyping(agent string) {
	a.typing.Delete(agent)
}

// ObserveMessage clears the typing indicator for an agent whose message just
// arrived; a message is as good as an explicit stop event.
func (a *Aggregator) ObserveMessage(agent string) {
	if agent == "" {
		return
	}
	a.typing.Delete(agent)
}

// SetOwner replaces the conversation owner wholesale. There are no partial
// field updates, so an inconsistent agent/status pair can never be observed.
func (a *Aggregator) SetOwner(agent string, status Status) {
	a.owner.Set(struct{}{}, Owner{AgentName: agent, Status: status})
}

// ClearOwner removes the conversation owner.
func (a *Aggregator) ClearOwner() {
	a.owner.Delete(struct{}{})
}

// SetStatus records the latest status for one agent. Unknown identities are
// applied as-is; the aggregator does not validate against a roster.
func (a *Aggregator) SetStatus(agent string, status Status, at time.Time) {
	if agent == "" {
		return
	}
	a.statuses.Set(agent, AgentStatus{Status: status, LastUpdate: at})
}

// TypingCount returns the number of active typing indicators.
func (a *Aggregator) TypingCount() int {
	return a.typing.Len()
}

// Reset drops all presence state, as on reconnect or page reload.
func (a *Aggregator) Reset() {
	a.typing.Clear()
	a.statuses.Clear()
	a.owner.Clear()
}

// Snapshot returns a stable copy of the current state. Typing entries are
// ordered by start time, then name, so renders are deterministic.
func (a *Aggregator) Snapshot() Snapshot {
	snap := Snapshot{Statuses: a.statuses.Snapshot()}

	for _, t := range a.typing.Snapshot() {
		snap.Typing = append(snap.Typing, t)
	}
	sort.Slice(snap.Typing, func(i, j int) bool {
		if !snap.Typing[i].Since.Equal(snap.Typing[j].Since) {
			return snap.Typing[i].Since.Before(snap.Typing[j].Since)
		}
		return snap.Typing[i].AgentName < snap.Typing[j].AgentName
	})

	if o, ok := a.owner.Get(struct{}{}); ok {
		snap.Owner = &o
	}
	return snap
}
