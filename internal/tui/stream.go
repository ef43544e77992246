package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/store/jsonfile"
	"github.com/parleyhq/parley/internal/transport"
)

const (
	fetchTimeout      = 10 * time.Second
	reconnectInterval = 2 * time.Second
)

// historyLoadedMsg is sent when a history page has been fetched.
type historyLoadedMsg struct {
	messages []conversation.Message
	total    int
	older    bool
	err      error
}

// streamConnectedMsg is sent when the live stream is established.
type streamConnectedMsg struct {
	events <-chan transport.Event
	err    error
}

// streamEventMsg carries one live event.
type streamEventMsg struct {
	event transport.Event
}

// streamClosedMsg is sent when the event channel closes.
type streamClosedMsg struct{}

// reconnectTickMsg triggers a reconnect attempt.
type reconnectTickMsg struct{}

// actionDoneMsg is sent when an outbound action completes.
type actionDoneMsg struct {
	err error
}

// transcriptSavedMsg is sent when the local cache write completes.
type transcriptSavedMsg struct {
	err error
}

// cacheLoadedMsg carries the locally cached transcript read at startup.
type cacheLoadedMsg struct {
	messages []conversation.Message
	err      error
}

// fetchHistory returns a command that loads one history page. A zero before
// fetches the newest page; older marks a scrollback fetch.
func fetchHistory(h transport.History, projectID string, before time.Time, limit int, older bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		page, err := h.FetchPage(ctx, projectID, before, limit)
		if err != nil {
			return historyLoadedMsg{older: older, err: err}
		}

		return historyLoadedMsg{
			messages: conversation.NormalizePage(page.Messages),
			total:    page.TotalCount,
			older:    older,
		}
	}
}

// loadCachedTranscript returns a command that seeds the timeline from the
// local cache while the first server page is in flight. Merge dedup makes
// replaying the cache against fresh pages harmless.
func loadCachedTranscript(store *jsonfile.TranscriptStore, projectID string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := store.Load(context.Background(), projectID)
		return cacheLoadedMsg{messages: msgs, err: err}
	}
}

// connectStream returns a command that opens the live event stream.
func connectStream(s transport.Stream, projectID string) tea.Cmd {
	return func() tea.Msg {
		events, err := s.Connect(context.Background(), projectID)
		return streamConnectedMsg{events: events, err: err}
	}
}

// waitForEvent returns a command that blocks on the next stream event.
func waitForEvent(events <-chan transport.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: ev}
	}
}

// scheduleReconnect returns a command that fires a reconnect attempt after a
// short delay.
func scheduleReconnect() tea.Cmd {
	return tea.Tick(reconnectInterval, func(time.Time) tea.Msg {
		return reconnectTickMsg{}
	})
}
