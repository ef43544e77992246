package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/core/config"
	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/core/presence"
	follow "github.com/parleyhq/parley/internal/core/viewport"
	"github.com/parleyhq/parley/internal/store/jsonfile"
	"github.com/parleyhq/parley/internal/transport"
)

// UIState represents the current state of the chat surface.
type UIState int

const (
	stateChatting UIState = iota
	stateAnswering
	statePreviewing
)

// Key constants for event handling.
const (
	keyEnter = "enter"
	keyCtrlC = "ctrl+c"
)

// Chrome rows around the transcript: header, status bar, composer, help.
const chromeHeight = 7

// Options configures the chat surface.
type Options struct {
	ProjectID string
	History   transport.History
	Stream    transport.Stream
	Actions   transport.Actions
	Store     *jsonfile.TranscriptStore // optional local cache
}

// attention carries the once-per-question alert from the tracker callback to
// the update loop. Shared by pointer so it survives model copies.
type attention struct {
	fired bool
}

// Model is the main Bubble Tea model for the chat surface.
type Model struct {
	cfg  *config.Config
	opts Options

	// Timeline state
	history []conversation.Message
	live    []conversation.Message
	merged  []conversation.Message
	entries []conversation.Entry

	tracker  *conversation.Tracker
	presence *presence.Aggregator
	follow   *follow.Controller
	alerts   *attention

	// Optimistically answered batches, keyed by batch_id.
	answeredBatches map[string]bool

	transcript *TranscriptView
	composer   textarea.Model
	spinner    spinner.Model

	state      UIState
	answerForm *AnswerForm
	preview    ArtifactPreviewModal

	events        <-chan transport.Event
	totalCount    int
	oldestFetched time.Time
	loading       bool
	prevLines     int // transcript line count before an older-history prepend

	width    int
	height   int
	err      error
	quitting bool
}

// New creates a new chat model.
func New(cfg *config.Config, opts Options) Model {
	alerts := &attention{}
	tracker := conversation.NewTracker(func(conversation.Interaction) {
		alerts.fired = true
	})

	ta := textarea.New()
	ta.Placeholder = "Send a message…"
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		cfg:             cfg,
		opts:            opts,
		tracker:         tracker,
		presence:        presence.New(),
		follow:          follow.NewController(),
		alerts:          alerts,
		answeredBatches: make(map[string]bool),
		transcript:      NewTranscriptView(),
		composer:        ta,
		spinner:         s,
		state:           stateChatting,
		loading:         true,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		textarea.Blink,
		fetchHistory(m.opts.History, m.opts.ProjectID, time.Time{}, m.cfg.History.PageSize, false),
		connectStream(m.opts.Stream, m.opts.ProjectID),
	}
	if m.opts.Store != nil {
		cmds = append(cmds, loadCachedTranscript(m.opts.Store, m.opts.ProjectID))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		contentHeight := msg.Height - chromeHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		m.transcript.SetSize(msg.Width, contentHeight)
		m.composer.SetWidth(msg.Width - 2)
		m.refreshTranscript()
		return m, nil

	case historyLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case cacheLoadedMsg:
		// Best effort seed; the server pages are the source of truth.
		if msg.err != nil || len(msg.messages) == 0 {
			return m, nil
		}
		m.history = conversation.Merge(m.history, msg.messages)
		m.oldestFetched = m.history[0].CreatedAt
		m.loading = false
		return m, m.rebuild(false)

	case streamConnectedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, scheduleReconnect()
		}
		m.err = nil
		m.events = msg.events
		// Fill any gap that opened while disconnected.
		return m, tea.Batch(
			waitForEvent(m.events),
			fetchHistory(m.opts.History, m.opts.ProjectID, time.Time{}, m.cfg.History.PageSize, false),
		)

	case streamEventMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case streamClosedMsg:
		// Presence is session-scoped; a new connection starts from empty.
		m.presence.Reset()
		m.refreshTranscript()
		return m, scheduleReconnect()

	case reconnectTickMsg:
		return m, connectStream(m.opts.Stream, m.opts.ProjectID)

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case transcriptSavedMsg:
		// Cache writes are best effort; surface nothing on success.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Route remaining messages to the active modal.
	if m.state == stateAnswering && m.answerForm != nil {
		return m.updateAnswerForm(msg)
	}

	return m, nil
}

// handleHistoryLoaded merges a fetched page into the timeline.
func (m Model) handleHistoryLoaded(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.loading = false
		if msg.older {
			m.follow.CancelLoadingOlder()
		}
		return m, nil
	}

	m.err = nil
	m.loading = false
	m.totalCount = msg.total
	m.history = conversation.Merge(m.history, msg.messages)
	if len(m.history) > 0 {
		m.oldestFetched = m.history[0].CreatedAt
	}

	cmd := m.rebuild(msg.older)
	return m, cmd
}

// handleEvent applies one live stream event.
func (m *Model) handleEvent(ev transport.Event) tea.Cmd {
	switch ev.Type {
	case transport.EventMessage:
		normalized := conversation.Normalize(ev.Message)
		if normalized == nil {
			return nil
		}
		m.live = append(m.live, *normalized)
		// A message from an agent supersedes its typing indicator.
		if normalized.AuthorType == conversation.AuthorAgent {
			m.presence.ObserveMessage(normalized.AgentName)
		}
		return m.rebuild(false)

	case transport.EventTypingStart:
		at := ev.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		m.presence.StartTyping(ev.AgentName, ev.Note, at)
		m.refreshTranscript()
		m.applyFollowAction(m.follow.OnTypingChange(m.presence.TypingCount()))
		return nil

	case transport.EventTypingStop:
		m.presence.StopTyping(ev.AgentName)
		m.refreshTranscript()
		m.follow.OnTypingChange(m.presence.TypingCount())
		return nil

	case transport.EventAgentStatus:
		at := ev.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		m.presence.SetStatus(ev.AgentName, presence.Status(ev.Status), at)
		return nil

	case transport.EventOwner:
		if ev.AgentName == "" {
			m.presence.ClearOwner()
		} else {
			m.presence.SetOwner(ev.AgentName, presence.Status(ev.Status))
		}
		return nil
	}

	return nil
}

// rebuild recomputes the merged timeline and refreshes the transcript. The
// whole pipeline runs from scratch on every change; there is no incremental
// patching to drift out of sync.
func (m *Model) rebuild(older bool) tea.Cmd {
	prevEntries := len(m.entries)

	m.merged = conversation.Merge(m.history, m.live)
	m.entries = conversation.Collapse(m.merged)
	m.tracker.Recompute(m.merged)

	m.refreshTranscript()

	prepended := 0
	if older && len(m.entries) > prevEntries {
		prepended = len(m.entries) - prevEntries
	}
	m.applyFollowAction(m.follow.OnTimelineChange(len(m.entries), prepended))

	var cmds []tea.Cmd
	if m.alerts.fired {
		m.alerts.fired = false
		cmds = append(cmds, tea.SetWindowTitle("parley "+iconDot+" question pending"))
	}
	if m.opts.Store != nil {
		cmds = append(cmds, m.saveTranscript())
	}
	return tea.Batch(cmds...)
}

// refreshTranscript re-renders the viewport content without changing offset.
func (m *Model) refreshTranscript() {
	pendingID := ""
	if cur := m.tracker.Current(); cur != nil {
		pendingID = cur.Message.QuestionID()
	}
	m.transcript.SetEntries(m.visibleEntries(), m.presence.Snapshot().Typing, pendingID)
}

// applyFollowAction executes a scroll directive from the follow controller.
func (m *Model) applyFollowAction(action follow.Action) {
	switch action {
	case follow.ActionJumpToBottom, follow.ActionScrollToBottom:
		m.transcript.GotoBottom()
		m.follow.ScrollCompleted()
	case follow.ActionRestoreOffset:
		m.transcript.RestoreOffset(m.prevLines)
		m.follow.ScrollCompleted()
	}
}

// visibleEntries filters muted entries out of the render set. The pending
// question and unanswered batches always render; muting never hides work the
// user is being asked to do.
func (m *Model) visibleEntries() []conversation.Entry {
	pendingID := ""
	if cur := m.tracker.Current(); cur != nil {
		pendingID = cur.Message.QuestionID()
	}

	visible := make([]conversation.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Batch != nil {
			if m.answeredBatches[e.Batch.BatchID] {
				e.Batch.Answered = true
			}
			visible = append(visible, e)
			continue
		}
		if e.Message.QuestionID() == pendingID && e.Message.Type == conversation.TypeAgentQuestion {
			visible = append(visible, e)
			continue
		}
		if m.cfg.IsMuted(e.Message.AgentName, string(e.Message.Type)) {
			continue
		}
		visible = append(visible, e)
	}
	return visible
}

// saveTranscript returns a command that persists the merged timeline to the
// local cache.
func (m *Model) saveTranscript() tea.Cmd {
	store, projectID, merged := m.opts.Store, m.opts.ProjectID, m.merged
	return func() tea.Msg {
		err := store.Save(context.Background(), projectID, merged)
		return transcriptSavedMsg{err: err}
	}
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if m.state == stateAnswering {
		return m.handleAnswerFormKey(msg, keyStr)
	}
	if m.state == statePreviewing {
		return m.handlePreviewKey(msg, keyStr)
	}

	return m.handleChattingKey(msg, keyStr)
}

// handleChattingKey handles keys in the main chat state.
func (m Model) handleChattingKey(msg tea.KeyMsg, keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case keyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case keyEnter:
		return m.submitComposer()

	case "esc":
		// Return to the conversation tail and resume following.
		m.transcript.GotoBottom()
		m.follow.OnUserScroll(true)
		return m, nil

	case "ctrl+a":
		return m.openAnswerForm()

	case "ctrl+o":
		return m.openArtifactPreview()

	case "pgup":
		if m.transcript.AtTop() && m.hasOlderHistory() {
			return m, m.loadOlder()
		}
		m.transcript.PageUp()
		m.follow.OnUserScroll(m.transcript.NearBottom(m.cfg.TUI.NearBottomLines))
		return m, nil

	case "pgdown":
		m.transcript.PageDown()
		m.follow.OnUserScroll(m.transcript.NearBottom(m.cfg.TUI.NearBottomLines))
		return m, nil

	case "ctrl+up":
		m.transcript.ScrollUp(1)
		m.follow.OnUserScroll(m.transcript.NearBottom(m.cfg.TUI.NearBottomLines))
		return m, nil

	case "ctrl+down":
		m.transcript.ScrollDown(1)
		m.follow.OnUserScroll(m.transcript.NearBottom(m.cfg.TUI.NearBottomLines))
		return m, nil
	}

	// A pending multiple-choice question blocks free-text composition.
	if m.tracker.BlocksComposition() {
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// submitComposer sends the composed text: as the answer to a pending
// open-text question, or as a regular message.
func (m Model) submitComposer() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.composer.Value())
	if text == "" {
		return m, nil
	}
	if m.tracker.BlocksComposition() {
		return m, nil
	}

	actions, projectID := m.opts.Actions, m.opts.ProjectID
	var send tea.Cmd

	if cur := m.tracker.Current(); cur != nil {
		qid := cur.Message.QuestionID()
		// Optimistic clear; the timeline catches up when the server echoes
		// the answered state.
		m.tracker.MarkAnswered(qid)
		send = func() tea.Msg {
			return actionDoneMsg{err: actions.SubmitAnswer(context.Background(), qid, text, nil)}
		}
	} else {
		send = func() tea.Msg {
			return actionDoneMsg{err: actions.SendMessage(context.Background(), projectID, text)}
		}
	}

	m.composer.Reset()
	m.follow.ForceNextScroll()
	rebuildCmd := m.rebuild(false)
	return m, tea.Batch(send, rebuildCmd, tea.SetWindowTitle("parley "+iconDot+" "+projectID))
}

// openAnswerForm opens the structured answer form for the pending question or
// the latest unanswered batch.
func (m Model) openAnswerForm() (tea.Model, tea.Cmd) {
	if cur := m.tracker.Current(); cur != nil && cur.MultipleChoice {
		m.answerForm = NewSingleAnswerForm(*cur)
		m.state = stateAnswering
		return m, m.answerForm.Form().Init()
	}

	// Latest unanswered batch entry, scanning from the newest.
	for i := len(m.entries) - 1; i >= 0; i-- {
		b := m.entries[i].Batch
		if b != nil && !b.Answered && !m.answeredBatches[b.BatchID] {
			m.answerForm = NewBatchAnswerForm(b)
			m.state = stateAnswering
			return m, m.answerForm.Form().Init()
		}
	}

	return m, nil
}

// openArtifactPreview opens the newest artifact in a markdown modal.
func (m Model) openArtifactPreview() (tea.Model, tea.Cmd) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.Batch == nil && e.Message.Type == conversation.TypeArtifactCreated {
			m.preview = NewArtifactPreviewModal(e.Message, m.width, m.height)
			m.state = statePreviewing
			return m, nil
		}
	}
	return m, nil
}

// hasOlderHistory reports whether the server holds messages older than the
// oldest fetched page.
func (m Model) hasOlderHistory() bool {
	return m.totalCount > len(m.history)
}

// loadOlder begins an older-history fetch.
func (m *Model) loadOlder() tea.Cmd {
	m.follow.BeginLoadingOlder()
	m.prevLines = m.transcript.TotalLines()
	return fetchHistory(m.opts.History, m.opts.ProjectID, m.oldestFetched, m.cfg.History.PageSize, true)
}

// handleAnswerFormKey handles keys while the answer form is open.
func (m Model) handleAnswerFormKey(msg tea.KeyMsg, keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case keyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.state = stateChatting
		m.answerForm = nil
		return m, nil
	}
	return m.updateAnswerForm(msg)
}

// updateAnswerForm routes a message to the form and handles submission.
func (m Model) updateAnswerForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.answerForm.Form().Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.answerForm.SetForm(f)
	}

	if !m.answerForm.Completed() {
		return m, cmd
	}

	answers := m.answerForm.Answers()
	batchID := m.answerForm.BatchID()
	actions := m.opts.Actions

	var send tea.Cmd
	if batchID != "" {
		m.answeredBatches[batchID] = true
		send = func() tea.Msg {
			return actionDoneMsg{err: actions.SubmitBatch(context.Background(), batchID, answers)}
		}
	} else if len(answers) == 1 {
		a := answers[0]
		m.tracker.MarkAnswered(a.QuestionID)
		send = func() tea.Msg {
			return actionDoneMsg{err: actions.SubmitAnswer(context.Background(), a.QuestionID, a.Text, a.Selected)}
		}
	}

	m.state = stateChatting
	m.answerForm = nil
	m.follow.ForceNextScroll()
	rebuildCmd := m.rebuild(false)
	return m, tea.Batch(send, rebuildCmd, tea.SetWindowTitle("parley "+iconDot+" "+m.opts.ProjectID))
}

// handlePreviewKey handles keys while the artifact preview is open.
func (m Model) handlePreviewKey(msg tea.KeyMsg, keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case keyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case "esc", keyEnter, "q":
		m.state = stateChatting
		return m, nil
	case "up", "k":
		m.preview.ScrollUp()
		return m, nil
	case "down", "j":
		m.preview.ScrollDown()
		return m, nil
	default:
		m.preview.UpdateViewport(msg)
		return m, nil
	}
}

// View renders the chat surface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := agentAuthorStyle.Render("parley") + " " +
		timeStyle.Render(iconDot+" "+m.opts.ProjectID)

	var body string
	if m.loading {
		body = lipgloss.Place(
			m.width, max(m.height-chromeHeight, 1),
			lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" loading conversation…",
		)
	} else {
		body = m.transcript.View()
	}

	main := lipgloss.JoinVertical(
		lipgloss.Left,
		" "+header,
		body,
		m.statusBar(),
		m.composerView(),
		helpStyle.Render("[enter] send  [ctrl+a] answer  [ctrl+o] artifact  [pgup/pgdn] scroll  [esc] bottom  [ctrl+c] quit"),
	)

	if m.state == stateAnswering && m.answerForm != nil {
		formContent := lipgloss.JoinVertical(
			lipgloss.Left,
			modalTitleStyle.Render("Answer"),
			"",
			m.answerForm.View(),
		)
		return lipgloss.Place(
			max(m.width, 1), max(m.height, 1),
			lipgloss.Center, lipgloss.Center,
			modalStyle.Render(formContent),
		)
	}

	if m.state == statePreviewing {
		return m.preview.Overlay(max(m.width, 1), max(m.height, 1))
	}

	return main
}

// statusBar renders presence and error state in one line.
func (m Model) statusBar() string {
	snap := m.presence.Snapshot()

	parts := []string{}
	if snap.Owner != nil {
		owner := "owner: " + snap.Owner.AgentName
		if snap.Owner.Status != "" {
			owner += " (" + string(snap.Owner.Status) + ")"
		}
		parts = append(parts, statusOwnerStyle.Render(owner))
	}

	if cur := m.tracker.Current(); cur != nil {
		label := "question pending"
		if cur.MultipleChoice {
			label += " (ctrl+a to answer)"
		}
		parts = append(parts, statusPendingStyle.Render(iconDot+" "+label))
	}

	if m.follow.IsLoadingOlder() {
		parts = append(parts, m.spinner.View()+" loading older messages")
	} else if m.follow.UserScrolledUp() {
		parts = append(parts, "scrolled up (esc for latest)")
	}

	if m.err != nil {
		parts = append(parts, statusErrStyle.Render(m.err.Error()))
	}

	if len(parts) == 0 {
		parts = append(parts, "connected")
	}

	return statusBarStyle.Render(strings.Join(parts, "  "))
}

// composerView renders the composer, or the blocked hint when a
// multiple-choice question is pending.
func (m Model) composerView() string {
	if m.tracker.BlocksComposition() {
		return composerHintStyle.Render("Answer the pending question to continue (ctrl+a)") + "\n\n"
	}
	return m.composer.View()
}
