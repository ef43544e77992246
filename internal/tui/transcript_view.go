package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/core/presence"
)

// TranscriptView renders the merged timeline inside a scrollable viewport.
// It owns no reconciliation logic; the model hands it collapsed entries and
// scroll directives.
type TranscriptView struct {
	vp        viewport.Model
	width     int
	lineCount int
}

// NewTranscriptView creates an empty transcript view.
func NewTranscriptView() *TranscriptView {
	return &TranscriptView{
		vp: viewport.New(0, 0),
	}
}

// SetSize resizes the viewport.
func (t *TranscriptView) SetSize(width, height int) {
	t.width = width
	t.vp.Width = width
	t.vp.Height = height
}

// SetEntries re-renders the timeline content. The viewport offset is left
// untouched; the caller issues a scroll directive afterward.
func (t *TranscriptView) SetEntries(entries []conversation.Entry, typing []presence.TypingAgent, pendingID string) {
	blocks := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		blocks = append(blocks, renderEntry(e, t.width, pendingID))
	}

	if indicator := renderTyping(typing); indicator != "" {
		blocks = append(blocks, indicator)
	}

	content := strings.Join(blocks, "\n\n")
	t.vp.SetContent(content)
	t.lineCount = t.vp.TotalLineCount()
}

// TotalLines returns the rendered line count of the current content.
func (t *TranscriptView) TotalLines() int {
	return t.lineCount
}

// GotoBottom moves the viewport to the newest content.
func (t *TranscriptView) GotoBottom() {
	t.vp.GotoBottom()
}

// RestoreOffset keeps the previously visible content in place after older
// entries were prepended. oldLines is the line count before the prepend.
func (t *TranscriptView) RestoreOffset(oldLines int) {
	delta := t.lineCount - oldLines
	if delta > 0 {
		t.vp.SetYOffset(t.vp.YOffset + delta)
	}
}

// NearBottom reports whether the viewport is within threshold lines of the
// bottom.
func (t *TranscriptView) NearBottom(threshold int) bool {
	remaining := t.vp.TotalLineCount() - (t.vp.YOffset + t.vp.Height)
	return remaining <= threshold
}

// AtTop reports whether the viewport shows the oldest loaded content.
func (t *TranscriptView) AtTop() bool {
	return t.vp.AtTop()
}

// ScrollUp scrolls the viewport up by n lines.
func (t *TranscriptView) ScrollUp(n int) {
	t.vp.ScrollUp(n)
}

// ScrollDown scrolls the viewport down by n lines.
func (t *TranscriptView) ScrollDown(n int) {
	t.vp.ScrollDown(n)
}

// PageUp scrolls up one page.
func (t *TranscriptView) PageUp() {
	t.vp.ScrollUp(t.vp.Height)
}

// PageDown scrolls down one page.
func (t *TranscriptView) PageDown() {
	t.vp.ScrollDown(t.vp.Height)
}

// View renders the viewport.
func (t *TranscriptView) View() string {
	return t.vp.View()
}
