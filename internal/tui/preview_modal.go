package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/core/conversation"
)

// Artifact preview modal layout constants.
const (
	previewModalMaxWidth  = 100 // maximum modal width in columns
	previewModalMaxHeight = 30  // maximum modal height in rows
	previewModalMargin    = 4   // margin from screen edges
	previewModalChrome    = 8   // rows for title, metadata, help, and spacing
	previewModalPadding   = 4   // padding inside content area
	glamourGutter         = 2   // glamour adds gutter space
)

// ArtifactPreviewModal displays an artifact body with markdown rendering.
type ArtifactPreviewModal struct {
	message  conversation.Message
	viewport viewport.Model
	ready    bool
}

// NewArtifactPreviewModal creates a preview modal for an artifact_created
// message.
func NewArtifactPreviewModal(msg conversation.Message, width, height int) ArtifactPreviewModal {
	modalWidth := min(width-previewModalMargin, previewModalMaxWidth)
	modalHeight := min(height-previewModalMargin, previewModalMaxHeight)
	contentHeight := modalHeight - previewModalChrome

	vp := viewport.New(modalWidth-previewModalPadding, contentHeight)

	m := ArtifactPreviewModal{
		message:  msg,
		viewport: vp,
		ready:    false,
	}

	m.renderContent(modalWidth - previewModalPadding - glamourGutter)

	return m
}

func (m *ArtifactPreviewModal) body() string {
	if m.message.Data != nil && m.message.Data.ArtifactBody != "" {
		return m.message.Data.ArtifactBody
	}
	return m.message.Content
}

// renderContent renders the artifact body as markdown.
func (m *ArtifactPreviewModal) renderContent(width int) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.viewport.SetContent(m.body())
		m.ready = true
		return
	}

	rendered, err := renderer.Render(m.body())
	if err != nil {
		m.viewport.SetContent(m.body())
		m.ready = true
		return
	}

	// Trim whitespace and glamour's decorative margins
	content := strings.TrimSpace(rendered)
	content = stripLeadingDecorative(content)
	content = stripTrailingDecorative(content)
	m.viewport.SetContent(content)
	m.ready = true
}

// UpdateViewport updates the viewport with a message (for scrolling).
func (m *ArtifactPreviewModal) UpdateViewport(msg any) {
	m.viewport, _ = m.viewport.Update(msg)
}

// ScrollUp scrolls the viewport up.
func (m *ArtifactPreviewModal) ScrollUp() {
	m.viewport.ScrollUp(1)
}

// ScrollDown scrolls the viewport down.
func (m *ArtifactPreviewModal) ScrollDown() {
	m.viewport.ScrollDown(1)
}

// Overlay renders the preview modal centered over the background.
func (m ArtifactPreviewModal) Overlay(width, height int) string {
	modalWidth := min(width-previewModalMargin, previewModalMaxWidth)
	modalHeight := min(height-previewModalMargin, previewModalMaxHeight)

	title := "Artifact"
	if m.message.Data != nil && m.message.Data.ArtifactTitle != "" {
		title = m.message.Data.ArtifactTitle
	}

	agentStr := previewAgentStyle.Render(m.message.AgentName)
	timeStr := previewTimeStyle.Render(m.message.CreatedAt.Format("2006-01-02 15:04:05"))
	metadata := fmt.Sprintf("%s %s %s", agentStr, iconDot, timeStr)

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		scrollInfo = previewScrollStyle.Render(fmt.Sprintf(" (%.0f%%)", m.viewport.ScrollPercent()*100))
	}

	modalContent := lipgloss.JoinVertical(
		lipgloss.Left,
		modalTitleStyle.Render(title+scrollInfo),
		"",
		metadata,
		previewDividerStyle.Render(strings.Repeat("─", modalWidth-previewModalPadding)),
		m.viewport.View(),
		modalHelpStyle.Render("[↑/↓/j/k] scroll  [enter/esc] close"),
	)

	modal := modalStyle.
		Width(modalWidth).
		Height(modalHeight).
		Render(modalContent)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		modal,
	)
}

// Preview modal specific styles.
var (
	previewAgentStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	previewTimeStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	previewDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3b4261"))

	previewScrollStyle = lipgloss.NewStyle().
				Foreground(colorGray)
)

// ansiPattern matches ANSI escape sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// isDecorativeLine checks if a line contains only decorative characters
// (horizontal rules, spaces) after stripping ANSI codes.
func isDecorativeLine(line string) bool {
	stripped := ansiPattern.ReplaceAllString(line, "")
	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return true
	}
	for _, r := range stripped {
		if r != '─' && r != '━' && r != '-' && r != '=' {
			return false
		}
	}
	return true
}

// stripLeadingDecorative removes leading decorative lines from content.
func stripLeadingDecorative(content string) string {
	lines := strings.Split(content, "\n")
	start := 0
	for start < len(lines) && isDecorativeLine(lines[start]) {
		start++
	}
	if start > 0 {
		return strings.Join(lines[start:], "\n")
	}
	return content
}

// stripTrailingDecorative removes trailing decorative lines from content.
func stripTrailingDecorative(content string) string {
	lines := strings.Split(content, "\n")
	end := len(lines)
	for end > 0 && isDecorativeLine(lines[end-1]) {
		end--
	}
	if end < len(lines) {
		return strings.Join(lines[:end], "\n")
	}
	return content
}
