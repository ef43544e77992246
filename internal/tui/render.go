package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/core/presence"
)

const timestampFormat = "15:04"

// renderEntry renders one timeline entry as wrapped terminal text.
// pendingID marks the question currently awaiting a response.
func renderEntry(e conversation.Entry, width int, pendingID string) string {
	if e.Batch != nil {
		return renderBatch(e, width)
	}

	switch e.Message.Type {
	case conversation.TypeAgentQuestion:
		return renderQuestion(e.Message, width, pendingID)
	case conversation.TypeAgentHandoff:
		return renderHandoff(e.Message)
	case conversation.TypeArtifactCreated:
		return renderArtifact(e.Message)
	case conversation.TypeStoriesCreated:
		return renderStories(e.Message)
	default:
		return renderText(e.Message, width)
	}
}

// authorLabel renders the colored author prefix for a message.
func authorLabel(m conversation.Message) string {
	switch m.AuthorType {
	case conversation.AuthorUser:
		return userAuthorStyle.Render("you")
	case conversation.AuthorAgent:
		name := m.AgentName
		if name == "" {
			name = "agent"
		}
		return agentAuthorStyle.Render(name)
	default:
		return systemAuthorStyle.Render("system")
	}
}

func header(m conversation.Message) string {
	return fmt.Sprintf("%s %s %s",
		authorLabel(m),
		timeStyle.Render(iconDot),
		timeStyle.Render(m.CreatedAt.Format(timestampFormat)),
	)
}

func renderText(m conversation.Message, width int) string {
	body := lipgloss.NewStyle().Width(width).Render(m.Content)
	return header(m) + "\n" + body
}

func renderQuestion(m conversation.Message, width int, pendingID string) string {
	marker := questionMarkerStyle.Render(iconQuestion)
	body := lipgloss.NewStyle().Width(width - 2).Render(m.Content)

	lines := []string{header(m), marker + " " + body}

	if m.Data != nil && len(m.Data.Options) > 0 {
		for _, opt := range m.Data.Options {
			lines = append(lines, "  "+iconDot+" "+opt)
		}
	}

	switch {
	case m.Data != nil && m.Data.Answered:
		lines = append(lines, answeredStyle.Render("  "+iconCheck+" answered"))
	case m.QuestionID() == pendingID:
		lines = append(lines, pendingStyle.Render("  awaiting your response"))
	}

	return strings.Join(lines, "\n")
}

func renderBatch(e conversation.Entry, width int) string {
	b := e.Batch
	lines := []string{header(e.Message)}

	title := fmt.Sprintf("%s %d questions", questionMarkerStyle.Render(iconQuestion), len(b.Questions))
	lines = append(lines, title)

	answered := answerIndex(b.Answers)
	for i, q := range b.Questions {
		text := lipgloss.NewStyle().Width(width - 5).Render(q.Text)
		line := fmt.Sprintf("  %d. %s", i+1, text)
		if a, ok := answered[q.ID]; ok {
			line += answeredStyle.Render(" " + iconCheck + " " + answerSummary(a))
		}
		lines = append(lines, line)
	}

	if b.Answered {
		lines = append(lines, answeredStyle.Render("  "+iconCheck+" answered"))
	} else {
		lines = append(lines, pendingStyle.Render("  awaiting your responses"))
	}

	return strings.Join(lines, "\n")
}

func answerIndex(answers []conversation.Answer) map[string]conversation.Answer {
	if len(answers) == 0 {
		return nil
	}
	idx := make(map[string]conversation.Answer, len(answers))
	for _, a := range answers {
		idx[a.QuestionID] = a
	}
	return idx
}

func answerSummary(a conversation.Answer) string {
	if len(a.Selected) > 0 {
		return strings.Join(a.Selected, ", ")
	}
	return a.Text
}

func renderHandoff(m conversation.Message) string {
	from, to, reason := "", "", ""
	if m.Data != nil {
		from, to, reason = m.Data.FromAgent, m.Data.ToAgent, m.Data.Reason
	}

	text := fmt.Sprintf("handoff: %s -> %s", from, to)
	if reason != "" {
		text += " (" + reason + ")"
	}
	return header(m) + "\n" + handoffStyle.Render(text)
}

func renderArtifact(m conversation.Message) string {
	title := "artifact"
	if m.Data != nil && m.Data.ArtifactTitle != "" {
		title = m.Data.ArtifactTitle
	}
	return header(m) + "\n" + artifactStyle.Render("created "+title) + helpStyle.Render("  [ctrl+o] preview")
}

func renderStories(m conversation.Message) string {
	count := 0
	if m.Data != nil {
		count = m.Data.StoryCount
	}
	return header(m) + "\n" + artifactStyle.Render(fmt.Sprintf("created %d stories", count))
}

// renderTyping renders the typing indicator line, or empty when nobody is
// typing.
func renderTyping(typing []presence.TypingAgent) string {
	if len(typing) == 0 {
		return ""
	}

	names := make([]string, len(typing))
	for i, t := range typing {
		names[i] = t.AgentName
	}

	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}

	line := fmt.Sprintf("%s %s typing…", strings.Join(names, ", "), verb)
	if len(typing) == 1 && typing[0].Note != "" {
		line += " (" + typing[0].Note + ")"
	}

	return typingStyle.Render(line)
}
