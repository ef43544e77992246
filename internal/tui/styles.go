// Package tui implements the Bubble Tea chat surface for parley.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	colorGreen  = lipgloss.Color("#9ece6a") // green
	colorYellow = lipgloss.Color("#e0af68") // yellow
	colorBlue   = lipgloss.Color("#7aa2f7") // blue
	colorRed    = lipgloss.Color("#d75f6b") // red
	colorGray   = lipgloss.Color("#565f89") // comment
	colorWhite  = lipgloss.Color("#c0caf5") // foreground
)

// Styles used for rendering the chat surface.
var (
	// Author name styles.
	userAuthorStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	agentAuthorStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	systemAuthorStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	// Timestamp style.
	timeStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	// Question marker and text styles.
	questionMarkerStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	answeredStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	// Structured event styles.
	handoffStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	artifactStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	// Typing indicator style.
	typingStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	// Status bar styles.
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingLeft(1)

	statusOwnerStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	// Composer styles.
	composerHintStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				Italic(true).
				PaddingLeft(1)

	// Help line style.
	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingLeft(1)
)

// Icons and symbols.
const (
	iconDot      = "•"
	iconQuestion = "?"
	iconCheck    = "✔"
)

// Modal styles.
var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	modalHelpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			MarginTop(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorBlue)
)
