package ui

import "github.com/charmbracelet/lipgloss"

// Shared terminal styles for the chat loop.
var (
	// PromptStyle colors the input prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")). // cyan
			Bold(true)

	// AssistantStyle labels streamed replies.
	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")). // blue
			Bold(true)

	// InfoStyle is for secondary status text.
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // gray

	// CommandStyle highlights command feedback.
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // green

	// WarnStyle is for recoverable problems.
	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // yellow

	// ErrorStyle is for reported errors.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // red
			Bold(true)
)
