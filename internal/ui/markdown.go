package ui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// DefaultWrapWidth is the fallback width when the terminal size is unknown.
const DefaultWrapWidth = 80

// IsStdoutTTY returns true if stdout is a terminal. Markdown rendering and
// colored output are skipped for piped output.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the current terminal width, or DefaultWrapWidth
// when it cannot be determined.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultWrapWidth
	}
	return width
}

// Renderer renders assistant replies as markdown for the terminal.
type Renderer struct {
	tr *glamour.TermRenderer
}

// NewRenderer creates a markdown renderer sized to the terminal. When the
// renderer cannot be constructed, Render falls back to plain text.
func NewRenderer() *Renderer {
	width := TerminalWidth()
	if width > DefaultWrapWidth {
		width = DefaultWrapWidth
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		tr = nil
	}
	return &Renderer{tr: tr}
}

// Render returns the terminal-formatted markdown for content, or content
// unchanged if rendering is unavailable or fails.
func (r *Renderer) Render(content string) string {
	if r.tr == nil {
		return content
	}
	rendered, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
