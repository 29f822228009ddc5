package ui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// Input provides line editing and arrow-key history recall for the chat
// prompt. Submitted non-empty lines are added to the recall buffer, and
// the buffer is persisted across runs.
type Input struct {
	line        *liner.State
	historyFile string
}

// NewInput creates an Input whose history persists to historyFile. An empty
// historyFile keeps history in memory only.
func NewInput(historyFile string) *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	in := &Input{
		line:        line,
		historyFile: historyFile,
	}
	in.loadHistory()
	return in
}

// ErrAborted reports whether err means the prompt was interrupted (Ctrl+C).
func ErrAborted(err error) bool {
	return err == liner.ErrPromptAborted
}

func (in *Input) loadHistory() {
	if in.historyFile == "" {
		return
	}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads one line with the given prompt. Non-empty submissions are
// appended to the recall buffer; navigating the buffer never mutates it.
func (in *Input) ReadLine(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}

	return input, nil
}

// ClearHistory empties the recall buffer. Used when starting a new chat.
func (in *Input) ClearHistory() {
	in.line.ClearHistory()
}

// saveHistory writes the recall buffer to the history file with owner-only
// permissions.
func (in *Input) saveHistory() {
	if in.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = in.line.WriteHistory(f)
}

// Close persists history and restores the terminal.
func (in *Input) Close() {
	in.saveHistory()
	in.line.Close()
}
