package chatbot

import "strings"

// Kind discriminates what a submitted line means before any handler runs.
type Kind int

const (
	// KindEmpty is a blank submission; no API call, no history entry.
	KindEmpty Kind = iota
	// KindMessage is a plain chat message.
	KindMessage
	// KindSwitchModel is /model [name].
	KindSwitchModel
	// KindNewChat is /new.
	KindNewChat
	// KindHelp is /help.
	KindHelp
	// KindQuit is /quit or /exit.
	KindQuit
	// KindUnknown is an unrecognized /command.
	KindUnknown
)

// Input is the parsed form of a submitted line.
type Input struct {
	Kind Kind
	// Text is the message content for KindMessage.
	Text string
	// Model is the argument of /model, empty when omitted.
	Model string
	// Command is the raw command name for KindUnknown.
	Command string
}

// ParseInput classifies a submitted line. Commands are matched
// case-insensitively on the first whitespace-separated token.
func ParseInput(line string) Input {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Input{Kind: KindEmpty}
	}

	if !strings.HasPrefix(trimmed, "/") {
		return Input{Kind: KindMessage, Text: trimmed}
	}

	parts := strings.Fields(trimmed)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help":
		return Input{Kind: KindHelp}
	case "/quit", "/exit":
		return Input{Kind: KindQuit}
	case "/new":
		return Input{Kind: KindNewChat}
	case "/model":
		in := Input{Kind: KindSwitchModel}
		if len(args) > 0 {
			in.Model = args[0]
		}
		return in
	default:
		return Input{Kind: KindUnknown, Command: command}
	}
}
