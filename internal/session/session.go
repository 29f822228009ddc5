package session

import (
	"fmt"
	"time"
)

// Message roles accepted by the chat completion API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single chat message
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a chat session. Messages are kept in insertion order,
// which is the order sent to the API as conversation context.
type Session struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
}

// New creates a fresh session for the given model. If systemMessage is
// non-empty it is prepended as the first message.
func New(model, systemMessage string) *Session {
	s := &Session{
		ID:        fmt.Sprintf("session_%d", time.Now().UnixNano()),
		StartTime: time.Now(),
		Model:     model,
		Messages:  []Message{},
	}
	if systemMessage != "" {
		s.Append(RoleSystem, systemMessage)
	}
	return s
}

// Append adds a message with the given role and content.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Rollback removes the most recent message. Used to discard the user turn
// when a completion request fails.
func (s *Session) Rollback() {
	if len(s.Messages) > 0 {
		s.Messages = s.Messages[:len(s.Messages)-1]
	}
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	return len(s.Messages)
}

// Snapshot returns a copy of the message slice, safe to hand to an API call
// while the session keeps growing.
func (s *Session) Snapshot() []Message {
	messages := make([]Message, len(s.Messages))
	copy(messages, s.Messages)
	return messages
}
