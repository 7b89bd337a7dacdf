// internal/chat/session.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwiater/gridcast/internal/logging"
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInFlight is returned by Send while a previous message awaits its reply.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// FallbackReply is appended to the log when the assistant cannot be reached.
const FallbackReply = "Sorry, I couldn't reach the assistant. Please try again."

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation log.
type Message struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
	Failed  bool      `json:"failed,omitempty"`
}

// Assistant answers a user message given the dashboard context.
type Assistant interface {
	Chat(ctx context.Context, message string, c Context) (string, error)
}

// AssistantFunc adapts a function to the Assistant interface.
type AssistantFunc func(ctx context.Context, message string, c Context) (string, error)

// Chat calls f.
func (f AssistantFunc) Chat(ctx context.Context, message string, c Context) (string, error) {
	return f(ctx, message, c)
}

// Session is an append-only conversation with at most one send in flight.
type Session struct {
	assistant Assistant
	now       func() time.Time

	mu       sync.Mutex
	inFlight bool
	log      []Message
}

// NewSession returns a Session that forwards messages to a.
func NewSession(a Assistant) *Session {
	return &Session{assistant: a, now: time.Now}
}

func (s *Session) newMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, At: s.now()}
}

// Send appends text as a user message, asks the assistant and appends its reply.
// On failure a fallback apology is appended and the error is returned; the
// session is released either way so the user may retry.
func (s *Session) Send(ctx context.Context, text string, c Context) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	s.inFlight = true
	s.log = append(s.log, s.newMessage(RoleUser, text))
	s.mu.Unlock()

	reply, err := s.assistant.Chat(ctx, text, c)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		logging.WithComponent("chat").WithError(err).Warn("assistant call failed")
		msg := s.newMessage(RoleAssistant, FallbackReply)
		msg.Failed = true
		s.log = append(s.log, msg)
		return msg, fmt.Errorf("assistant: %w", err)
	}
	msg := s.newMessage(RoleAssistant, reply)
	s.log = append(s.log, msg)
	return msg, nil
}

// Busy reports whether a send is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.log))
	copy(out, s.log)
	return out
}
