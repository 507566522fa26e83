package conversation

import (
	"errors"
	"strings"
	"sync"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

var (
	ErrOutOfTurn    = errors.New("message out of turn")
	ErrEmptyContent = errors.New("empty message content")
)

// History is the ordered, append-only record of one session.
// The first element is always the single system message; after it user and
// assistant messages strictly alternate.
type History struct {
	mu       sync.Mutex
	messages []Message
}

func New(systemPrompt string) *History {
	return &History{
		messages: []Message{{Role: RoleSystem, Content: systemPrompt}},
	}
}

func (h *History) AppendUser(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyContent
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last().Role == RoleUser {
		return ErrOutOfTurn
	}
	h.messages = append(h.messages, Message{Role: RoleUser, Content: text})

	return nil
}

func (h *History) AppendAssistant(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyContent
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last().Role != RoleUser {
		return ErrOutOfTurn
	}
	h.messages = append(h.messages, Message{Role: RoleAssistant, Content: text})

	return nil
}

// DiscardPending drops a trailing user message that never got a reply.
func (h *History) DiscardPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last().Role != RoleUser {
		return false
	}
	h.messages = h.messages[:len(h.messages)-1]

	return true
}

// Snapshot returns a copy safe to hand to the completion client.
func (h *History) Snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]Message(nil), h.messages...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.messages)
}

func (h *History) last() Message {
	return h.messages[len(h.messages)-1]
}
