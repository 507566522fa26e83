package assistant

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voxtalk/internal/conversation"
)

// Session holds one conversation and the active flag gating its loop.
// History lives only as long as the session.
type Session struct {
	ID      string
	Started time.Time
	History *conversation.History

	active atomic.Bool
	turns  atomic.Int64
}

func NewSession(systemPrompt string) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Started: time.Now(),
		History: conversation.New(systemPrompt),
	}
}

func (s *Session) Active() bool {
	return s.active.Load()
}

func (s *Session) Turns() int {
	return int(s.turns.Load())
}
