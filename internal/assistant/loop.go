package assistant

import (
	"context"
	log "log/slog"
	"sync"

	"voxtalk/internal/conversation"
	"voxtalk/internal/tts"
)

type Ear interface {
	Hear(ctx context.Context) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, history []conversation.Message) (string, error)
}

type Voice interface {
	Speak(ctx context.Context, text string, active func() bool) (tts.Outcome, error)
}

// Observer is told about every finished turn and every start/stop.
type Observer interface {
	TurnDone(ctx context.Context, t Turn)
	StateChanged(sessionID string, active bool)
}

type Status struct {
	SessionID string                 `json:"session_id"`
	Active    bool                   `json:"active"`
	Turns     int                    `json:"turns"`
	History   []conversation.Message `json:"history,omitempty"`
}

// Loop runs the turn-taking conversation for one session. At most one loop
// goroutine exists at a time; Start and Stop only flip the session's active
// flag, which is read between turns and on every playback tick.
type Loop struct {
	ear   Ear
	chat  Completer
	voice Voice
	obs   []Observer

	session *Session

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewLoop(session *Session, ear Ear, chat Completer, voice Voice, obs ...Observer) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		ear:     ear,
		chat:    chat,
		voice:   voice,
		obs:     obs,
		session: session,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (l *Loop) Session() *Session {
	return l.session
}

func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx.Err() != nil {
		log.Warn("Start ignored after shutdown")
		return
	}
	if l.session.active.Swap(true) {
		return
	}

	log.Info("Conversation started", "session", l.session.ID)
	l.notifyState(true)

	if l.running {
		return
	}
	l.running = true
	l.wg.Add(1)
	go l.run()
}

// Stop clears the active flag. Playback in progress halts within one poll
// tick; a capture or completion in flight finishes first.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.session.active.Swap(false) {
		return
	}

	log.Info("Conversation stopped", "session", l.session.ID)
	l.notifyState(false)
}

func (l *Loop) Status(withHistory bool) Status {
	st := Status{
		SessionID: l.session.ID,
		Active:    l.session.Active(),
		Turns:     l.session.Turns(),
	}
	if withHistory {
		st.History = l.session.History.Snapshot()
	}
	return st
}

// Shutdown stops the loop, cancels in-flight work and waits for the loop
// goroutine to exit or ctx to expire.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.Stop()

	l.mu.Lock()
	l.cancel()
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run() {
	defer l.wg.Done()

	for l.keepGoing() {
		t := l.runTurn(l.ctx, l.session)
		l.session.turns.Add(1)

		log.Debug("Turn done", "outcome", t.Outcome, "reason", t.Reason)

		for _, o := range l.obs {
			o.TurnDone(context.WithoutCancel(l.ctx), t)
		}
	}
}

// keepGoing is the iteration boundary check. Clearing running under the
// same lock as Start reads it means a Start racing with exit always sees
// either a live loop or none.
func (l *Loop) keepGoing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session.Active() && l.ctx.Err() == nil {
		return true
	}
	l.running = false
	return false
}

func (l *Loop) notifyState(active bool) {
	for _, o := range l.obs {
		o.StateChanged(l.session.ID, active)
	}
}
