package events

import (
	"context"
	"encoding/json"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxtalk/internal/assistant"
)

const (
	queueSize    = 64
	writeTimeout = 5 * time.Second
)

type Event struct {
	From       string `json:"from"`
	Kind       string `json:"kind"` // "state" or "turn"
	Session    string `json:"session"`
	Active     *bool  `json:"active,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Reply      string `json:"reply,omitempty"`
}

// Bus forwards turn events to a websocket hub. Publishing never blocks the
// conversation: events are queued and dropped when the queue is full.
type Bus struct {
	url  string
	conn *websocket.Conn

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

func Dial(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	log.Info("Connected to bus", "url", wsURL)

	b := &Bus{
		url:   u.String(),
		conn:  conn,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	go b.writeLoop()

	return b, nil
}

func (b *Bus) Publish(e Event) {
	e.From = "voxtalk"
	select {
	case b.queue <- e:
	default:
		log.Warn("Bus queue full, dropping event", "kind", e.Kind)
	}
}

func (b *Bus) TurnDone(_ context.Context, t assistant.Turn) {
	b.Publish(Event{
		Kind:       "turn",
		Session:    t.SessionID,
		Outcome:    string(t.Outcome),
		Reason:     t.Reason,
		Transcript: t.Transcript,
		Reply:      t.Reply,
	})
}

func (b *Bus) StateChanged(sessionID string, active bool) {
	b.Publish(Event{Kind: "state", Session: sessionID, Active: &active})
}

// Close flushes nothing; queued events are discarded.
func (b *Bus) Close() error {
	b.once.Do(func() { close(b.queue) })
	<-b.done
	return b.conn.Close()
}

func (b *Bus) writeLoop() {
	defer close(b.done)

	for e := range b.queue {
		data, err := json.Marshal(e)
		if err != nil {
			log.Error("Failed to encode event", "err", err)
			continue
		}

		if err := b.write(data); err != nil {
			log.Warn("Bus write failed, redialing", "err", err)
			if err := b.redial(); err != nil {
				log.Error("Bus redial failed", "url", b.url, "err", err)
				continue
			}
			if err := b.write(data); err != nil {
				log.Error("Bus write failed after redial", "err", err)
			}
		}
	}
}

func (b *Bus) write(data []byte) error {
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) redial() error {
	conn, _, err := websocket.DefaultDialer.Dial(b.url, nil)
	if err != nil {
		return err
	}
	_ = b.conn.Close()
	b.conn = conn
	return nil
}
