package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"voxtalk/internal/audio"
	"voxtalk/internal/tts"
	"voxtalk/pkg/stt"
)

type Outcome string

const (
	OutcomeSpoken       Outcome = "spoken"
	OutcomeInterrupted  Outcome = "interrupted"
	OutcomeNoTranscript Outcome = "no_transcript"
	OutcomeNoReply      Outcome = "no_reply"
	OutcomeSpeechFailed Outcome = "speech_failed"
	OutcomeInactive     Outcome = "inactive"
)

// Reasons split the no_transcript outcome for observability only; the loop
// treats all of them the same way.
const (
	ReasonSilence      = "silence"
	ReasonUnrecognized = "unrecognized"
	ReasonUnavailable  = "unavailable"
)

type Turn struct {
	SessionID  string
	Index      int
	Outcome    Outcome
	Reason     string
	Transcript string
	Reply      string
	Started    time.Time
	Listen     time.Duration
	Complete   time.Duration
	Speak      time.Duration
}

func noTranscriptReason(err error) string {
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		return ReasonSilence
	case errors.Is(err, stt.ErrUnrecognized):
		return ReasonUnrecognized
	default:
		return ReasonUnavailable
	}
}

// runTurn performs capture, completion and playback strictly in order.
func (l *Loop) runTurn(ctx context.Context, s *Session) Turn {
	t := Turn{SessionID: s.ID, Index: s.Turns(), Started: time.Now()}

	mark := time.Now()
	text, err := l.ear.Hear(ctx)
	t.Listen = time.Since(mark)
	if err != nil {
		t.Outcome = OutcomeNoTranscript
		t.Reason = noTranscriptReason(err)
		log.Debug("No transcript", "reason", t.Reason, "err", err)
		return t
	}
	t.Transcript = text

	if s.History.DiscardPending() {
		log.Warn("Dropped unanswered user message", "session", s.ID)
	}
	if err := s.History.AppendUser(text); err != nil {
		t.Outcome = OutcomeNoTranscript
		t.Reason = ReasonUnrecognized
		log.Warn("Rejected transcript", "err", err)
		return t
	}

	log.Info("Heard", "text", text)

	mark = time.Now()
	reply, err := l.chat.Complete(ctx, s.History.Snapshot())
	t.Complete = time.Since(mark)
	if err != nil {
		t.Outcome = OutcomeNoReply
		log.Warn("No reply", "err", err)
		return t
	}
	if err := s.History.AppendAssistant(reply); err != nil {
		t.Outcome = OutcomeNoReply
		log.Warn("Rejected reply", "err", err)
		return t
	}
	t.Reply = reply

	log.Info("Replied", "text", reply)

	if !s.Active() {
		t.Outcome = OutcomeInactive
		return t
	}

	mark = time.Now()
	played, err := l.voice.Speak(ctx, reply, s.Active)
	t.Speak = time.Since(mark)
	switch {
	case err != nil:
		t.Outcome = OutcomeSpeechFailed
		log.Warn("Failed to voice out", "err", err)
	case played == tts.Stopped:
		t.Outcome = OutcomeInterrupted
	default:
		t.Outcome = OutcomeSpoken
	}

	return t
}
