package tts

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"voxtalk/internal/audio"
)

type Outcome string

const (
	Finished Outcome = "finished"
	Stopped  Outcome = "stopped"
)

type Renderer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Ducker quiets other audio for the duration of one utterance.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Player struct {
	render  Renderer
	engine  audio.Engine
	scratch *Scratch
	poll    time.Duration
	ducker  Ducker
}

type PlayerOption func(*Player)

func WithPollInterval(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d > 0 {
			p.poll = d
		}
	}
}

func WithDucker(d Ducker) PlayerOption {
	return func(p *Player) { p.ducker = d }
}

func NewPlayer(render Renderer, engine audio.Engine, scratch *Scratch, opts ...PlayerOption) *Player {
	p := &Player{
		render:  render,
		engine:  engine,
		scratch: scratch,
		poll:    100 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Speak renders text and plays it, checking active every poll tick.
// Playback is cut as soon as active reports false. The rendered clip is
// deleted exactly once on every path that created it.
func (p *Player) Speak(ctx context.Context, text string, active func() bool) (Outcome, error) {
	data, err := p.render.Synthesize(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrSynthesis) {
			err = fmt.Errorf("%w: %w", ErrSynthesis, err)
		}
		return "", err
	}

	name, err := p.scratch.Write(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	defer func() {
		if rmErr := p.scratch.Remove(name); rmErr != nil {
			log.Warn("Failed to remove rendered clip", "path", name, "err", rmErr)
		}
	}()

	f, err := p.scratch.Open(name)
	if err != nil {
		return "", fmt.Errorf("open rendered clip: %w", err)
	}
	if err := p.engine.Load(f); err != nil {
		return "", fmt.Errorf("load rendered clip: %w", err)
	}
	defer func() {
		if resetErr := p.engine.Reset(); resetErr != nil {
			log.Warn("Failed to reset playback engine", "err", resetErr)
		}
	}()

	if p.ducker != nil {
		if err := p.ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := p.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	if err := p.engine.Play(); err != nil {
		return "", fmt.Errorf("start playback: %w", err)
	}

	return p.wait(ctx, active), nil
}

func (p *Player) wait(ctx context.Context, active func() bool) Outcome {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		if !active() || ctx.Err() != nil {
			p.engine.Stop()
			return Stopped
		}
		if !p.engine.Busy() {
			return Finished
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
