package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Engine plays one loaded clip at a time.
type Engine interface {
	// Load takes ownership of r; it is closed by Reset.
	Load(r io.ReadSeekCloser) error
	Play() error
	Busy() bool
	Stop()
	// Reset tears down the output device and brings it back up, ready for
	// the next Load.
	Reset() error
}

// BeepEngine drives the system speaker through faiface/beep.
type BeepEngine struct {
	mu       sync.Mutex
	rate     beep.SampleRate
	ready    bool
	streamer beep.StreamSeekCloser
	done     chan struct{}
}

func NewBeepEngine() *BeepEngine {
	return &BeepEngine{}
}

func (e *BeepEngine) Load(r io.ReadSeekCloser) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer != nil {
		r.Close()
		return errors.New("clip already loaded")
	}

	streamer, format, err := decode(r)
	if err != nil {
		r.Close()
		return err
	}

	if !e.ready || e.rate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		e.rate = format.SampleRate
		e.ready = true
	}

	e.streamer = streamer
	return nil
}

func (e *BeepEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return errors.New("nothing loaded")
	}

	done := make(chan struct{})
	e.done = done
	speaker.Play(beep.Seq(e.streamer, beep.Callback(func() {
		close(done)
	})))

	return nil
}

func (e *BeepEngine) Busy() bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return false
	}

	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (e *BeepEngine) Stop() {
	speaker.Clear()
}

func (e *BeepEngine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error

	speaker.Clear()
	if e.streamer != nil {
		if err := e.streamer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close clip: %w", err))
		}
		e.streamer = nil
	}
	e.done = nil

	if e.ready {
		speaker.Close()
		if err := speaker.Init(e.rate, e.rate.N(time.Second/10)); err != nil {
			e.ready = false
			errs = append(errs, fmt.Errorf("reinit speaker: %w", err))
		}
	}

	return errors.Join(errs...)
}

// decode picks the decoder from the container magic: RIFF is wav, anything
// else is tried as mp3.
func decode(r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, fmt.Errorf("rewind clip: %w", err)
	}

	if string(magic) == "RIFF" {
		s, f, err := wav.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decode wav: %w", err)
		}
		return s, f, nil
	}

	s, f, err := mp3.Decode(r)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode mp3: %w", err)
	}
	return s, f, nil
}
