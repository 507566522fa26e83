package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrNoSpeech is returned when nothing louder than the ambient noise
// started within the onset timeout.
var ErrNoSpeech = errors.New("no speech before onset timeout")

type ListenOptions struct {
	SampleRate   int
	FrameSize    int
	Calibration  time.Duration // ambient noise sampling before listening
	OnsetTimeout time.Duration // max wait for speech to start; 0 = forever
	Pause        time.Duration // trailing silence that ends the utterance
	MaxDuration  time.Duration // 0 = no cap beyond pause detection
}

func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		SampleRate:   16000,
		FrameSize:    320, // 20ms
		Calibration:  time.Second,
		OnsetTimeout: 5 * time.Second,
		Pause:        800 * time.Millisecond,
	}
}

// Recorder owns the default input device. Listen calls are serialised so
// only one capture holds the microphone at a time.
type Recorder struct {
	mu sync.Mutex
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func (r *Recorder) Listen(ctx context.Context, opt ListenOptions) ([]float32, error) {
	if opt.SampleRate <= 0 || opt.FrameSize <= 0 {
		return nil, fmt.Errorf("invalid listen options: rate=%d frame=%d", opt.SampleRate, opt.FrameSize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]float32, opt.FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(opt.SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer stream.Stop()

	return capture(ctx, stream.Read, buf, opt)
}

// capture drives the detector from read, which refills buf with one frame.
func capture(ctx context.Context, read func() error, buf []float32, opt ListenOptions) ([]float32, error) {
	det := newDetector(opt)
	out := make([]float32, 0, opt.SampleRate*3)

	for !det.finished() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}

		if det.feed(buf) {
			out = append(out, buf...)
		}
	}

	if det.phase == phaseTimedOut {
		return nil, ErrNoSpeech
	}

	log.Debug("Captured utterance", "samples", len(out), "threshold", det.threshold)

	return out, nil
}
