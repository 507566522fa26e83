package assistant

import (
	"context"
	log "log/slog"

	"voxtalk/internal/audio"
	"voxtalk/pkg/stt"
)

type Microphone interface {
	Listen(ctx context.Context, opt audio.ListenOptions) ([]float32, error)
}

type Transcriber interface {
	TranscribePCM(ctx context.Context, pcm16k []float32) (stt.Result, error)
}

// MicEar captures one utterance and transcribes it.
type MicEar struct {
	Mic         Microphone
	Options     audio.ListenOptions
	Transcriber Transcriber
	// Cue, when set, runs right before the microphone opens.
	Cue func(ctx context.Context) error
}

func (e *MicEar) Hear(ctx context.Context) (string, error) {
	if e.Cue != nil {
		if err := e.Cue(ctx); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}

	log.Debug("Starting listening")

	pcm, err := e.Mic.Listen(ctx, e.Options)
	if err != nil {
		return "", err
	}

	log.Debug("Recorded", "samples", len(pcm))

	res, err := e.Transcriber.TranscribePCM(ctx, pcm)
	if err != nil {
		return "", err
	}

	return res.Text, nil
}
