package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"voxtalk/pkg/audioconv"
)

const SampleRate = 16000

var (
	// ErrUnrecognized means the service answered but heard nothing usable.
	ErrUnrecognized = errors.New("speech not recognized")
	// ErrUnavailable means the service could not be reached or failed.
	ErrUnavailable = errors.New("transcription service unavailable")
)

type Result struct {
	Text string
}

// Transcriber sends captured audio to a remote OpenAI-compatible
// transcription endpoint. No language hint is sent; the service decides.
type Transcriber struct {
	api   openai.Client
	model string
}

func NewTranscriber(api openai.Client, model string) (*Transcriber, error) {
	if model == "" {
		return nil, errors.New("empty transcription model")
	}
	return &Transcriber{api: api, model: model}, nil
}

// pcm16k must be mono @ 16 kHz, float32 in [-1, 1]
func (t *Transcriber) TranscribePCM(ctx context.Context, pcm16k []float32) (Result, error) {
	if len(pcm16k) == 0 {
		return Result{}, fmt.Errorf("%w: no audio samples provided", ErrUnrecognized)
	}

	data, err := audioconv.EncodeWAV(pcm16k, SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("encode capture: %w", err)
	}

	resp, err := t.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "speech.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Result{}, ErrUnrecognized
	}

	return Result{Text: text}, nil
}
