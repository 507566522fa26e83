package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"voxtalk/pkg/audioconv"
)

// ErrSynthesis marks a failed render. The turn is skipped, the loop goes on.
var ErrSynthesis = errors.New("speech synthesis failed")

type SynthOptions struct {
	Model    string
	Voice    string
	Language string // BCP 47, e.g. "en"
}

// Synthesizer renders a whole reply to one WAV clip in a single request.
type Synthesizer struct {
	api          openai.Client
	opt          SynthOptions
	instructions string
}

func NewSynthesizer(api openai.Client, opt SynthOptions) (*Synthesizer, error) {
	if opt.Model == "" || opt.Voice == "" {
		return nil, errors.New("speech model and voice are required")
	}

	tag, err := language.Parse(opt.Language)
	if err != nil {
		return nil, fmt.Errorf("language %q: %w", opt.Language, err)
	}

	return &Synthesizer{
		api:          api,
		opt:          opt,
		instructions: "Speak in " + display.English.Languages().Name(tag) + ".",
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	resp, err := s.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.opt.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.opt.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat("wav"),
		Instructions:   openai.String(s.instructions),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", ErrSynthesis, err)
	}

	dur, err := audioconv.WAVDuration(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	log.Debug("Rendered reply", "bytes", len(data), "duration", dur)

	return data, nil
}
