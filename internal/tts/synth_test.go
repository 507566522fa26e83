package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxtalk/pkg/audioconv"
)

func newSynth(t *testing.T, h http.HandlerFunc) *Synthesizer {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	api := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)

	s, err := NewSynthesizer(api, SynthOptions{Model: "playai-tts", Voice: "Fritz-PlayAI", Language: "en"})
	require.NoError(t, err)
	return s
}

func TestSynthesizeRequestsWAV(t *testing.T) {
	clip, err := audioconv.EncodeWAV(make([]float32, 1600), 16000)
	require.NoError(t, err)

	var body map[string]any
	s := newSynth(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(clip)
	})

	got, err := s.Synthesize(context.Background(), "Paris is the capital of France.")
	require.NoError(t, err)

	assert.Equal(t, clip, got)
	assert.Equal(t, "Paris is the capital of France.", body["input"])
	assert.Equal(t, "wav", body["response_format"])
	assert.Equal(t, "Fritz-PlayAI", body["voice"])
	assert.Equal(t, "Speak in English.", body["instructions"])
}

func TestSynthesizeRejectsOtherCodecs(t *testing.T) {
	s := newSynth(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3\x03 definitely mp3"))
	})

	_, err := s.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSynthesis)
}

func TestSynthesizeServiceErrorIsSynthesisError(t *testing.T) {
	s := newSynth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSynthesis)
}

func TestNewSynthesizerValidates(t *testing.T) {
	_, err := NewSynthesizer(openai.NewClient(), SynthOptions{Model: "m", Voice: "v", Language: "not a tag!"})
	assert.Error(t, err)

	_, err = NewSynthesizer(openai.NewClient(), SynthOptions{Language: "en"})
	assert.Error(t, err)
}
