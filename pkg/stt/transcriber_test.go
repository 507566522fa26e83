package stt

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranscriber(t *testing.T, h http.HandlerFunc) *Transcriber {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	api := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)

	tr, err := NewTranscriber(api, "whisper-large-v3")
	require.NoError(t, err)
	return tr
}

func tone() []float32 {
	pcm := make([]float32, SampleRate/4)
	for i := range pcm {
		if i%2 == 0 {
			pcm[i] = 0.3
		}
	}
	return pcm
}

func TestTranscribeUploadsWAV(t *testing.T) {
	var (
		model string
		head  []byte
	)

	tr := newTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		model = r.FormValue("model")

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		head, _ = io.ReadAll(io.LimitReader(f, 4))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" What is the capital of France? "}`))
	})

	res, err := tr.TranscribePCM(context.Background(), tone())
	require.NoError(t, err)

	assert.Equal(t, "What is the capital of France?", res.Text)
	assert.Equal(t, "whisper-large-v3", model)
	assert.True(t, bytes.Equal([]byte("RIFF"), head))
}

func TestTranscribeEmptyTextIsUnrecognized(t *testing.T) {
	tr := newTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  "}`))
	})

	_, err := tr.TranscribePCM(context.Background(), tone())
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestTranscribeServiceErrorIsUnavailable(t *testing.T) {
	tr := newTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := tr.TranscribePCM(context.Background(), tone())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUnrecognized)
}

func TestTranscribeWithoutSamples(t *testing.T) {
	tr := newTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})

	_, err := tr.TranscribePCM(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestNewTranscriberRequiresModel(t *testing.T) {
	_, err := NewTranscriber(openai.NewClient(), "")
	assert.Error(t, err)
}
