package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() ListenOptions {
	return ListenOptions{
		SampleRate:   1000,
		FrameSize:    10, // 10ms
		Calibration:  50 * time.Millisecond,
		OnsetTimeout: 200 * time.Millisecond,
		Pause:        30 * time.Millisecond,
	}
}

// script yields frames of constant amplitude from a list of (level, count).
type script struct {
	steps []struct {
		level float32
		n     int
	}
	reads int
}

func (s *script) add(level float32, n int) *script {
	s.steps = append(s.steps, struct {
		level float32
		n     int
	}{level, n})
	return s
}

func (s *script) reader(buf []float32) func() error {
	return func() error {
		s.reads++
		left := s.reads
		for _, st := range s.steps {
			if left <= st.n {
				for i := range buf {
					buf[i] = st.level
				}
				return nil
			}
			left -= st.n
		}
		return errors.New("script exhausted")
	}
}

func TestCaptureRecordsUntilPause(t *testing.T) {
	opt := testOptions()
	buf := make([]float32, opt.FrameSize)

	s := (&script{}).
		add(0.005, 5). // calibration
		add(0.005, 3). // waiting
		add(0.5, 4).   // speech
		add(0.005, 3). // pause ends it
		add(0.5, 100)  // never reached

	pcm, err := capture(context.Background(), s.reader(buf), buf, opt)
	require.NoError(t, err)

	assert.Len(t, pcm, (4+3)*opt.FrameSize)
	assert.Equal(t, 5+3+4+3, s.reads)
}

func TestCaptureTimesOutWithoutOnset(t *testing.T) {
	opt := testOptions()
	buf := make([]float32, opt.FrameSize)

	s := (&script{}).add(0.005, 1000)

	_, err := capture(context.Background(), s.reader(buf), buf, opt)
	require.ErrorIs(t, err, ErrNoSpeech)

	// calibration plus the onset window, nothing more
	assert.Equal(t, 5+20, s.reads)
}

func TestCaptureThresholdFollowsAmbientNoise(t *testing.T) {
	opt := testOptions()
	buf := make([]float32, opt.FrameSize)

	// loud room: 0.2 ambient means 0.25 is not speech
	s := (&script{}).add(0.2, 5).add(0.25, 1000)

	_, err := capture(context.Background(), s.reader(buf), buf, opt)
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestCaptureMaxDuration(t *testing.T) {
	opt := testOptions()
	opt.MaxDuration = 50 * time.Millisecond
	buf := make([]float32, opt.FrameSize)

	s := (&script{}).add(0, 5).add(0.5, 1000)

	pcm, err := capture(context.Background(), s.reader(buf), buf, opt)
	require.NoError(t, err)
	assert.Len(t, pcm, 5*opt.FrameSize)
}

func TestCaptureStopsOnReadError(t *testing.T) {
	opt := testOptions()
	buf := make([]float32, opt.FrameSize)

	s := (&script{}).add(0, 2)

	_, err := capture(context.Background(), s.reader(buf), buf, opt)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSpeech)
}

func TestCaptureHonoursContext(t *testing.T) {
	opt := testOptions()
	buf := make([]float32, opt.FrameSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := (&script{}).add(0, 1000)
	_, err := capture(ctx, s.reader(buf), buf, opt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.reads)
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0.5, frameRMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.Zero(t, frameRMS(nil))
}
