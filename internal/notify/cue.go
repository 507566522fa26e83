package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"voxtalk/internal/audio"
)

// Cue plays a short sound file (wav or mp3) to completion, signalling that
// the microphone is about to open.
func Cue(ctx context.Context, engine audio.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cue: %w", err)
	}

	if err := engine.Load(f); err != nil {
		return fmt.Errorf("load cue: %w", err)
	}
	defer engine.Reset()

	if err := engine.Play(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}

	for engine.Busy() {
		select {
		case <-ctx.Done():
			engine.Stop()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return nil
}
