package tts

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// Scratch hands out uniquely named transient files for rendered audio and
// tracks which ones are still on disk.
type Scratch struct {
	fs  afero.Fs
	dir string

	mu   sync.Mutex
	live map[string]struct{}
}

func NewScratch(fs afero.Fs, dir string) *Scratch {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Scratch{fs: fs, dir: dir, live: make(map[string]struct{})}
}

func (s *Scratch) Write(data []byte) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	f, err := afero.TempFile(s.fs, s.dir, "voxtalk-*.wav")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	name := f.Name()

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = s.fs.Remove(name)
		if werr == nil {
			werr = cerr
		}
		return "", fmt.Errorf("write scratch file: %w", werr)
	}

	s.mu.Lock()
	s.live[name] = struct{}{}
	s.mu.Unlock()

	return name, nil
}

func (s *Scratch) Open(name string) (afero.File, error) {
	return s.fs.Open(name)
}

// Remove deletes a file handed out by Write. Removing twice is an error.
func (s *Scratch) Remove(name string) error {
	s.mu.Lock()
	_, ok := s.live[name]
	delete(s.live, name)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("scratch file %s not live", name)
	}

	if err := s.fs.Remove(name); err != nil {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

func (s *Scratch) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
