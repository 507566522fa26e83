package audioconv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavPCM   = 1
	bitDepth = 16
)

// EncodeWAV renders mono float32 samples in [-1, 1] as a 16-bit PCM WAV file.
func EncodeWAV(pcm []float32, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("no samples to encode")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	var out seekBuffer
	enc := wav.NewEncoder(&out, sampleRate, bitDepth, 1, wavPCM)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           float32SliceToInt(pcm, bitDepth),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	return out.Bytes(), nil
}

// WAVDuration validates data as a WAV file and reports its play length.
func WAVDuration(data []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav")
	}

	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("seek pcm chunk: %w", err)
	}

	bytesPerSec := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSec == 0 {
		return 0, errors.New("wav header has no byte rate")
	}

	return time.Duration(dec.PCMLen() * int64(time.Second) / bytesPerSec), nil
}

func float32SliceToInt(data []float32, bitDepth int) []int {
	out := make([]int, len(data))
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	for i, v := range data {
		out[i] = int(clamp(float64(v), -1.0, 1.0) * scale)
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte {
	return b.buf
}
