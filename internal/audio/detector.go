package audio

import (
	"math"
	"time"
)

const (
	// energy multiplier over calibrated ambient noise that counts as speech
	ambientFactor = 1.5
	minThreshold  = 0.01
)

type phase int

const (
	phaseCalibrating phase = iota
	phaseWaiting
	phaseSpeaking
	phaseDone
	phaseTimedOut
)

// detector is the frame-driven state machine behind Listen: calibrate on
// ambient noise, wait for onset, record until a long enough pause.
type detector struct {
	calibrateFrames int
	onsetFrames     int
	pauseFrames     int
	maxFrames       int

	phase     phase
	seen      int
	ambient   float64
	threshold float64
	silent    int
	recorded  int
}

func newDetector(opt ListenOptions) *detector {
	frameDur := time.Duration(opt.FrameSize) * time.Second / time.Duration(opt.SampleRate)

	d := &detector{
		calibrateFrames: framesFor(opt.Calibration, frameDur),
		onsetFrames:     framesFor(opt.OnsetTimeout, frameDur),
		pauseFrames:     framesFor(opt.Pause, frameDur),
		maxFrames:       framesFor(opt.MaxDuration, frameDur),
		threshold:       minThreshold,
	}
	if d.calibrateFrames == 0 {
		d.phase = phaseWaiting
	}
	if d.pauseFrames == 0 {
		d.pauseFrames = 1
	}

	return d
}

// feed consumes one frame and reports whether it belongs to the utterance.
func (d *detector) feed(frame []float32) bool {
	rms := frameRMS(frame)
	d.seen++

	switch d.phase {
	case phaseCalibrating:
		d.ambient += rms
		if d.seen >= d.calibrateFrames {
			d.ambient /= float64(d.calibrateFrames)
			d.threshold = math.Max(minThreshold, d.ambient*ambientFactor)
			d.phase = phaseWaiting
			d.seen = 0
		}
		return false

	case phaseWaiting:
		if rms > d.threshold {
			d.phase = phaseSpeaking
			d.recorded = 1
			return true
		}
		if d.onsetFrames > 0 && d.seen >= d.onsetFrames {
			d.phase = phaseTimedOut
		}
		return false

	case phaseSpeaking:
		d.recorded++
		if rms > d.threshold {
			d.silent = 0
		} else {
			d.silent++
			if d.silent >= d.pauseFrames {
				d.phase = phaseDone
			}
		}
		if d.maxFrames > 0 && d.recorded >= d.maxFrames {
			d.phase = phaseDone
		}
		return true
	}

	return false
}

func (d *detector) finished() bool {
	return d.phase == phaseDone || d.phase == phaseTimedOut
}

func framesFor(d, frame time.Duration) int {
	if d <= 0 || frame <= 0 {
		return 0
	}
	return int((d + frame - 1) / frame)
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
