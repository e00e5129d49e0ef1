// Package vad decides when the user has stopped speaking. A Detector feeds
// fixed-size frames to a frame classifier (WebRTC VAD in production) and
// tracks speech state on the audio clock, so decisions are deterministic
// with respect to the samples fed in, not wall time.
package vad

import (
	"sync"
	"time"
)

const (
	frameMs  = 20
	debounce = 3 // consecutive speech frames to confirm voice

	// DefaultHold is the trailing silence that ends an utterance.
	DefaultHold = 1500 * time.Millisecond
)

// Classifier labels one frame of 16-bit PCM as speech or not.
type Classifier interface {
	IsSpeech(sampleRate int, frame []int16) (bool, error)
}

type Detector struct {
	cls  Classifier
	hold float64 // seconds of trailing silence before SpeechEnded

	mu            sync.Mutex
	buf           []int16
	bufRate       int
	clock         float64 // seconds of audio processed
	voiceDetected bool
	lastVoiceAt   float64
	speechRun     int
	totalFrames   int
	speechFrames  int
	tickTotal     int
	tickSpeech    int
}

// New builds a Detector on the WebRTC VAD.
func New(hold time.Duration) (*Detector, error) {
	cls, err := newWebRTCClassifier()
	if err != nil {
		return nil, err
	}
	return NewWithClassifier(cls, hold), nil
}

func NewWithClassifier(cls Classifier, hold time.Duration) *Detector {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Detector{cls: cls, hold: hold.Seconds()}
}

// Process consumes one chunk of captured samples. Chunks must arrive in
// capture order; the sample-rate of a session is expected to be stable.
func (d *Detector) Process(samples []float32, sampleRate float64) {
	if len(samples) == 0 || sampleRate <= 0 {
		return
	}
	rate := int(sampleRate)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bufRate != rate {
		d.buf = d.buf[:0]
		d.bufRate = rate
	}
	for _, s := range samples {
		v := s
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		d.buf = append(d.buf, int16(v*32767))
	}
	d.clock += float64(len(samples)) / sampleRate

	frameLen := rate * frameMs / 1000
	for len(d.buf) >= frameLen {
		frame := d.buf[:frameLen]
		d.buf = d.buf[frameLen:]

		active, err := d.cls.IsSpeech(rate, frame)
		if err != nil {
			continue
		}
		d.totalFrames++
		if active {
			d.speechFrames++
			d.speechRun++
			if d.voiceDetected {
				d.lastVoiceAt = d.clock
			} else if d.speechRun >= debounce {
				d.voiceDetected = true
				d.lastVoiceAt = d.clock
			}
		} else {
			d.speechRun = 0
		}
	}
}

// SpeechEnded reports whether speech was observed and has since been
// followed by at least the configured trailing silence.
func (d *Detector) SpeechEnded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voiceDetected && d.clock-d.lastVoiceAt >= d.hold
}

func (d *Detector) VoiceDetected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voiceDetected
}

const speechThreshold = 0.10 // 10% of frames must be speech to count as "speaking"

// HasSpeechTick reports whether speech dominated the frames seen since the
// previous call. Feeds the quiet monitor.
func (d *Detector) HasSpeechTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.totalFrames - d.tickTotal
	s := d.speechFrames - d.tickSpeech
	d.tickTotal, d.tickSpeech = d.totalFrames, d.speechFrames
	if t == 0 {
		return false
	}
	return float64(s)/float64(t) >= speechThreshold
}

// Reset prepares the detector for a fresh session.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = d.buf[:0]
	d.clock = 0
	d.voiceDetected = false
	d.lastVoiceAt = 0
	d.speechRun = 0
	d.totalFrames = 0
	d.speechFrames = 0
	d.tickTotal = 0
	d.tickSpeech = 0
}
